package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/go-pdf/fpdf"

	"github.com/saad130013/storyweaver-ai/internal/types"
)

// A4 portrait in millimeters.
const (
	pdfPageWmm = 210.0
	pdfPageHmm = 297.0
)

// ExportPDF renders the cover plus one page per scene as full-page rasters
// and hands them to fpdf for encoding. The story snapshot is read-only; any
// failure aborts the whole export and leaves the editor state untouched.
func (e *exportService) ExportPDF(ctx context.Context, story types.Story) ([]byte, string, error) {
	display := e.buildDisplayScenes(ctx, story)

	pages := make([]image.Image, 0, len(display)+1)
	pages = append(pages, e.renderer.cover(e.cfg.PageWidthPx, e.cfg.PageHeightPx, story))
	for _, d := range display {
		media := e.sceneImages(ctx, d.Scene)
		pages = append(pages, e.renderer.scenePage(e.cfg.PageWidthPx, e.cfg.PageHeightPx, d, media))
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	for i, page := range pages {
		var buf bytes.Buffer
		if err := png.Encode(&buf, page); err != nil {
			return nil, "", fmt.Errorf("encode page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page_%d", i+1)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, pdfPageWmm, pdfPageHmm, false, opts, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, "", fmt.Errorf("encode pdf: %w", err)
	}
	e.log.Info("pdf export complete", "pages", len(pages), "bytes", out.Len())
	return out.Bytes(), exportFileName(story.Title, ".pdf"), nil
}
