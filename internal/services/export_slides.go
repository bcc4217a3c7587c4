package services

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/unidoc/unioffice/common"
	"github.com/unidoc/unioffice/measurement"
	"github.com/unidoc/unioffice/presentation"

	"github.com/saad130013/storyweaver-ai/internal/types"
)

// ExportSlides writes the story as a PPTX deck: a title slide, then one
// slide per scene carrying the rendered scene raster. Slide XML generation
// is entirely unioffice's job; video media appears as the captured still
// frame inside the raster.
func (e *exportService) ExportSlides(ctx context.Context, story types.Story) ([]byte, string, error) {
	display := e.buildDisplayScenes(ctx, story)

	ppt := presentation.New()
	defer ppt.Close()

	title := ppt.AddSlide()
	tb := title.AddTextBox()
	tb.Properties().SetPosition(0.5*measurement.Inch, 1.5*measurement.Inch)
	tb.Properties().SetSize(9*measurement.Inch, 2*measurement.Inch)
	para := tb.AddParagraph()
	run := para.AddRun()
	storyTitle := story.Title
	if storyTitle == "" {
		storyTitle = "قصتي"
	}
	run.SetText(storyTitle)
	run.Properties().SetSize(44 * measurement.Point)
	run.Properties().SetBold(true)

	sub := title.AddTextBox()
	sub.Properties().SetPosition(0.5*measurement.Inch, 4*measurement.Inch)
	sub.Properties().SetSize(9*measurement.Inch, 1.5*measurement.Inch)
	for _, line := range []string{story.StudentName, story.Grade, story.SchoolName} {
		if line == "" {
			continue
		}
		p := sub.AddParagraph()
		r := p.AddRun()
		r.SetText(line)
		r.Properties().SetSize(20 * measurement.Point)
	}

	for i, d := range display {
		media := e.sceneImages(ctx, d.Scene)
		raster := e.renderer.scenePage(e.cfg.SlideWidthPx, e.cfg.SlideHeightPx, d, media)

		var buf bytes.Buffer
		if err := png.Encode(&buf, raster); err != nil {
			return nil, "", fmt.Errorf("encode slide %d: %w", i+1, err)
		}
		img, err := common.ImageFromBytes(buf.Bytes())
		if err != nil {
			return nil, "", fmt.Errorf("load slide image %d: %w", i+1, err)
		}
		iref, err := ppt.AddImage(img)
		if err != nil {
			return nil, "", fmt.Errorf("register slide image %d: %w", i+1, err)
		}

		slide := ppt.AddSlide()
		pic := slide.AddImage(iref)
		pic.Properties().SetPosition(0, 0)
		pic.Properties().SetSize(10*measurement.Inch, 7.5*measurement.Inch)
	}

	var out bytes.Buffer
	if err := ppt.Save(&out); err != nil {
		return nil, "", fmt.Errorf("encode pptx: %w", err)
	}
	e.log.Info("slides export complete", "slides", len(display)+1, "bytes", out.Len())
	return out.Bytes(), exportFileName(story.Title, ".pptx"), nil
}
