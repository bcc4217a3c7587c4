package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/saad130013/storyweaver-ai/internal/types"
)

// pageRenderer rasterizes story pages onto RGBA canvases. The PDF and slide
// exporters both feed on its output. FONT_PATH should point at a TTF with
// Arabic coverage; the Go fonts are only a fallback so rendering never
// hard-fails on a missing font file.
type pageRenderer struct {
	regular *truetype.Font
	bold    *truetype.Font
}

func newPageRenderer(fontPath string) (*pageRenderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse fallback font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse fallback bold font: %w", err)
	}
	r := &pageRenderer{regular: regular, bold: bold}

	if fontPath != "" {
		raw, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", fontPath, err)
		}
		custom, err := truetype.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", fontPath, err)
		}
		r.regular = custom
		r.bold = custom
	}
	return r, nil
}

func (r *pageRenderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// cover renders the title page: story title, student, grade and school.
func (r *pageRenderer) cover(w, h int, story types.Story) image.Image {
	dc := gg.NewContext(w, h)
	dc.SetRGB(0.98, 0.96, 0.90)
	dc.Clear()

	dc.SetRGB255(46, 58, 89)
	dc.SetFontFace(r.face(r.bold, float64(h)/18))
	title := story.Title
	if title == "" {
		title = "قصتي"
	}
	dc.DrawStringWrapped(title, float64(w)/2, float64(h)*0.32, 0.5, 0.5, float64(w)*0.8, 1.4, gg.AlignCenter)

	dc.SetFontFace(r.face(r.regular, float64(h)/40))
	dc.SetRGB255(90, 90, 100)
	line := float64(h) / 28
	y := float64(h) * 0.58
	for _, s := range []string{story.StudentName, story.Grade, story.SchoolName} {
		if s == "" {
			continue
		}
		dc.DrawStringAnchored(s, float64(w)/2, y, 0.5, 0.5)
		y += line * 1.6
	}
	return dc.Image()
}

// scenePage renders one story page: up to two media images on top, then the
// Arabic segments right-aligned and the English segments left-aligned.
func (r *pageRenderer) scenePage(w, h int, d displayScene, media []image.Image) image.Image {
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	margin := float64(w) * 0.07
	imageBandH := float64(h) * 0.42

	if len(media) > 0 {
		slotW := (float64(w) - 3*margin) / float64(len(media))
		for i, im := range media {
			if im == nil {
				continue
			}
			fitted := fitImage(im, int(slotW), int(imageBandH))
			cx := margin + slotW/2 + float64(i)*(slotW+margin)
			dc.DrawImageAnchored(fitted, int(cx), int(margin+imageBandH/2), 0.5, 0.5)
		}
	}

	textW := float64(w) - 2*margin
	y := margin + imageBandH + margin

	arFace := r.face(r.regular, float64(h)/42)
	enFace := r.face(r.regular, float64(h)/52)

	y = r.drawBlock(dc, d.NarrativeAR, arFace, margin, y, textW, gg.AlignRight, 30, 30, 40)
	y = r.drawBlock(dc, d.NarrativeEN, enFace, margin, y, textW, gg.AlignLeft, 110, 110, 120)
	if d.DialogueAR != "" || d.DialogueEN != "" {
		y += float64(h) / 60
		y = r.drawBlock(dc, quoted(d.DialogueAR), arFace, margin, y, textW, gg.AlignRight, 60, 40, 90)
		_ = r.drawBlock(dc, quoted(d.DialogueEN), enFace, margin, y, textW, gg.AlignLeft, 130, 120, 150)
	}
	return dc.Image()
}

func (r *pageRenderer) drawBlock(dc *gg.Context, text string, face font.Face, x, y, width float64, align gg.Align, cr, cg, cb int) float64 {
	if text == "" {
		return y
	}
	dc.SetFontFace(face)
	dc.SetRGB255(cr, cg, cb)
	const spacing = 1.5
	lines := dc.WordWrap(text, width)
	dc.DrawStringWrapped(text, x, y, 0, 0, width, spacing, align)
	_, lh := dc.MeasureString("م")
	return y + float64(len(lines))*lh*spacing + lh
}

func quoted(s string) string {
	if s == "" {
		return ""
	}
	return "“" + s + "”"
}

// fitImage scales src to fit within maxW x maxH, preserving aspect ratio.
func fitImage(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || maxW <= 0 || maxH <= 0 {
		return src
	}
	scale := float64(maxW) / float64(b.Dx())
	if s := float64(maxH) / float64(b.Dy()); s < scale {
		scale = s
	}
	if scale >= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// sceneImages resolves a scene's media into drawable images. Data URIs are
// decoded in place; video items get a captured still frame. Items that
// cannot be rendered are skipped rather than failing the export.
func (e *exportService) sceneImages(ctx context.Context, sc types.Scene) []image.Image {
	out := make([]image.Image, 0, len(sc.Media))
	for _, mi := range sc.Media {
		var raw []byte
		switch mi.Type {
		case types.MediaTypeVideo:
			path, err := e.media.ResolveAssetPath(mi.URL)
			if err != nil {
				e.log.Warn("skipping unresolvable video item", "error", err)
				continue
			}
			raw, err = e.media.CaptureVideoStill(ctx, path)
			if err != nil {
				e.log.Warn("skipping video item, still capture failed", "error", err)
				continue
			}
		default:
			var err error
			raw, _, err = DecodeDataURI(mi.URL)
			if err != nil {
				e.log.Warn("skipping undecodable media item", "error", err)
				continue
			}
		}
		im, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			e.log.Warn("skipping undecodable media image", "error", err)
			continue
		}
		out = append(out, im)
	}
	return out
}
