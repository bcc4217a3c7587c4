package services

import (
	"context"
	"strings"

	"github.com/saad130013/storyweaver-ai/internal/config"
	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/types"
)

// displayScene is a scene prepared for rendering: text fields resolved into
// their Arabic/English segments. It lives only for the duration of one
// export; the story itself is never mutated.
type displayScene struct {
	Scene       types.Scene
	NarrativeAR string
	NarrativeEN string
	DialogueAR  string
	DialogueEN  string
}

// ExportService turns a finalized story snapshot into downloadable files.
// Binary encoding is delegated to external renderers: fpdf receives one
// full-page raster per page, unioffice writes the slide deck.
type ExportService interface {
	// ExportPDF returns the encoded document and its download filename.
	ExportPDF(ctx context.Context, story types.Story) ([]byte, string, error)
	// ExportSlides returns the encoded slide deck and its download filename.
	ExportSlides(ctx context.Context, story types.Story) ([]byte, string, error)
}

type exportService struct {
	log     *logger.Logger
	gateway TextGenGateway
	media   MediaService
	cfg     config.ExportConfig

	renderer *pageRenderer
}

func NewExportService(log *logger.Logger, gateway TextGenGateway, media MediaService, cfg config.ExportConfig, fontPath string) (ExportService, error) {
	renderer, err := newPageRenderer(fontPath)
	if err != nil {
		return nil, err
	}
	return &exportService{
		log:      log.With("service", "ExportService"),
		gateway:  gateway,
		media:    media,
		cfg:      cfg,
		renderer: renderer,
	}, nil
}

// buildDisplayScenes produces the render-ready scene list. In arabicOnly
// mode every non-empty text field that does not already carry the [EN]
// marker gets exactly one export translation; fields already marked get
// none. An empty translation result means "translation unavailable" and the
// English segment is simply omitted.
func (e *exportService) buildDisplayScenes(ctx context.Context, story types.Story) []displayScene {
	out := make([]displayScene, 0, len(story.Scenes))
	for _, sc := range story.Scenes {
		d := displayScene{Scene: sc.Clone()}

		narrative := sc.Narrative
		dialogue := sc.Dialogue
		if story.LanguageMode == types.LanguageArabicOnly {
			narrative = e.augmentForExport(ctx, narrative)
			dialogue = e.augmentForExport(ctx, dialogue)
		}

		d.NarrativeAR, d.NarrativeEN = types.SplitSegments(narrative)
		d.DialogueAR, d.DialogueEN = types.SplitSegments(dialogue)
		out = append(out, d)
	}
	return out
}

func (e *exportService) augmentForExport(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" || types.HasTranslationMarker(text) {
		return text
	}
	translated := e.gateway.TranslateForExport(ctx, text)
	if translated == "" {
		// Translation unavailable; export the primary segment alone.
		return text
	}
	return types.JoinSegments(text, translated)
}

// exportFileName derives the download name from the story title with
// whitespace collapsed.
func exportFileName(title, ext string) string {
	name := strings.Join(strings.Fields(title), "_")
	if name == "" {
		name = "story"
	}
	return name + ext
}
