package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/store"
	"github.com/saad130013/storyweaver-ai/internal/types"
)

// ImagePayload is one uploaded image the gateway drafts a scene from.
type ImagePayload struct {
	Data     []byte
	MimeType string
	// URL is the stored form of the asset (data URI after normalization);
	// batch drafting attaches it to the resulting scene's media.
	URL string
}

// StoryContext frames every drafting prompt.
type StoryContext struct {
	Title        string
	StudentName  string
	LanguageMode types.LanguageMode
}

// SceneText is the drafted pair for one scene.
type SceneText struct {
	Narrative string
	Dialogue  string
}

// TextGenGateway wraps every call against the text/vision model. All of its
// operations are fail-soft: a network, service or parse failure degrades to
// a fixed fallback value and never crosses the boundary as an error. The
// editor has to stay usable with the model unreachable.
type TextGenGateway interface {
	DraftSceneText(ctx context.Context, img ImagePayload, sc StoryContext, sceneIndex int) SceneText
	DraftStoryFromImages(ctx context.Context, sc StoryContext, images []ImagePayload) []types.Scene
	RefineText(ctx context.Context, text string, field store.SceneField, mode types.LanguageMode) string
	TranslateForExport(ctx context.Context, text string) string
}

type textGenGateway struct {
	log    *logger.Logger
	client OpenAIClient

	draftConcurrency int
}

func NewTextGenGateway(log *logger.Logger, client OpenAIClient) TextGenGateway {
	return &textGenGateway{
		log:              log.With("service", "TextGenGateway"),
		client:           client,
		draftConcurrency: 4,
	}
}

const draftSystemPrompt = `You are a children's story author writing short, warm, age-appropriate
narration for an illustrated storybook assembled by a school student from their own photographs.
Look at the photograph and write what happens in this scene of the story. Keep sentences short
and simple. Never mention that you are looking at a photograph.`

const arabicOnlyRules = `اكتب باللغة العربية الفصحى المبسطة فقط.
يجب ألا يحتوي النص على أي كلمات إنجليزية أو أي لغة ثانية.`

const bilingualRules = `Write the Arabic text first, then on a new line write the marker [EN]
followed by an exact English translation of the same text. Both fields must follow this
structure: Arabic first, then "[EN] " and the paired English.`

// fallbackNarrative is the fixed degrade value for a failed drafting call.
func fallbackNarrative(mode types.LanguageMode) string {
	if mode == types.LanguageBilingual {
		return "تعذر تحليل الصورة.\n\n[EN] Could not analyze image."
	}
	return "تعذر تحليل الصورة."
}

var sceneTextSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"narrative": map[string]any{"type": "string"},
		"dialogue":  map[string]any{"type": "string"},
	},
	"required":             []string{"narrative", "dialogue"},
	"additionalProperties": false,
}

func (g *textGenGateway) DraftSceneText(ctx context.Context, img ImagePayload, sc StoryContext, sceneIndex int) SceneText {
	rules := arabicOnlyRules
	if sc.LanguageMode == types.LanguageBilingual {
		rules = bilingualRules
	}

	user := fmt.Sprintf(
		"Story title: %q. Author: %q. This photograph is scene %d of the story.\n"+
			"Write \"narrative\" (2-4 sentences of narration) and \"dialogue\" (one or two short "+
			"lines the characters might say).\n%s",
		sc.Title, sc.StudentName, sceneIndex, rules,
	)

	obj, err := g.client.GenerateJSON(ctx, draftSystemPrompt, user,
		[]ImagePart{{Data: img.Data, MimeType: img.MimeType}},
		"scene_text", sceneTextSchema, 0.7)
	if err != nil {
		g.log.Warn("scene drafting degraded to fallback", "scene_index", sceneIndex, "error", err)
		return SceneText{Narrative: fallbackNarrative(sc.LanguageMode), Dialogue: ""}
	}

	narrative, _ := obj["narrative"].(string)
	dialogue, _ := obj["dialogue"].(string)
	if strings.TrimSpace(narrative) == "" {
		g.log.Warn("scene drafting returned empty narrative, using fallback", "scene_index", sceneIndex)
		return SceneText{Narrative: fallbackNarrative(sc.LanguageMode), Dialogue: ""}
	}
	return SceneText{Narrative: narrative, Dialogue: dialogue}
}

// DraftStoryFromImages fans one drafting call out per image. Calls run
// concurrently; the result keeps the input order no matter which call
// finishes first.
func (g *textGenGateway) DraftStoryFromImages(ctx context.Context, sc StoryContext, images []ImagePayload) []types.Scene {
	scenes := make([]types.Scene, len(images))

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.draftConcurrency)
	for i, img := range images {
		i, img := i, img
		grp.Go(func() error {
			text := g.DraftSceneText(gctx, img, sc, i+1)
			url := img.URL
			if url == "" {
				url = types.PlaceholderImageURL
			}
			scenes[i] = types.Scene{
				ID:            types.NewSceneID(),
				Media:         []types.MediaItem{{URL: url, Type: types.MediaTypeImage}},
				Narrative:     text.Narrative,
				Dialogue:      text.Dialogue,
				IsAIGenerated: true,
			}
			return nil
		})
	}
	// DraftSceneText never errors, so Wait only synchronizes.
	_ = grp.Wait()
	return scenes
}

const refineSystemPrompt = `You are an editor for a bilingual Arabic/English children's storybook.
You correct text without changing its meaning. Respond with the corrected text only, no
commentary, no markdown.`

func (g *textGenGateway) RefineText(ctx context.Context, text string, field store.SceneField, mode types.LanguageMode) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	formatHint := "This is story narration."
	if field == store.FieldDialogue {
		formatHint = "This is character dialogue; keep each spoken line on its own line."
	}

	var instructions string
	if mode == types.LanguageArabicOnly {
		instructions = "Fix Arabic grammar and spelling. Remove any English or other " +
			"second-language text entirely, including any [EN] marker. Output Arabic only."
	} else {
		instructions = "Ensure the text contains both an Arabic segment and an English segment, " +
			"Arabic first, then a line starting with \"[EN] \" followed by an English translation " +
			"matching the Arabic meaning exactly. If one half is missing, produce it from the " +
			"other. Fix grammar in both."
	}

	user := fmt.Sprintf("%s\n%s\n\nText:\n%s", formatHint, instructions, text)
	out, err := g.client.GenerateText(ctx, refineSystemPrompt, user, 0.2)
	if err != nil {
		g.log.Warn("refine degraded to no-op", "field", string(field), "error", err)
		return text
	}
	return out
}

const translateSystemPrompt = `You translate Arabic children's story text into simple, literal
English. Respond with the translation only, no commentary.`

func (g *textGenGateway) TranslateForExport(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	out, err := g.client.GenerateText(ctx, translateSystemPrompt, text, 0.2)
	if err != nil {
		g.log.Warn("export translation unavailable", "error", err)
		return ""
	}
	return out
}
