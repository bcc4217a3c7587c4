package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/store"
	"github.com/saad130013/storyweaver-ai/internal/types"
)

type fakeAIClient struct {
	mu        sync.Mutex
	jsonCalls int
	textCalls int

	jsonFn func(user string, images []ImagePart) (map[string]any, error)
	textFn func(user string) (string, error)
}

func (f *fakeAIClient) GenerateJSON(ctx context.Context, system, user string, images []ImagePart, schemaName string, schema map[string]any, temperature float64) (map[string]any, error) {
	f.mu.Lock()
	f.jsonCalls++
	f.mu.Unlock()
	if f.jsonFn == nil {
		return map[string]any{"narrative": "نص", "dialogue": ""}, nil
	}
	return f.jsonFn(user, images)
}

func (f *fakeAIClient) GenerateText(ctx context.Context, system, user string, temperature float64) (string, error) {
	f.mu.Lock()
	f.textCalls++
	f.mu.Unlock()
	if f.textFn == nil {
		return "refined", nil
	}
	return f.textFn(user)
}

func newTestGateway(t *testing.T, client OpenAIClient) TextGenGateway {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewTextGenGateway(log, client)
}

func TestDraftSceneTextFallbackOnError(t *testing.T) {
	client := &fakeAIClient{
		jsonFn: func(string, []ImagePart) (map[string]any, error) {
			return nil, fmt.Errorf("network down")
		},
	}
	g := newTestGateway(t, client)

	got := g.DraftSceneText(context.Background(), ImagePayload{Data: []byte{1}}, StoryContext{LanguageMode: types.LanguageArabicOnly}, 1)
	if got.Narrative != fallbackNarrative(types.LanguageArabicOnly) {
		t.Fatalf("narrative = %q, want fallback", got.Narrative)
	}
	if got.Dialogue != "" {
		t.Fatalf("dialogue = %q, want empty", got.Dialogue)
	}
}

func TestDraftSceneTextFallbackOnEmptyNarrative(t *testing.T) {
	client := &fakeAIClient{
		jsonFn: func(string, []ImagePart) (map[string]any, error) {
			return map[string]any{"narrative": "   ", "dialogue": "x"}, nil
		},
	}
	g := newTestGateway(t, client)

	got := g.DraftSceneText(context.Background(), ImagePayload{}, StoryContext{LanguageMode: types.LanguageBilingual}, 2)
	if got.Narrative != fallbackNarrative(types.LanguageBilingual) {
		t.Fatalf("narrative = %q, want bilingual fallback", got.Narrative)
	}
}

func TestDraftStoryFromImagesPreservesOrder(t *testing.T) {
	// Scene 1 is artificially slow; scene 2 resolves immediately. Output
	// order must still follow input order.
	client := &fakeAIClient{
		jsonFn: func(user string, _ []ImagePart) (map[string]any, error) {
			if strings.Contains(user, "scene 1 ") {
				time.Sleep(100 * time.Millisecond)
				return map[string]any{"narrative": "first", "dialogue": ""}, nil
			}
			return map[string]any{"narrative": "second", "dialogue": ""}, nil
		},
	}
	g := newTestGateway(t, client)

	scenes := g.DraftStoryFromImages(context.Background(), StoryContext{LanguageMode: types.LanguageBilingual}, []ImagePayload{
		{Data: []byte{1}, URL: "data:image/jpeg;base64,AA=="},
		{Data: []byte{2}, URL: "data:image/jpeg;base64,BB=="},
	})
	if len(scenes) != 2 {
		t.Fatalf("scenes = %d, want 2", len(scenes))
	}
	if scenes[0].Narrative != "first" || scenes[1].Narrative != "second" {
		t.Fatalf("order lost: [%q, %q]", scenes[0].Narrative, scenes[1].Narrative)
	}
	if scenes[0].ID == scenes[1].ID || scenes[0].ID == "" {
		t.Fatalf("bad scene ids: %q, %q", scenes[0].ID, scenes[1].ID)
	}
	for i, sc := range scenes {
		if !sc.IsAIGenerated {
			t.Fatalf("scene %d not flagged as AI generated", i)
		}
		if len(sc.Media) != 1 {
			t.Fatalf("scene %d media = %d, want 1", i, len(sc.Media))
		}
	}
	if scenes[0].Media[0].URL != "data:image/jpeg;base64,AA==" {
		t.Fatalf("scene 0 media url = %q", scenes[0].Media[0].URL)
	}
}

func TestRefineTextEmptyInputSkipsService(t *testing.T) {
	client := &fakeAIClient{}
	g := newTestGateway(t, client)

	for _, input := range []string{"", "   ", "\n\t "} {
		if got := g.RefineText(context.Background(), input, store.FieldNarrative, types.LanguageBilingual); got != "" {
			t.Fatalf("refine(%q) = %q, want empty", input, got)
		}
	}
	if client.textCalls != 0 {
		t.Fatalf("gateway called service %d times for empty input", client.textCalls)
	}
}

func TestRefineTextFailureReturnsInput(t *testing.T) {
	client := &fakeAIClient{
		textFn: func(string) (string, error) { return "", fmt.Errorf("service unavailable") },
	}
	g := newTestGateway(t, client)

	in := "نص أصلي"
	if got := g.RefineText(context.Background(), in, store.FieldDialogue, types.LanguageArabicOnly); got != in {
		t.Fatalf("refine on failure = %q, want original %q", got, in)
	}
}

func TestTranslateForExport(t *testing.T) {
	client := &fakeAIClient{
		textFn: func(string) (string, error) { return "The cat plays", nil },
	}
	g := newTestGateway(t, client)

	if got := g.TranslateForExport(context.Background(), "القطة تلعب"); got != "The cat plays" {
		t.Fatalf("translate = %q", got)
	}
	if got := g.TranslateForExport(context.Background(), "  "); got != "" {
		t.Fatalf("translate empty input = %q, want empty", got)
	}
	if client.textCalls != 1 {
		t.Fatalf("textCalls = %d, want 1 (empty input must not call)", client.textCalls)
	}

	client.textFn = func(string) (string, error) { return "", fmt.Errorf("boom") }
	if got := g.TranslateForExport(context.Background(), "نص"); got != "" {
		t.Fatalf("translate on failure = %q, want empty", got)
	}
}
