package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/saad130013/storyweaver-ai/internal/config"
	"github.com/saad130013/storyweaver-ai/internal/handlers"
	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/services"
	"github.com/saad130013/storyweaver-ai/internal/store"
	"github.com/saad130013/storyweaver-ai/internal/types"
)

type stubGateway struct{}

func (stubGateway) DraftSceneText(ctx context.Context, img services.ImagePayload, sc services.StoryContext, sceneIndex int) services.SceneText {
	return services.SceneText{Narrative: "نص مولد"}
}
func (stubGateway) DraftStoryFromImages(ctx context.Context, sc services.StoryContext, images []services.ImagePayload) []types.Scene {
	return nil
}
func (stubGateway) RefineText(ctx context.Context, text string, field store.SceneField, mode types.LanguageMode) string {
	return text
}
func (stubGateway) TranslateForExport(ctx context.Context, text string) string { return "" }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	sessions := store.NewSessionRegistry(log)
	media := services.NewMediaService(log, t.TempDir())
	authoring := services.NewAuthoringService(log, sessions, stubGateway{}, media)
	export, err := services.NewExportService(log, stubGateway{}, media, config.ExportConfig{
		PageWidthPx: 240, PageHeightPx: 340, SlideWidthPx: 320, SlideHeightPx: 180,
	}, "")
	if err != nil {
		t.Fatalf("export service: %v", err)
	}
	return NewRouter(RouterConfig{
		StoryHandler:  handlers.NewStoryHandler(log, sessions, media),
		SceneHandler:  handlers.NewSceneHandler(log, sessions, authoring),
		MediaHandler:  handlers.NewMediaHandler(log, sessions, authoring),
		ExportHandler: handlers.NewExportHandler(log, sessions, export),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/stories", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("empty session id")
	}
	return resp.ID
}

func TestHealthcheck(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/healthcheck", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", w.Code, w.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/stories/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get story: %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/stories/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("close session: %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/stories/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("closed session still served: %d", w.Code)
	}
}

func TestUpdateStoryMetadata(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	w := doJSON(t, router, http.MethodPatch, "/api/stories/"+id, map[string]any{
		"title":        "رحلة القمر",
		"studentName":  "سارة",
		"languageMode": "arabicOnly",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Story types.Story `json:"story"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Story.Title != "رحلة القمر" || resp.Story.LanguageMode != types.LanguageArabicOnly {
		t.Fatalf("story = %+v", resp.Story)
	}

	w = doJSON(t, router, http.MethodPatch, "/api/stories/"+id, map[string]any{"languageMode": "klingon"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid language mode accepted: %d", w.Code)
	}
}

func TestSceneEndpoints(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)

	var sceneIDs []string
	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodPost, "/api/stories/"+id+"/scenes", nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("append scene: %d", w.Code)
		}
		var resp struct {
			SceneID string `json:"sceneId"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		sceneIDs = append(sceneIDs, resp.SceneID)
	}

	w := doJSON(t, router, http.MethodPost, "/api/stories/"+id+"/scenes/reorder", map[string]int{"from": 2, "to": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("reorder: %d", w.Code)
	}
	var resp struct {
		Story types.Story `json:"story"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Story.Scenes[0].ID != sceneIDs[2] {
		t.Fatalf("reorder order = %v", resp.Story.Scenes)
	}

	w = doJSON(t, router, http.MethodPost, "/api/stories/"+id+"/scenes/reorder", map[string]int{"from": 0, "to": 9})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range reorder accepted: %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPatch, "/api/stories/"+id+"/scenes/"+sceneIDs[0], map[string]string{
		"field": "narrative",
		"value": "نص يدوي",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update field: %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/stories/"+id+"/scenes/"+sceneIDs[1], nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove scene: %d", w.Code)
	}
	w = doJSON(t, router, http.MethodDelete, "/api/stories/"+id+"/scenes/"+sceneIDs[1], nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("double remove: %d", w.Code)
	}
}

func TestExportPDFEndpoint(t *testing.T) {
	router := newTestRouter(t)
	id := createSession(t, router)
	doJSON(t, router, http.MethodPost, "/api/stories/"+id+"/scenes", nil)

	w := doJSON(t, router, http.MethodPost, "/api/stories/"+id+"/export/pdf", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("body is not a PDF")
	}
}
