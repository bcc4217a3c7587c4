package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/store"
	"github.com/saad130013/storyweaver-ai/internal/types"
)

// maxSceneMedia caps how many media items one scene carries.
const maxSceneMedia = 2

// AuthoringService orchestrates user actions against the story store and the
// text generation gateway: media ingestion, optimistic scene creation,
// refinement gating and audio recording sessions.
type AuthoringService interface {
	IngestMedia(ctx context.Context, sessionID, filename, mimeType string, data []byte) (types.MediaItem, error)

	// CreateSceneFromImage appends a blank scene immediately and drafts its text
	// in the background; the returned id is live before the AI call resolves.
	CreateSceneFromImage(ctx context.Context, sessionID string, img ImagePayload) (string, error)

	// DraftScene runs the draft-and-patch step synchronously. The patch is a
	// no-op if the scene was removed while the call was outstanding.
	DraftScene(ctx context.Context, sessionID, sceneID string, img ImagePayload, position int) error

	// DraftStory replaces the scene list with a batch-generated story.
	DraftStory(ctx context.Context, sessionID string, images []ImagePayload) (types.Story, error)

	// Refine runs one gateway refinement for a scene field. At most one
	// refinement per (scene, field) pair may be in flight.
	Refine(ctx context.Context, sessionID, sceneID string, field store.SceneField) (types.Story, error)

	AttachMediaToScene(sessionID, sceneID string, items []types.MediaItem) error

	StartRecording(sessionID, sceneID string) error
	FinishRecording(ctx context.Context, sessionID, sceneID, filename string, data []byte) (types.Story, error)
	AbortRecording(sessionID string)
}

type authoringService struct {
	log      *logger.Logger
	sessions *store.SessionRegistry
	gateway  TextGenGateway
	media    MediaService

	mu        sync.Mutex
	refining  map[string]bool   // sessionID/sceneID/field -> in flight
	recording map[string]string // sessionID -> sceneID currently recording
}

func NewAuthoringService(log *logger.Logger, sessions *store.SessionRegistry, gateway TextGenGateway, media MediaService) AuthoringService {
	return &authoringService{
		log:       log.With("service", "AuthoringService"),
		sessions:  sessions,
		gateway:   gateway,
		media:     media,
		refining:  make(map[string]bool),
		recording: make(map[string]string),
	}
}

func (s *authoringService) IngestMedia(ctx context.Context, sessionID, filename, mimeType string, data []byte) (types.MediaItem, error) {
	if _, err := s.sessions.Get(sessionID); err != nil {
		return types.MediaItem{}, err
	}
	if len(data) == 0 {
		return types.MediaItem{}, fmt.Errorf("empty upload")
	}

	if strings.HasPrefix(mimeType, "video/") {
		url, err := s.media.StoreBlob(sessionID, "video", filename, data)
		if err != nil {
			return types.MediaItem{}, err
		}
		return types.MediaItem{URL: url, Type: types.MediaTypeVideo}, nil
	}

	// Images are normalized to the fixed square raster and embedded inline.
	return types.MediaItem{URL: s.media.NormalizeImage(data, mimeType), Type: types.MediaTypeImage}, nil
}

func (s *authoringService) CreateSceneFromImage(ctx context.Context, sessionID string, img ImagePayload) (string, error) {
	st, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	url := img.URL
	if url == "" {
		url = types.PlaceholderImageURL
	}
	story, id := st.AppendScene(&types.Scene{
		Media: []types.MediaItem{{URL: url, Type: types.MediaTypeImage}},
	})
	position := len(story.Scenes)

	go func() {
		if err := s.DraftScene(context.Background(), sessionID, id, img, position); err != nil {
			s.log.Warn("background drafting skipped", "scene_id", id, "error", err)
		}
	}()

	return id, nil
}

func (s *authoringService) DraftScene(ctx context.Context, sessionID, sceneID string, img ImagePayload, position int) error {
	st, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	story := st.Snapshot()
	text := s.gateway.DraftSceneText(ctx, img, StoryContext{
		Title:        story.Title,
		StudentName:  story.StudentName,
		LanguageMode: story.LanguageMode,
	}, position)

	// Apply-if-present: the scene may have been removed while the call was out.
	if _, ok := st.UpdateSceneField(sceneID, store.FieldNarrative, SanitizeGenerated(text.Narrative)); !ok {
		s.log.Debug("drafted text dropped, scene gone", "scene_id", sceneID)
		return nil
	}
	st.UpdateSceneField(sceneID, store.FieldDialogue, SanitizeGenerated(text.Dialogue))
	st.MarkSceneGenerated(sceneID, true)
	return nil
}

func (s *authoringService) DraftStory(ctx context.Context, sessionID string, images []ImagePayload) (types.Story, error) {
	st, err := s.sessions.Get(sessionID)
	if err != nil {
		return types.Story{}, err
	}
	if len(images) == 0 {
		return types.Story{}, fmt.Errorf("no images to draft from")
	}

	story := st.Snapshot()
	scenes := s.gateway.DraftStoryFromImages(ctx, StoryContext{
		Title:        story.Title,
		StudentName:  story.StudentName,
		LanguageMode: story.LanguageMode,
	}, images)
	for i := range scenes {
		scenes[i].Narrative = SanitizeGenerated(scenes[i].Narrative)
		scenes[i].Dialogue = SanitizeGenerated(scenes[i].Dialogue)
	}
	return st.SetScenes(scenes), nil
}

func refineKey(sessionID, sceneID string, field store.SceneField) string {
	return sessionID + "/" + sceneID + "/" + string(field)
}

func (s *authoringService) Refine(ctx context.Context, sessionID, sceneID string, field store.SceneField) (types.Story, error) {
	st, err := s.sessions.Get(sessionID)
	if err != nil {
		return types.Story{}, err
	}

	key := refineKey(sessionID, sceneID, field)
	s.mu.Lock()
	if s.refining[key] {
		s.mu.Unlock()
		return types.Story{}, fmt.Errorf("refinement already in flight for scene %s field %s", sceneID, field)
	}
	s.refining[key] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.refining, key)
		s.mu.Unlock()
	}()

	story := st.Snapshot()
	sc := story.SceneByID(sceneID)
	if sc == nil {
		return types.Story{}, fmt.Errorf("scene %s not found", sceneID)
	}
	current := sc.Narrative
	if field == store.FieldDialogue {
		current = sc.Dialogue
	}

	refined := s.gateway.RefineText(ctx, current, field, story.LanguageMode)

	// Last write wins; dropped silently if the scene vanished meanwhile.
	next, _ := st.UpdateSceneField(sceneID, field, refined)
	return next, nil
}

func (s *authoringService) AttachMediaToScene(sessionID, sceneID string, items []types.MediaItem) error {
	st, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("a scene needs at least one media item")
	}
	if len(items) > maxSceneMedia {
		items = items[:maxSceneMedia]
	}
	if !st.SetSceneMedia(sceneID, items) {
		return fmt.Errorf("scene %s not found", sceneID)
	}
	return nil
}

func (s *authoringService) StartRecording(sessionID, sceneID string) error {
	st, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	story := st.Snapshot()
	if story.SceneByID(sceneID) == nil {
		return fmt.Errorf("scene %s not found", sceneID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if active, ok := s.recording[sessionID]; ok {
		return fmt.Errorf("already recording for scene %s", active)
	}
	s.recording[sessionID] = sceneID
	return nil
}

func (s *authoringService) FinishRecording(ctx context.Context, sessionID, sceneID, filename string, data []byte) (types.Story, error) {
	s.mu.Lock()
	active, ok := s.recording[sessionID]
	delete(s.recording, sessionID)
	s.mu.Unlock()
	if !ok || active != sceneID {
		return types.Story{}, fmt.Errorf("no recording in progress for scene %s", sceneID)
	}

	st, err := s.sessions.Get(sessionID)
	if err != nil {
		return types.Story{}, err
	}
	if len(data) == 0 {
		return types.Story{}, fmt.Errorf("empty audio blob")
	}
	url, err := s.media.StoreBlob(sessionID, "audio", filename, data)
	if err != nil {
		return types.Story{}, err
	}
	story, found := st.SetSceneAudio(sceneID, url)
	if !found {
		return types.Story{}, fmt.Errorf("scene %s not found", sceneID)
	}
	return story, nil
}

func (s *authoringService) AbortRecording(sessionID string) {
	s.mu.Lock()
	delete(s.recording, sessionID)
	s.mu.Unlock()
}

var (
	fenceRe     = regexp.MustCompile("```+")
	emphasisRe  = regexp.MustCompile(`\*\*+`)
	directionRe = regexp.MustCompile(`(?i)\[(scene|مشهد)\s*\d*\]`)
)

// SanitizeGenerated strips model-control artifacts from drafted text: code
// fences, emphasis runs and bracketed stage directions, then drops trimmed
// lines shorter than 2 characters. The [EN] translation marker carries data
// and is preserved. Surviving lines keep their exact content and order.
func SanitizeGenerated(text string) string {
	if text == "" {
		return ""
	}
	text = fenceRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "")
	text = directionRe.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if utf8.RuneCountInString(strings.TrimSpace(line)) < 2 {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
