package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/types"
)

// SceneField names the per-scene text fields UpdateSceneField accepts.
type SceneField string

const (
	FieldNarrative SceneField = "narrative"
	FieldDialogue  SceneField = "dialogue"
)

func ParseSceneField(s string) (SceneField, error) {
	switch SceneField(strings.TrimSpace(s)) {
	case FieldNarrative:
		return FieldNarrative, nil
	case FieldDialogue:
		return FieldDialogue, nil
	default:
		return "", fmt.Errorf("unknown scene field %q", s)
	}
}

// MetadataPatch carries optional story metadata updates; nil fields are left
// untouched.
type MetadataPatch struct {
	StudentName *string `json:"studentName,omitempty"`
	Grade       *string `json:"grade,omitempty"`
	SchoolName  *string `json:"schoolName,omitempty"`
	Title       *string `json:"title,omitempty"`
}

// StoryStore owns one story document. Every mutation replaces the held
// snapshot with a fresh deep copy, so a snapshot handed to a reader is never
// written through afterwards.
type StoryStore struct {
	log *logger.Logger

	mu    sync.RWMutex
	story types.Story
}

func NewStoryStore(log *logger.Logger) *StoryStore {
	return &StoryStore{
		log: log.With("service", "StoryStore"),
		story: types.Story{
			LanguageMode: types.LanguageBilingual,
			Scenes:       []types.Scene{},
		},
	}
}

// Snapshot returns a copy of the current story. Callers may read it freely;
// it never changes under them.
func (s *StoryStore) Snapshot() types.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.story.Clone()
}

func (s *StoryStore) SetMetadata(patch MetadataPatch) types.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.story.Clone()
	if patch.StudentName != nil {
		next.StudentName = *patch.StudentName
	}
	if patch.Grade != nil {
		next.Grade = *patch.Grade
	}
	if patch.SchoolName != nil {
		next.SchoolName = *patch.SchoolName
	}
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	s.story = next
	return next.Clone()
}

func (s *StoryStore) SetLanguageMode(mode types.LanguageMode) (types.Story, error) {
	if !mode.Valid() {
		return types.Story{}, fmt.Errorf("invalid language mode %q", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.story.Clone()
	next.LanguageMode = mode
	s.story = next
	return next.Clone(), nil
}

// SetScenes replaces the whole scene list, e.g. after batch drafting.
func (s *StoryStore) SetScenes(scenes []types.Scene) types.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.story.Clone()
	next.Scenes = make([]types.Scene, len(scenes))
	for i, sc := range scenes {
		next.Scenes[i] = sc.Clone()
	}
	s.story = next
	return next.Clone()
}

// AppendScene adds the given scene at the end of the story. A nil scene
// appends a default blank scene with a placeholder image. The appended
// scene's id is returned.
func (s *StoryStore) AppendScene(scene *types.Scene) (types.Story, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sc types.Scene
	if scene == nil {
		sc = types.NewBlankScene()
	} else {
		sc = scene.Clone()
		if sc.ID == "" {
			sc.ID = types.NewSceneID()
		}
		if len(sc.Media) == 0 {
			sc.Media = []types.MediaItem{{URL: types.PlaceholderImageURL, Type: types.MediaTypeImage}}
		}
	}
	next := s.story.Clone()
	next.Scenes = append(next.Scenes, sc)
	s.story = next
	return next.Clone(), sc.ID
}

// RemoveScene drops the scene and everything it owns. Removing an unknown id
// is an error so callers can surface stale references.
func (s *StoryStore) RemoveScene(id string) (types.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.story.Scenes {
		if s.story.Scenes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return types.Story{}, fmt.Errorf("scene %s not found", id)
	}
	next := s.story.Clone()
	next.Scenes = append(next.Scenes[:idx], next.Scenes[idx+1:]...)
	s.story = next
	return next.Clone(), nil
}

// UpdateSceneField sets one text field on one scene. The update is a no-op
// returning ok=false when the id no longer resolves, which is how stale
// drafting results are silently dropped.
func (s *StoryStore) UpdateSceneField(id string, field SceneField, value string) (types.Story, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.story.Clone()
	sc := next.SceneByID(id)
	if sc == nil {
		return s.story.Clone(), false
	}
	switch field {
	case FieldNarrative:
		sc.Narrative = value
	case FieldDialogue:
		sc.Dialogue = value
	default:
		return s.story.Clone(), false
	}
	s.story = next
	return next.Clone(), true
}

// MarkSceneGenerated flags a scene's text as AI-drafted. Same
// apply-if-present semantics as UpdateSceneField.
func (s *StoryStore) MarkSceneGenerated(id string, generated bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.story.Clone()
	sc := next.SceneByID(id)
	if sc == nil {
		return false
	}
	sc.IsAIGenerated = generated
	s.story = next
	return true
}

// SetSceneMedia replaces a scene's media items (capped at two by callers).
func (s *StoryStore) SetSceneMedia(id string, media []types.MediaItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(media) == 0 {
		return false
	}
	next := s.story.Clone()
	sc := next.SceneByID(id)
	if sc == nil {
		return false
	}
	sc.Media = make([]types.MediaItem, len(media))
	copy(sc.Media, media)
	s.story = next
	return true
}

// MoveScene moves the scene at index from to index to. Out-of-range indices
// are a caller contract violation; the snapshot is left untouched.
func (s *StoryStore) MoveScene(from, to int) (types.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.story.Scenes)
	if from < 0 || from >= n || to < 0 || to >= n {
		return types.Story{}, fmt.Errorf("move scene: index out of range (from=%d to=%d len=%d)", from, to, n)
	}
	next := s.story.Clone()
	sc := next.Scenes[from]
	next.Scenes = append(next.Scenes[:from], next.Scenes[from+1:]...)
	rest := make([]types.Scene, 0, n)
	rest = append(rest, next.Scenes[:to]...)
	rest = append(rest, sc)
	rest = append(rest, next.Scenes[to:]...)
	next.Scenes = rest
	s.story = next
	return next.Clone(), nil
}

// SetSceneAudio attaches or clears (empty url) a scene's audio reference.
func (s *StoryStore) SetSceneAudio(id string, url string) (types.Story, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.story.Clone()
	sc := next.SceneByID(id)
	if sc == nil {
		return s.story.Clone(), false
	}
	sc.AudioURL = url
	s.story = next
	return next.Clone(), true
}
