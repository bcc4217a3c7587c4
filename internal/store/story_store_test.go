package store

import (
	"sort"
	"testing"

	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/types"
)

func newTestStore(t *testing.T) *StoryStore {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewStoryStore(log)
}

func TestAppendSceneDefaults(t *testing.T) {
	s := newTestStore(t)
	story, id := s.AppendScene(nil)
	if len(story.Scenes) != 1 {
		t.Fatalf("scenes = %d, want 1", len(story.Scenes))
	}
	sc := story.Scenes[0]
	if sc.ID != id || sc.ID == "" {
		t.Fatalf("scene id = %q, appended id = %q", sc.ID, id)
	}
	if len(sc.Media) != 1 || sc.Media[0].URL != types.PlaceholderImageURL {
		t.Fatalf("default scene media = %+v", sc.Media)
	}
}

func TestSceneIDsStayUnique(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 20; i++ {
		s.AppendScene(nil)
	}
	story := s.Snapshot()
	if _, err := s.RemoveScene(story.Scenes[3].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.MoveScene(0, 10); err != nil {
		t.Fatalf("move: %v", err)
	}
	s.AppendScene(nil)

	final := s.Snapshot()
	seen := map[string]bool{}
	for _, sc := range final.Scenes {
		if seen[sc.ID] {
			t.Fatalf("duplicate scene id %q", sc.ID)
		}
		seen[sc.ID] = true
	}
}

func TestMoveScenePreservesMultiset(t *testing.T) {
	s := newTestStore(t)
	var ids []string
	for i := 0; i < 5; i++ {
		_, id := s.AppendScene(nil)
		ids = append(ids, id)
	}
	story, err := s.MoveScene(4, 1)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(story.Scenes) != 5 {
		t.Fatalf("scene count changed: %d", len(story.Scenes))
	}
	want := []string{ids[0], ids[4], ids[1], ids[2], ids[3]}
	for i, sc := range story.Scenes {
		if sc.ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, sc.ID, want[i])
		}
	}

	got := make([]string, len(ids))
	for i, sc := range story.Scenes {
		got[i] = sc.ID
	}
	sort.Strings(got)
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	for i := range sorted {
		if got[i] != sorted[i] {
			t.Fatalf("multiset changed: %v vs %v", got, sorted)
		}
	}
}

func TestMoveSceneOutOfRange(t *testing.T) {
	s := newTestStore(t)
	s.AppendScene(nil)
	before := s.Snapshot()
	if _, err := s.MoveScene(0, 5); err == nil {
		t.Fatal("expected error for out-of-range move")
	}
	after := s.Snapshot()
	if len(after.Scenes) != len(before.Scenes) || after.Scenes[0].ID != before.Scenes[0].ID {
		t.Fatal("failed move mutated the snapshot")
	}
}

func TestRemoveSceneDropsAudioAndMedia(t *testing.T) {
	s := newTestStore(t)
	_, id := s.AppendScene(nil)
	if _, ok := s.SetSceneAudio(id, "/assets/a.webm"); !ok {
		t.Fatal("set audio failed")
	}
	story, err := s.RemoveScene(id)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(story.Scenes) != 0 {
		t.Fatalf("scenes = %d after removal", len(story.Scenes))
	}
	if story.SceneByID(id) != nil {
		t.Fatal("dangling scene reference after removal")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStore(t)
	_, id := s.AppendScene(nil)
	snap := s.Snapshot()

	if _, ok := s.UpdateSceneField(id, FieldNarrative, "بعد التعديل"); !ok {
		t.Fatal("update failed")
	}
	if snap.Scenes[0].Narrative != "" {
		t.Fatalf("prior snapshot mutated: %q", snap.Scenes[0].Narrative)
	}

	// Writing through a snapshot must not leak into the store either.
	snap.Scenes[0].Dialogue = "scribble"
	if s.Snapshot().Scenes[0].Dialogue == "scribble" {
		t.Fatal("snapshot aliases live store")
	}
}

func TestUpdateSceneFieldApplyIfPresent(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.UpdateSceneField("gone", FieldNarrative, "x"); ok {
		t.Fatal("update on missing scene reported ok")
	}
}

func TestSetMetadataPartialPatch(t *testing.T) {
	s := newTestStore(t)
	title := "رحلة القمر"
	story := s.SetMetadata(MetadataPatch{Title: &title})
	if story.Title != title {
		t.Fatalf("title = %q", story.Title)
	}
	name := "سارة"
	story = s.SetMetadata(MetadataPatch{StudentName: &name})
	if story.Title != title || story.StudentName != name {
		t.Fatalf("patch clobbered fields: %+v", story)
	}
}

func TestSessionRegistry(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	reg := NewSessionRegistry(log)
	id := reg.Open()
	if _, err := reg.Get(id); err != nil {
		t.Fatalf("get: %v", err)
	}
	reg.Close(id)
	if _, err := reg.Get(id); err == nil {
		t.Fatal("closed session still resolvable")
	}
}
