package types

// LanguageMode controls how narrative and dialogue text is generated,
// refined and exported.
type LanguageMode string

const (
	LanguageArabicOnly LanguageMode = "arabicOnly"
	LanguageBilingual  LanguageMode = "bilingual"
)

func (m LanguageMode) Valid() bool {
	return m == LanguageArabicOnly || m == LanguageBilingual
}

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// MediaItem is one visual asset on a scene. URL is either a data URI holding
// the normalized asset inline, or a served asset path for videos.
type MediaItem struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
}

// Scene is one page/slide unit of the story.
type Scene struct {
	ID            string      `json:"id"`
	Media         []MediaItem `json:"media"`
	Narrative     string      `json:"narrative"`
	Dialogue      string      `json:"dialogue"`
	IsAIGenerated bool        `json:"isAiGenerated"`
	AudioURL      string      `json:"audioUrl,omitempty"`
}

// Clone returns a copy of the scene with its own media slice.
func (s Scene) Clone() Scene {
	out := s
	out.Media = make([]MediaItem, len(s.Media))
	copy(out.Media, s.Media)
	return out
}

// Story is the single document one editing session works on. It is never
// persisted; it lives and dies with the session.
type Story struct {
	StudentName  string       `json:"studentName"`
	Grade        string       `json:"grade"`
	SchoolName   string       `json:"schoolName"`
	Title        string       `json:"title"`
	LanguageMode LanguageMode `json:"languageMode"`
	Scenes       []Scene      `json:"scenes"`
}

// Clone deep-copies the story so mutations on the copy never alias a
// previously published snapshot.
func (st Story) Clone() Story {
	out := st
	out.Scenes = make([]Scene, len(st.Scenes))
	for i, sc := range st.Scenes {
		out.Scenes[i] = sc.Clone()
	}
	return out
}

// SceneByID returns a pointer into the story's scene slice, or nil.
func (st *Story) SceneByID(id string) *Scene {
	for i := range st.Scenes {
		if st.Scenes[i].ID == id {
			return &st.Scenes[i]
		}
	}
	return nil
}

// PlaceholderImageURL is the media item a blank scene starts with, a 1x1
// transparent PNG so the page renderer always has something to draw.
const PlaceholderImageURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// NewBlankScene builds a default scene with a placeholder image and a fresh id.
func NewBlankScene() Scene {
	return Scene{
		ID:    NewSceneID(),
		Media: []MediaItem{{URL: PlaceholderImageURL, Type: MediaTypeImage}},
	}
}
