package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/services"
	"github.com/saad130013/storyweaver-ai/internal/store"
	"github.com/saad130013/storyweaver-ai/internal/types"
)

type StoryHandler struct {
	log      *logger.Logger
	sessions *store.SessionRegistry
	media    services.MediaService
}

func NewStoryHandler(log *logger.Logger, sessions *store.SessionRegistry, media services.MediaService) *StoryHandler {
	return &StoryHandler{
		log:      log.With("handler", "StoryHandler"),
		sessions: sessions,
		media:    media,
	}
}

// CreateSession opens a fresh editing session with an empty story.
func (h *StoryHandler) CreateSession(c *gin.Context) {
	id := h.sessions.Open()
	RespondCreated(c, gin.H{"id": id})
}

func (h *StoryHandler) GetStory(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	RespondOK(c, gin.H{"story": st.Snapshot()})
}

// CloseSession ends the session; the story and its media die with it.
func (h *StoryHandler) CloseSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.sessions.Get(id); err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	h.sessions.Close(id)
	h.media.DropSession(id)
	RespondOK(c, gin.H{"closed": id})
}

type updateStoryRequest struct {
	store.MetadataPatch
	LanguageMode *string `json:"languageMode,omitempty"`
}

// UpdateStory patches story metadata and, when present, the language mode.
func (h *StoryHandler) UpdateStory(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	var req updateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	story := st.SetMetadata(req.MetadataPatch)
	if req.LanguageMode != nil {
		story, err = st.SetLanguageMode(types.LanguageMode(*req.LanguageMode))
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_language_mode", err)
			return
		}
	}
	RespondOK(c, gin.H{"story": story})
}

// ServeAsset streams a session-local media or audio blob.
func (h *StoryHandler) ServeAsset(c *gin.Context) {
	path, err := h.media.ResolveAssetPath("/assets/" + c.Param("path"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "asset_not_found", err)
		return
	}
	c.File(path)
}

func requireScene(st *store.StoryStore, sceneID string) (types.Scene, error) {
	story := st.Snapshot()
	sc := story.SceneByID(sceneID)
	if sc == nil {
		return types.Scene{}, fmt.Errorf("scene %s not found", sceneID)
	}
	return *sc, nil
}
