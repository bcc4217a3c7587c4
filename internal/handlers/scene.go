package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/services"
	"github.com/saad130013/storyweaver-ai/internal/store"
)

type SceneHandler struct {
	log       *logger.Logger
	sessions  *store.SessionRegistry
	authoring services.AuthoringService
}

func NewSceneHandler(log *logger.Logger, sessions *store.SessionRegistry, authoring services.AuthoringService) *SceneHandler {
	return &SceneHandler{
		log:       log.With("handler", "SceneHandler"),
		sessions:  sessions,
		authoring: authoring,
	}
}

// AppendScene adds a blank scene at the end of the story.
func (h *SceneHandler) AppendScene(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	story, sceneID := st.AppendScene(nil)
	RespondCreated(c, gin.H{"sceneId": sceneID, "story": story})
}

func (h *SceneHandler) RemoveScene(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	story, err := st.RemoveScene(c.Param("sceneId"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "scene_not_found", err)
		return
	}
	RespondOK(c, gin.H{"story": story})
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *SceneHandler) ReorderScenes(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	story, err := st.MoveScene(req.From, req.To)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_move", err)
		return
	}
	RespondOK(c, gin.H{"story": story})
}

type updateSceneRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// UpdateSceneField sets narrative or dialogue text by hand; manual edits
// clear the AI-generated provenance flag.
func (h *SceneHandler) UpdateSceneField(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	var req updateSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	field, err := store.ParseSceneField(req.Field)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_field", err)
		return
	}
	sceneID := c.Param("sceneId")
	story, ok := st.UpdateSceneField(sceneID, field, req.Value)
	if !ok {
		RespondError(c, http.StatusNotFound, "scene_not_found", nil)
		return
	}
	st.MarkSceneGenerated(sceneID, false)
	RespondOK(c, gin.H{"story": story})
}

type refineRequest struct {
	Field string `json:"field"`
}

func (h *SceneHandler) RefineScene(c *gin.Context) {
	var req refineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	field, err := store.ParseSceneField(req.Field)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_field", err)
		return
	}
	story, err := h.authoring.Refine(c.Request.Context(), c.Param("id"), c.Param("sceneId"), field)
	if err != nil {
		RespondError(c, http.StatusConflict, "refine_failed", err)
		return
	}
	RespondOK(c, gin.H{"story": story})
}

// StartRecording claims the session's single recording slot for a scene.
func (h *SceneHandler) StartRecording(c *gin.Context) {
	if err := h.authoring.StartRecording(c.Param("id"), c.Param("sceneId")); err != nil {
		RespondError(c, http.StatusConflict, "recording_unavailable", err)
		return
	}
	RespondOK(c, gin.H{"recording": true})
}

// FinishRecording attaches the uploaded audio blob to the recording scene.
func (h *SceneHandler) FinishRecording(c *gin.Context) {
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		// Device denial on the client side arrives as an abort without a blob.
		h.authoring.AbortRecording(c.Param("id"))
		RespondError(c, http.StatusBadRequest, "missing_audio", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.authoring.AbortRecording(c.Param("id"))
		RespondError(c, http.StatusBadRequest, "read_audio_failed", err)
		return
	}
	story, err := h.authoring.FinishRecording(c.Request.Context(), c.Param("id"), c.Param("sceneId"), header.Filename, data)
	if err != nil {
		RespondError(c, http.StatusConflict, "attach_audio_failed", err)
		return
	}
	RespondOK(c, gin.H{"story": story})
}

func (h *SceneHandler) ClearAudio(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	story, ok := st.SetSceneAudio(c.Param("sceneId"), "")
	if !ok {
		RespondError(c, http.StatusNotFound, "scene_not_found", nil)
		return
	}
	RespondOK(c, gin.H{"story": story})
}
