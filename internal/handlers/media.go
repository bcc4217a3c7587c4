package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/services"
	"github.com/saad130013/storyweaver-ai/internal/store"
	"github.com/saad130013/storyweaver-ai/internal/types"
)

type MediaHandler struct {
	log       *logger.Logger
	sessions  *store.SessionRegistry
	authoring services.AuthoringService
}

func NewMediaHandler(log *logger.Logger, sessions *store.SessionRegistry, authoring services.AuthoringService) *MediaHandler {
	return &MediaHandler{
		log:       log.With("handler", "MediaHandler"),
		sessions:  sessions,
		authoring: authoring,
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	mime := fh.Header.Get("Content-Type")
	return data, mime, nil
}

// Upload ingests one media file. Images are normalized and embedded; videos
// are stored and served by URL. With draft=true an image also creates a new
// scene optimistically and drafts its text in the background.
func (h *MediaHandler) Upload(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := h.sessions.Get(sessionID); err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	data, mime, err := readUpload(fh)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "read_upload_failed", err)
		return
	}

	item, err := h.authoring.IngestMedia(c.Request.Context(), sessionID, fh.Filename, mime, data)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "ingest_failed", err)
		return
	}

	if c.Query("draft") == "true" && item.Type == types.MediaTypeImage {
		sceneID, err := h.authoring.CreateSceneFromImage(c.Request.Context(), sessionID, services.ImagePayload{
			Data:     data,
			MimeType: mime,
			URL:      item.URL,
		})
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "create_scene_failed", err)
			return
		}
		RespondCreated(c, gin.H{"media": item, "sceneId": sceneID})
		return
	}

	// Attaching to an existing scene when sceneId is supplied.
	if sceneID := strings.TrimSpace(c.Query("sceneId")); sceneID != "" {
		st, _ := h.sessions.Get(sessionID)
		sc, err := requireScene(st, sceneID)
		if err != nil {
			RespondError(c, http.StatusNotFound, "scene_not_found", err)
			return
		}
		media := append(sc.Media, item)
		if err := h.authoring.AttachMediaToScene(sessionID, sceneID, media); err != nil {
			RespondError(c, http.StatusBadRequest, "attach_failed", err)
			return
		}
	}

	RespondCreated(c, gin.H{"media": item})
}

// DraftStory batch-generates the whole story from the uploaded images,
// replacing the current scene list. Output order follows upload order.
func (h *MediaHandler) DraftStory(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := h.sessions.Get(sessionID); err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_form", err)
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "no_images", nil)
		return
	}

	images := make([]services.ImagePayload, 0, len(files))
	for _, fh := range files {
		data, mime, err := readUpload(fh)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "read_upload_failed", err)
			return
		}
		item, err := h.authoring.IngestMedia(c.Request.Context(), sessionID, fh.Filename, mime, data)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "ingest_failed", err)
			return
		}
		images = append(images, services.ImagePayload{Data: data, MimeType: mime, URL: item.URL})
	}

	story, err := h.authoring.DraftStory(c.Request.Context(), sessionID, images)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "draft_failed", err)
		return
	}
	RespondOK(c, gin.H{"story": story})
}
