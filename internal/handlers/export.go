package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/services"
	"github.com/saad130013/storyweaver-ai/internal/store"
)

type ExportHandler struct {
	log      *logger.Logger
	sessions *store.SessionRegistry
	export   services.ExportService
}

func NewExportHandler(log *logger.Logger, sessions *store.SessionRegistry, export services.ExportService) *ExportHandler {
	return &ExportHandler{
		log:      log.With("handler", "ExportHandler"),
		sessions: sessions,
		export:   export,
	}
}

const (
	pdfContentType  = "application/pdf"
	pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// ExportPDF renders the story into a paginated document. An export failure
// is the one place a blocking error reaches the user; the editor state is
// untouched so they can retry.
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	data, filename, err := h.export.ExportPDF(c.Request.Context(), st.Snapshot())
	if err != nil {
		h.log.Error("pdf export failed", "session_id", c.Param("id"), "error", err)
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, pdfContentType, data)
}

func (h *ExportHandler) ExportSlides(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	data, filename, err := h.export.ExportSlides(c.Request.Context(), st.Snapshot())
	if err != nil {
		h.log.Error("slides export failed", "session_id", c.Param("id"), "error", err)
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, pptxContentType, data)
}
