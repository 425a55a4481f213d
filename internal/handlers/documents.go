package handlers

import (
	"errors"
	"net/http"

	"jobtracker/internal/metrics"
	"jobtracker/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) UploadDocument(kind models.DocumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.applicationID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		if _, err := h.applications.Get(ctx, id); err != nil {
			h.respondError(c, err)
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			case c.Request.MultipartForm != nil && len(c.Request.MultipartForm.Value["file"]) > 0:
				// A part named "file" without a filename arrives as a plain value.
				c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "No file part"})
			}
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			h.logger.Error("Failed to open uploaded file", "application_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
			return
		}
		defer file.Close()

		app, err := h.documents.Upload(ctx, id, kind, fileHeader.Filename, file)
		if err != nil {
			h.respondError(c, err)
			return
		}

		metrics.RecordDocument(string(kind), "upload")
		c.JSON(http.StatusOK, app)
	}
}

func (h *Handler) DownloadDocument(kind models.DocumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.applicationID(c)
		if !ok {
			return
		}

		path, filename, err := h.documents.Locate(c.Request.Context(), id, kind)
		if err != nil {
			h.respondError(c, err)
			return
		}

		metrics.RecordDocument(string(kind), "download")
		c.FileAttachment(path, filename)
	}
}

func (h *Handler) DeleteDocument(kind models.DocumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.applicationID(c)
		if !ok {
			return
		}

		if err := h.documents.Delete(c.Request.Context(), id, kind); err != nil {
			h.respondError(c, err)
			return
		}

		metrics.RecordDocument(string(kind), "delete")
		c.JSON(http.StatusOK, gin.H{"message": kind.Label() + " deleted"})
	}
}
