package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"jobtracker/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// respondError writes the JSON error body for err. Causes of 5xx responses
// are logged and never sent to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}

	body := gin.H{"error": apperrors.PublicMessage(err)}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Details != "" {
		body["details"] = appErr.Details
	}
	c.JSON(status, body)
}

// applicationID parses the :id path segment. Anything that is not a positive
// integer cannot name an application, so it is answered with 404.
func (h *Handler) applicationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return 0, false
	}
	return uint(id), true
}
