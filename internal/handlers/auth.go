package handlers

import (
	"errors"
	"net/http"

	"jobtracker/internal/apperrors"
	"jobtracker/internal/metrics"
	"jobtracker/internal/middleware"
	"jobtracker/pkg/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const sessionStateKey = "oauth_state"

var (
	errStateMismatch = errors.New("invalid OAuth state")
	errMissingCode   = errors.New("missing authorization code")
)

// Login starts the authorization-code flow.
func (h *Handler) Login(c *gin.Context) {
	state := utils.GenerateState()

	session := sessions.Default(c)
	session.Set(sessionStateKey, state)
	if err := session.Save(); err != nil {
		h.logger.Error("Failed to save session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// Callback finishes the flow: the state is single use, so it is dropped from
// the session whatever the outcome.
func (h *Handler) Callback(c *gin.Context) {
	session := sessions.Default(c)
	expected, _ := session.Get(sessionStateKey).(string)
	session.Delete(sessionStateKey)

	if providerErr := c.Query("error"); providerErr != "" {
		h.authFailed(c, session, errors.New(providerErr))
		return
	}
	if expected == "" || c.Query("state") != expected {
		h.authFailed(c, session, errStateMismatch)
		return
	}
	code := c.Query("code")
	if code == "" {
		h.authFailed(c, session, errMissingCode)
		return
	}

	profile, err := h.provider.Exchange(c.Request.Context(), code)
	if err != nil {
		h.authFailed(c, session, err)
		return
	}

	user, err := h.users.UpsertFromProfile(c.Request.Context(), *profile)
	if err != nil {
		if errors.Is(err, apperrors.ErrAuth) {
			h.authFailed(c, session, err)
			return
		}
		_ = session.Save()
		metrics.RecordLogin("failure")
		h.respondError(c, err)
		return
	}

	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		h.logger.Error("Failed to save session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	metrics.RecordLogin("success")
	c.Redirect(http.StatusFound, h.cfg.FrontendURL)
}

func (h *Handler) authFailed(c *gin.Context, session sessions.Session, cause error) {
	if err := session.Save(); err != nil {
		h.logger.Warn("Failed to save session", "error", err)
	}
	metrics.RecordLogin("failure")
	h.logger.Warn("OAuth callback failed", "error", cause)

	var appErr *apperrors.Error
	if !errors.As(cause, &appErr) {
		appErr = apperrors.Auth("Authentication failed", cause)
	}
	h.respondError(c, appErr)
}

func (h *Handler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(middleware.SessionUserKey)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me reports the signed-in user. A session pointing at a user that no longer
// resolves is cleared and reported as anonymous.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			session := sessions.Default(c)
			session.Delete(middleware.SessionUserKey)
			_ = session.Save()
		} else {
			// Keep the session; the lookup may succeed on the next request.
			h.logger.Error("Failed to load session user", "user_id", userID, "error", err)
		}
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": user})
}
