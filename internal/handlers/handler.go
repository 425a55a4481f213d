package handlers

import (
	"log/slog"

	"jobtracker/internal/auth"
	"jobtracker/internal/config"
	"jobtracker/internal/services"
)

type Handler struct {
	cfg          config.Config
	logger       *slog.Logger
	applications *services.ApplicationService
	documents    *services.DocumentService
	users        *services.UserService
	provider     auth.Provider
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	applications *services.ApplicationService,
	documents *services.DocumentService,
	users *services.UserService,
	provider auth.Provider,
) *Handler {
	return &Handler{
		cfg:          cfg,
		logger:       logger,
		applications: applications,
		documents:    documents,
		users:        users,
		provider:     provider,
	}
}
