// Package api exposes the HTTP intake for stage events and read access to the
// delivery log.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/mailnotify/internal/service"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	notificationSvc service.NotificationService
	logger          *slog.Logger
}

// New creates a new API Server.
func New(notificationSvc service.NotificationService, logger *slog.Logger) *Server {
	return &Server{
		notificationSvc: notificationSvc,
		logger:          logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/events/stage", s.handlePublishStageEvent)
	r.Get("/deliveries", s.handleListDeliveries)
	r.Get("/settings/smtp", s.handleGetSMTPSettings)
	r.Post("/notifications/test", s.handleTestNotification)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service error types to HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	var vErr *service.ValidationError
	var uErr *service.UnavailableError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.As(err, &uErr):
		writeError(w, http.StatusServiceUnavailable, uErr.Err.Error())
	default:
		s.logger.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}
