package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"phishsim/internal/core/port"
)

// Handler is the inbound adapter for the public (unauthenticated) tracking
// surface. It holds the Tracker usecase and a logger; routes are registered
// on a chi.Router for convenient method handling.
type Handler struct {
	svc    port.Tracker
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a handler with all tracking routes configured.
func NewHandler(svc port.Tracker, logger *slog.Logger) *Handler {
	h := &Handler{svc: svc, logger: logger}
	r := chi.NewRouter()

	r.Get("/o/{campaignID}/{targetID}.gif", h.handleOpen)
	r.Get("/c/{campaignID}/{targetID}", h.handleClick)
	r.Post("/l/submit", h.handleSubmit)
	r.Get("/l/{campaignID}/{targetID}", h.handleLanding)
	r.Get("/track", h.handleLegacyTrack)
	r.Get("/health", h.handleHealth)

	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// pairParams parses the campaign and target path parameters. Malformed ids
// get HTTP 400 with no state mutation.
func (h *Handler) pairParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	campaignID, err := uuid.Parse(chi.URLParam(r, "campaignID"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "targetID"))
	if err != nil {
		http.Error(w, "invalid target id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return campaignID, targetID, true
}
