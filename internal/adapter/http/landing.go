package httpadapter

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"phishsim/internal/core/port"
)

// handleLanding serves the rewritten landing page for one recipient.
func (h *Handler) handleLanding(w http.ResponseWriter, r *http.Request) {
	campaignID, targetID, ok := h.pairParams(w, r)
	if !ok {
		return
	}
	html, err := h.svc.RenderLanding(r.Context(), campaignID, targetID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("landing render error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// handleLegacyTrack redirects the legacy query-parameter form to the
// canonical landing page path.
func (h *Handler) handleLegacyTrack(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(r.URL.Query().Get("c"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	targetID, err := uuid.Parse(r.URL.Query().Get("t"))
	if err != nil {
		http.Error(w, "invalid target id", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/l/%s/%s", campaignID, targetID), http.StatusFound)
}
