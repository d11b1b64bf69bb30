package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"phishsim/internal/core/port"
)

// handleSubmit captures a landing-page form POST. The recipient is
// redirected when the landing page defines a redirect URL, otherwise the
// response is 204. Errors after the pair resolved are logged and still
// answered with 204: the recipient-visible flow must not break because
// bookkeeping did.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
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
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	redirect, err := h.svc.TrackSubmission(r.Context(), campaignID, targetID, r.PostForm)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("submission tracking error", slog.Any("error", err))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if redirect != "" {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
