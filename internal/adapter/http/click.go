package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"phishsim/internal/core/port"
)

// handleClick records a click and redirects to the original destination
// carried in the u parameter. An undecodable or non-http(s) destination is
// HTTP 400 without any state mutation; an unknown pair is 404. Remaining
// errors are logged and treated as 404 to avoid leaking information.
func (h *Handler) handleClick(w http.ResponseWriter, r *http.Request) {
	campaignID, targetID, ok := h.pairParams(w, r)
	if !ok {
		return
	}
	dest, err := h.svc.TrackClick(r.Context(), campaignID, targetID, r.URL.Query().Get("u"))
	if err != nil {
		switch {
		case errors.Is(err, port.ErrInvalidRedirectURL):
			http.Error(w, "invalid link", http.StatusBadRequest)
		case errors.Is(err, port.ErrNotFound):
			http.NotFound(w, r)
		default:
			h.logger.Error("click tracking error", slog.Any("error", err))
			http.NotFound(w, r)
		}
		return
	}
	http.Redirect(w, r, dest, http.StatusFound)
}
