package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"phishsim/internal/core/port"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// handleOpen serves the open-tracking pixel. An unknown pair is a 404, but
// bookkeeping failures are only logged: the image must load for the
// recipient even when recording the open fails.
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	campaignID, targetID, ok := h.pairParams(w, r)
	if !ok {
		return
	}
	if err := h.svc.TrackOpen(r.Context(), campaignID, targetID); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("open tracking error", slog.Any("error", err))
	}
	servePixel(w)
}

func servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}
