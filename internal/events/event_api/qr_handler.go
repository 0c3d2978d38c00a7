package event_api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"ms-events/internal/events/service"
)

// EventShareQR answers a PNG QR code pointing at the public event page, so
// the frontend can offer a scannable share link.
func (h *Handler) EventShareQR(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	// The event must exist before handing out a link to it.
	if _, err := h.EventService.GetByID(r.Context(), eventID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		h.logError(fmt.Sprintf("EventShareQR: %v", err))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch event")
		return
	}

	shareURL := fmt.Sprintf("%s/events/%s", strings.TrimRight(h.PublicBaseURL, "/"), eventID)
	png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		h.logError(fmt.Sprintf("EventShareQR: failed to encode QR: %v", err))
		h.writeError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logError(fmt.Sprintf("EventShareQR: failed to write PNG: %v", err))
	}
}
