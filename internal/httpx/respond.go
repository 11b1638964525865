package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/orderdesk/backoffice/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the domain error taxonomy onto HTTP statuses. Insufficient
// stock carries the item detail so the UI can send the user to a "not
// enough stock" resolution screen.
func writeErr(w http.ResponseWriter, err error) {
	var stockErr *orders.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "insufficient stock",
			"item_id":   stockErr.ItemID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func sessionID(r *http.Request) string {
	return r.Header.Get("X-Session-Id")
}
