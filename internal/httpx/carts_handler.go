package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orderdesk/backoffice/internal/orders"
)

type CartsHandler struct {
	Service *orders.Service
}

type startCartReq struct {
	CustomerID string `json:"customer_id,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
}

type cartLineReq struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

type cartResp struct {
	OrderID    string             `json:"order_id,omitempty"`
	CustomerID string             `json:"customer_id"`
	Lines      []orders.DraftLine `json:"lines"`
	TotalCents int                `json:"total_cents"`
}

func toCartResp(c *orders.DraftCart) cartResp {
	return cartResp{
		OrderID:    c.OrderID,
		CustomerID: c.CustomerID,
		Lines:      c.SortedLines(),
		TotalCents: c.TotalCents(),
	}
}

func (h *CartsHandler) Register(r *chi.Mux) {
	r.Route("/carts/{slot}", func(r chi.Router) {
		r.Post("/", h.startCart)
		r.Get("/", h.getCart)
		r.Delete("/", h.cancelCart)
		r.Post("/lines", h.addLine)
		r.Put("/lines/{itemID}", h.updateLine)
		r.Delete("/lines/{itemID}", h.removeLine)
	})
}

func (h *CartsHandler) slotAndSession(w http.ResponseWriter, r *http.Request) (orders.CartSlot, string, bool) {
	slot, err := orders.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		writeErr(w, err)
		return "", "", false
	}
	sess := sessionID(r)
	if sess == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing X-Session-Id header"})
		return "", "", false
	}
	return slot, sess, true
}

func (h *CartsHandler) startCart(w http.ResponseWriter, r *http.Request) {
	slot, sess, ok := h.slotAndSession(w, r)
	if !ok {
		return
	}
	var req startCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	cart, err := h.Service.StartCart(r.Context(), sess, slot, req.CustomerID, req.OrderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartResp(cart))
}

func (h *CartsHandler) getCart(w http.ResponseWriter, r *http.Request) {
	slot, sess, ok := h.slotAndSession(w, r)
	if !ok {
		return
	}
	cart, err := h.Service.GetCart(r.Context(), sess, slot)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResp(cart))
}

func (h *CartsHandler) cancelCart(w http.ResponseWriter, r *http.Request) {
	slot, sess, ok := h.slotAndSession(w, r)
	if !ok {
		return
	}
	if err := h.Service.CancelCart(r.Context(), sess, slot); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartsHandler) addLine(w http.ResponseWriter, r *http.Request) {
	slot, sess, ok := h.slotAndSession(w, r)
	if !ok {
		return
	}
	var req cartLineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	cart, err := h.Service.AddCartLine(r.Context(), sess, slot, req.ItemID, req.Qty)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResp(cart))
}

func (h *CartsHandler) updateLine(w http.ResponseWriter, r *http.Request) {
	slot, sess, ok := h.slotAndSession(w, r)
	if !ok {
		return
	}
	var req cartLineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	cart, err := h.Service.UpdateCartLine(r.Context(), sess, slot, chi.URLParam(r, "itemID"), req.Qty)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResp(cart))
}

func (h *CartsHandler) removeLine(w http.ResponseWriter, r *http.Request) {
	slot, sess, ok := h.slotAndSession(w, r)
	if !ok {
		return
	}
	cart, err := h.Service.RemoveCartLine(r.Context(), sess, slot, chi.URLParam(r, "itemID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResp(cart))
}
