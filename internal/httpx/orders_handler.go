package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/orderdesk/backoffice/internal/orders"
	"github.com/orderdesk/backoffice/internal/redisx"
)

type OrdersHandler struct {
	Service  *orders.Service
	Repo     *orders.Repo
	Turnover *orders.TurnoverRepo
	Redis    *redis.Client
}

type orderLineResp struct {
	ItemID        string `json:"item_id"`
	Qty           int    `json:"qty"`
	PriceCents    int    `json:"price_cents"`
	SubtotalCents int    `json:"subtotal_cents"`
}

type orderResp struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	State      orders.State    `json:"state"`
	TotalCents int             `json:"total_cents"`
	Lines      []orderLineResp `json:"lines"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func toOrderResp(o *orders.Order) orderResp {
	resp := orderResp{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		State:      orders.StateOf(o),
		TotalCents: o.TotalCents,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, orderLineResp{
			ItemID:        l.ItemID,
			Qty:           l.Qty,
			PriceCents:    l.PriceCents,
			SubtotalCents: l.SubtotalCents(),
		})
	}
	return resp
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Route("/orders/{id}", func(r chi.Router) {
		r.Get("/", h.getOrder)
		r.Put("/", h.editOrder)
		r.Delete("/", h.deleteOrder)
		r.Post("/complete", h.completeOrder)
		r.Post("/incomplete", h.incompleteOrder)
		r.Post("/archive", h.archiveOrder)
	})
	r.Get("/items", h.listItems)
	r.Get("/items/{id}/availability", h.itemAvailability)
	r.Get("/turnover/customers", h.turnoverByCustomer)
	r.Get("/turnover/items", h.turnoverByItem)
	r.Get("/turnover/suppliers", h.turnoverBySupplier)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	sess := sessionID(r)
	if sess == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing X-Session-Id header"})
		return
	}
	o, err := h.Service.CreateOrder(r.Context(), sess)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResp(o))
}

func (h *OrdersHandler) editOrder(w http.ResponseWriter, r *http.Request) {
	sess := sessionID(r)
	if sess == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing X-Session-Id header"})
		return
	}
	o, err := h.Service.EditOrder(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	h.dropSnapshot(r, o.ID)
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	// snapshot cache first, DB is the source of truth
	key := fmt.Sprintf(redisx.KeyOrderSnapshot, orderID)
	if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	o, err := h.Service.GetOrder(r.Context(), orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := toOrderResp(o)
	if b, err := json.Marshal(resp); err == nil {
		_ = h.Redis.Set(r.Context(), key, b, redisx.TTLSnapshot).Err()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrdersHandler) completeOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.CompleteOrder)
}

func (h *OrdersHandler) incompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.IncompleteOrder)
}

func (h *OrdersHandler) archiveOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.ArchiveOrder)
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (*orders.Order, error)) {
	orderID := chi.URLParam(r, "id")
	o, err := op(r.Context(), orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.dropSnapshot(r, orderID)
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if err := h.Service.DeleteOrder(r.Context(), orderID); err != nil {
		writeErr(w, err)
		return
	}
	h.dropSnapshot(r, orderID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) dropSnapshot(r *http.Request, orderID string) {
	key := fmt.Sprintf(redisx.KeyOrderSnapshot, orderID)
	_ = h.Redis.Del(r.Context(), key).Err()
}

func (h *OrdersHandler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.ListItems(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// itemAvailability is the user-facing pre-check; the authoritative check
// runs under a row lock inside the commit transaction.
func (h *OrdersHandler) itemAvailability(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	qty, err := strconv.Atoi(r.URL.Query().Get("qty"))
	if err != nil || qty <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "qty must be a positive integer"})
		return
	}
	ok, err := h.Repo.Available(r.Context(), itemID, qty)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item_id": itemID, "qty": qty, "available": ok})
}

func (h *OrdersHandler) turnoverByCustomer(w http.ResponseWriter, r *http.Request) {
	h.turnover(w, r, h.Turnover.ByCustomer)
}

func (h *OrdersHandler) turnoverByItem(w http.ResponseWriter, r *http.Request) {
	h.turnover(w, r, h.Turnover.ByItem)
}

func (h *OrdersHandler) turnoverBySupplier(w http.ResponseWriter, r *http.Request) {
	h.turnover(w, r, h.Turnover.BySupplier)
}

func (h *OrdersHandler) turnover(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, q orders.TurnoverQuery) ([]orders.TurnoverRow, error)) {
	q, err := parseTurnoverQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rows, err := fn(r.Context(), q)
	if err != nil {
		writeErr(w, err)
		return
	}
	if rows == nil {
		rows = []orders.TurnoverRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func parseTurnoverQuery(r *http.Request) (orders.TurnoverQuery, error) {
	q := orders.TurnoverQuery{Filter: r.URL.Query().Get("q")}
	var err error
	if from := r.URL.Query().Get("from"); from != "" {
		if q.From, err = time.Parse(time.RFC3339, from); err != nil {
			return q, fmt.Errorf("invalid from: %v", err)
		}
	}
	to := r.URL.Query().Get("to")
	if to == "" {
		q.To = time.Now().UTC()
	} else if q.To, err = time.Parse(time.RFC3339, to); err != nil {
		return q, fmt.Errorf("invalid to: %v", err)
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if q.Limit, err = strconv.Atoi(limit); err != nil {
			return q, fmt.Errorf("invalid limit: %v", err)
		}
	}
	return q, nil
}
