package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/guadalajara-pos/api/internal/codec"
	"github.com/guadalajara-pos/api/internal/enum"
	"github.com/guadalajara-pos/api/internal/model"
	"github.com/guadalajara-pos/api/internal/service"
)

// OrderReader is the read side of the lifecycle store the handlers need.
// Satisfied by *service.LifecycleStore.
type OrderReader interface {
	Pending() []model.Order
	Completed() []model.Order
	Get(id string) (model.Order, bool)
	Loading(purpose string) bool
	Err(purpose string) error
}

// OrderWriter is the mutation surface. Satisfied by *service.Coordinator.
type OrderWriter interface {
	Submit(ctx context.Context, d service.Draft) (string, error)
	UpdateLines(ctx context.Context, orderID string, lines []model.OrderLine, client model.ClientFields) error
	Complete(ctx context.Context, orderID string) error
}

// OrderHandler exposes the order lifecycle over HTTP. It is read-only
// with respect to the store: every mutation goes through the coordinator
// and becomes visible only via the next snapshot.
type OrderHandler struct {
	reader OrderReader
	writer OrderWriter
}

func NewOrderHandler(reader OrderReader, writer OrderWriter) *OrderHandler {
	return &OrderHandler{reader: reader, writer: writer}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/pending", h.ListPending)
	r.Get("/completed", h.ListCompleted)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Submit)
	r.Patch("/{id}", h.Update)
	r.Post("/{id}/complete", h.Complete)
}

// --- Request / Response types ---

type orderLineRequest struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type submitOrderRequest struct {
	Lines          []orderLineRequest `json:"lines"`
	SurchargePrice string             `json:"surcharge_price"`
	OrderType      string             `json:"order_type"`
	ClientName     string             `json:"client_name"`
	ClientPhone    string             `json:"client_phone"`
	ClientAddress  string             `json:"client_address"`
}

type updateOrderRequest struct {
	Lines         []orderLineRequest `json:"lines"`
	ClientName    string             `json:"client_name"`
	ClientPhone   string             `json:"client_phone"`
	ClientAddress string             `json:"client_address"`
}

type orderLineResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	CreatedAt     time.Time           `json:"created_at"`
	Lines         []orderLineResponse `json:"lines"`
	TotalPrice    string              `json:"total_price"`
	Status        string              `json:"status"`
	OrderType     string              `json:"order_type"`
	ClientName    string              `json:"client_name"`
	ClientPhone   string              `json:"client_phone"`
	ClientAddress string              `json:"client_address"`
}

type orderListResponse struct {
	Orders  []orderResponse `json:"orders"`
	Loading bool            `json:"loading"`
	Error   string          `json:"error,omitempty"`
}

func toOrderResponse(o model.Order) orderResponse {
	lines := make([]orderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = orderLineResponse{
			ID:        l.ID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			LineTotal: l.LineTotal().StringFixed(2),
		}
	}
	return orderResponse{
		ID:            o.ID,
		CreatedAt:     o.CreatedAt,
		Lines:         lines,
		TotalPrice:    o.TotalPrice.StringFixed(2),
		Status:        o.Status,
		OrderType:     o.OrderType,
		ClientName:    o.ClientName,
		ClientPhone:   o.ClientPhone,
		ClientAddress: o.ClientAddress,
	}
}

func toOrderList(orders []model.Order, loading bool, err error) orderListResponse {
	resp := orderListResponse{
		Orders:  make([]orderResponse, len(orders)),
		Loading: loading,
		Error:   errMessage(err),
	}
	for i, o := range orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	return resp
}

func toLines(reqs []orderLineRequest) ([]model.OrderLine, error) {
	lines := make([]model.OrderLine, 0, len(reqs))
	for _, lr := range reqs {
		if lr.Quantity < 0 {
			return nil, errors.New("quantity must be >= 0")
		}
		lines = append(lines, model.OrderLine{
			ID:        lr.ID,
			Name:      lr.Name,
			Quantity:  lr.Quantity,
			UnitPrice: codec.SafeDecimal(lr.UnitPrice),
		})
	}
	return lines, nil
}

func isValidOrderType(s string) bool {
	switch s {
	case enum.OrderTypeDineIn, enum.OrderTypeDelivery, enum.OrderTypeTakeaway:
		return true
	}
	return false
}

// --- Handlers ---

// ListPending returns the pending orders in delivered (newest first)
// order, with the purpose's loading/error flags.
func (h *OrderHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toOrderList(
		h.reader.Pending(),
		h.reader.Loading(enum.PurposePendingOrders),
		h.reader.Err(enum.PurposePendingOrders),
	))
}

// ListCompleted returns the completed orders.
func (h *OrderHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toOrderList(
		h.reader.Completed(),
		h.reader.Loading(enum.PurposeCompletedOrders),
		h.reader.Err(enum.PurposeCompletedOrders),
	))
}

// Get returns a single order from the local view.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.reader.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Submit captures a new order. The response carries only the remote id:
// the order itself will show up in the pending list with the next
// snapshot delivery.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	orderType := req.OrderType
	if orderType == "" {
		orderType = enum.OrderTypeDineIn
	}
	if !isValidOrderType(orderType) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_type"})
		return
	}

	lines, err := toLines(req.Lines)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	id, err := h.writer.Submit(r.Context(), service.Draft{
		Lines:          lines,
		SurchargePrice: req.SurchargePrice,
		OrderType:      orderType,
		Client: model.ClientFields{
			Name:    req.ClientName,
			Phone:   req.ClientPhone,
			Address: req.ClientAddress,
		},
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyOrder) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order has no billable items"})
			return
		}
		log.Printf("ERROR: submit order: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Update replaces an order's lines and client fields while it is
// pending.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines, err := toLines(req.Lines)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	err = h.writer.UpdateLines(r.Context(), chi.URLParam(r, "id"), lines, model.ClientFields{
		Name:    req.ClientName,
		Phone:   req.ClientPhone,
		Address: req.ClientAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrOrderNotPending):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order is not pending"})
		default:
			log.Printf("ERROR: update order: %v", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Complete marks an order completed. Safe to repeat.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	err := h.writer.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: complete order: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
