package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"

	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/enum"
	"github.com/elfogon/api/internal/middleware"
	"github.com/elfogon/api/internal/service"
	"github.com/elfogon/api/internal/timerange"
	"github.com/elfogon/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Advance(ctx context.Context, req service.AdvanceRequest) (database.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actorRole string, confirmed bool) (database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrdersBetween(ctx context.Context, arg database.ListOrdersBetweenParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetTercero(ctx context.Context, id uuid.UUID) (database.Tercero, error)
}

// OrderHandler handles staff-facing order endpoints.
type OrderHandler struct {
	svc      OrderServicer
	store    OrderStore
	notifier Notifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, notifier Notifier) *OrderHandler {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &OrderHandler{svc: svc, store: store, notifier: notifier}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/kanban", h.Kanban)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
	r.Delete("/orders/{id}", h.Cancel)
}

// --- Request / Response types ---

type orderResponse struct {
	ID               uuid.UUID  `json:"id"`
	SequenceNumber   int        `json:"sequence_number,omitempty"`
	CustomerID       uuid.UUID  `json:"customer_id"`
	CustomerName     string     `json:"customer_name,omitempty"`
	ResponsibleID    *uuid.UUID `json:"responsible_id"`
	Status           string     `json:"status"`
	PaymentMethod    *string    `json:"payment_method"`
	PaymentReference *string    `json:"payment_reference"`
	TotalAmount      string     `json:"total_amount"`
	Notes            *string    `json:"notes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Notes     *string   `json:"notes"`
}

// orderDetailResponse extends orderResponse with line items.
type orderDetailResponse struct {
	orderResponse
	Items []orderItemResponse `json:"items"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// kanbanResponse groups a trading day's orders into one column per
// status. Sequence numbers restart at 1 each trading day and follow
// creation order across all columns.
type kanbanResponse struct {
	Date    string                     `json:"date"`
	Columns map[string][]orderResponse `json:"columns"`
}

type updateStatusRequest struct {
	Status           string `json:"status"`
	PaymentMethod    string `json:"payment_method"`
	PaymentReference string `json:"payment_reference"`
}

type cancelRequest struct {
	Confirm bool `json:"confirm"`
}

// --- Handlers ---

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	// Parse pagination
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	// Build query params with optional filters
	params := database.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		if !service.IsValidStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("responsible_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid responsible_id"})
			return
		}
		params.ResponsibleID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, timerange.Location)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, timerange.Location)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		// End date is inclusive: extend to the following midnight.
		params.EndDate = pgtype.Timestamptz{Time: t.AddDate(0, 0, 1), Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		logrus.WithError(err).Error("list orders")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Kanban handles GET /orders/kanban. It returns the current trading
// day's orders as one column per status, numbered 1..N in creation
// order. Numbers are display-only and recomputed on every read.
func (h *OrderHandler) Kanban(w http.ResponseWriter, r *http.Request) {
	day := timerange.TradingDay(time.Now().In(timerange.Location))
	start, end := day.Bounds()

	orders, err := h.store.ListOrdersBetween(r.Context(), database.ListOrdersBetweenParams{
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		logrus.WithError(err).Error("list orders for kanban")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	columns := make(map[string][]orderResponse, len(service.Pipeline())+1)
	for _, status := range service.Pipeline() {
		columns[status] = []orderResponse{}
	}
	columns[enum.OrderStatusCancelled] = []orderResponse{}

	// Orders arrive in ascending creation order; the index is the
	// day's sequence number.
	for i, o := range orders {
		resp := dbOrderToResponse(o)
		resp.SequenceNumber = i + 1
		if tercero, err := h.store.GetTercero(r.Context(), o.CustomerID); err == nil {
			resp.CustomerName = tercero.FullName
		}
		columns[o.Status] = append(columns[o.Status], resp)
	}

	writeJSON(w, http.StatusOK, kanbanResponse{
		Date:    start.Format("2006-01-02"),
		Columns: columns,
	})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		logrus.WithError(err).Error("get order")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		logrus.WithError(err).Error("list order items")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderDetailResponse{
		orderResponse: dbOrderToResponse(order),
		Items:         make([]orderItemResponse, len(items)),
	}
	if tercero, err := h.store.GetTercero(r.Context(), order.CustomerID); err == nil {
		resp.CustomerName = tercero.FullName
	}
	for i, item := range items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /orders/{id}/status. Moving an order into
// QUEUED additionally requires the payment fields; the acting staff
// member becomes the order's responsible.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	updated, err := h.svc.Advance(r.Context(), service.AdvanceRequest{
		OrderID:          orderID,
		Target:           req.Status,
		ActorID:          claims.StaffID,
		ActorRole:        claims.Role,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		h.writeAdvanceError(w, err)
		return
	}

	h.notifier.Broadcast(ws.TopicOrders, ws.EventOrderStatusChanged, map[string]any{
		"order_id": updated.ID,
		"status":   updated.Status,
	})

	writeJSON(w, http.StatusOK, dbOrderToResponse(updated))
}

// Cancel handles DELETE /orders/{id}. Cancellation is only possible
// while the order awaits confirmation, and the caller must send an
// explicit confirm flag.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cancelled, err := h.svc.Cancel(r.Context(), orderID, claims.Role, req.Confirm)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConfirmRequired):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cancellation must be confirmed"})
		case errors.Is(err, service.ErrRoleNotAllowed):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "role may not cancel orders"})
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrCancelNotAllowed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order can no longer be cancelled"})
		default:
			logrus.WithError(err).Error("cancel order")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notifier.Broadcast(ws.TopicOrders, ws.EventOrderCancelled, map[string]any{
		"order_id": cancelled.ID,
	})

	writeJSON(w, http.StatusOK, dbOrderToResponse(cancelled))
}

// --- Helpers ---

func (h *OrderHandler) writeAdvanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPaymentRequired),
		errors.Is(err, service.ErrInvalidPaymentMethod):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrRoleNotAllowed):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrOrderFinal):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrStatusChanged):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
	default:
		logrus.WithError(err).Error("update order status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// dbOrderToResponse converts a database.Order to an orderResponse.
func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		TotalAmount: numericToString(o.TotalAmount),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.ResponsibleID.Valid {
		id := uuid.UUID(o.ResponsibleID.Bytes)
		resp.ResponsibleID = &id
	}
	if o.PaymentMethod.Valid {
		resp.PaymentMethod = &o.PaymentMethod.String
	}
	if o.PaymentReference.Valid {
		resp.PaymentReference = &o.PaymentReference.String
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	return resp
}

func dbOrderItemToResponse(item database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: numericToString(item.UnitPrice),
	}
	if item.Notes.Valid {
		resp.Notes = &item.Notes.String
	}
	return resp
}
