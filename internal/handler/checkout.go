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
	"github.com/sirupsen/logrus"

	"github.com/elfogon/api/internal/service"
	"github.com/elfogon/api/internal/ws"
)

// CheckoutServicer defines the service methods needed by the checkout handler.
// Satisfied by *service.OrderService; narrow interface for testability.
type CheckoutServicer interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// CheckoutHandler handles the public self-service checkout.
type CheckoutHandler struct {
	svc      CheckoutServicer
	notifier Notifier
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(svc CheckoutServicer, notifier Notifier) *CheckoutHandler {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &CheckoutHandler{svc: svc, notifier: notifier}
}

// RegisterRoutes registers checkout endpoints on the given Chi router.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
}

// --- Request / Response types ---

type checkoutRequest struct {
	CustomerName  string                `json:"customer_name"`
	CustomerPhone string                `json:"customer_phone"`
	CustomerEmail string                `json:"customer_email"`
	Notes         string                `json:"notes"`
	Items         []checkoutItemRequest `json:"items"`
}

type checkoutItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	Notes     string `json:"notes"`
}

type checkoutResponse struct {
	OrderID      uuid.UUID              `json:"order_id"`
	CustomerID   uuid.UUID              `json:"customer_id"`
	CustomerName string                 `json:"customer_name"`
	Status       string                 `json:"status"`
	TotalAmount  string                 `json:"total_amount"`
	CreatedAt    time.Time              `json:"created_at"`
	Items        []checkoutItemResponse `json:"items"`
}

type checkoutItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
}

// --- Handlers ---

// Checkout handles POST /checkout. No authentication: this is the
// customer-facing entry point. The created order enters the pipeline
// in AWAITING_CONFIRMATION.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.CustomerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_name is required"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}
	for i, item := range req.Items {
		if item.ProductID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "product_id is required"),
			})
			return
		}
		if item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "quantity must be > 0"),
			})
			return
		}
	}

	svcItems := make([]service.CheckoutItem, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.CheckoutItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		}
	}

	result, err := h.svc.Checkout(r.Context(), service.CheckoutRequest{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Notes:         req.Notes,
		Items:         svcItems,
	})
	if err != nil {
		if isCheckoutValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		logrus.WithError(err).Error("checkout")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := checkoutResponse{
		OrderID:      result.Order.ID,
		CustomerID:   result.Customer.ID,
		CustomerName: result.Customer.FullName,
		Status:       result.Order.Status,
		TotalAmount:  numericToString(result.Order.TotalAmount),
		CreatedAt:    result.Order.CreatedAt,
		Items:        make([]checkoutItemResponse, len(result.Items)),
	}
	for i, item := range result.Items {
		resp.Items[i] = checkoutItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: numericToString(item.UnitPrice),
		}
	}

	h.notifier.Broadcast(ws.TopicOrders, ws.EventOrderCreated, map[string]any{
		"order_id":      result.Order.ID,
		"customer_name": result.Customer.FullName,
		"status":        result.Order.Status,
		"total_amount":  resp.TotalAmount,
	})

	writeJSON(w, http.StatusCreated, resp)
}

// --- Helpers ---

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

// isCheckoutValidationError checks if the error is a known validation
// error from the service layer that should result in 400 Bad Request.
func isCheckoutValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidProductID) ||
		errors.Is(err, service.ErrProductNotFound) ||
		errors.Is(err, service.ErrCustomerName)
}
