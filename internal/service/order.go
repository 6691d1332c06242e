package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidProductID     = errors.New("invalid product_id")
	ErrProductNotFound      = errors.New("product not found or inactive")
	ErrCustomerName         = errors.New("customer_name is required")
	ErrPaymentRequired      = errors.New("payment_method is required when confirming an order")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrOrderNotFound        = errors.New("order not found")
	ErrStatusChanged        = errors.New("order status changed, please retry")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	CreateTercero(ctx context.Context, arg database.CreateTerceroParams) (database.Tercero, error)
	GetCurrentPrice(ctx context.Context, productID uuid.UUID) (pgtype.Numeric, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CaptureOrderPayment(ctx context.Context, arg database.CaptureOrderPaymentParams) (database.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService handles checkout and order lifecycle logic.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService. store is the pool-backed
// query set; newStore builds a store bound to a transaction.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

// --- Checkout ---

// CheckoutRequest is the validated input for a public checkout.
type CheckoutRequest struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Notes         string
	Items         []CheckoutItem
}

// CheckoutItem is a single line of the checkout cart.
type CheckoutItem struct {
	ProductID string
	Quantity  int32
	Notes     string
}

// CheckoutResult is the created order with its customer and line items.
type CheckoutResult struct {
	Customer database.Tercero
	Order    database.Order
	Items    []database.OrderItem
}

// Checkout creates the customer record and the order with its line items
// in one transaction. Unit prices are snapshots of the product's current
// price; the order total is the sum of quantity times unit price.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, ErrCustomerName
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	type pricedItem struct {
		productID uuid.UUID
		quantity  int32
		unitPrice decimal.Decimal
		notes     string
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Price items and compute the total ---
	total := decimal.Zero
	var items []pricedItem
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidProductID)
		}
		price, err := store.GetCurrentPrice(ctx, productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrProductNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get current price: %w", i, err)
		}
		unitPrice := numericToDecimal(price)
		total = total.Add(unitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
		items = append(items, pricedItem{
			productID: productID,
			quantity:  item.Quantity,
			unitPrice: unitPrice,
			notes:     item.Notes,
		})
	}

	// --- Create customer tercero ---
	email := pgtype.Text{}
	if req.CustomerEmail != "" {
		email = pgtype.Text{String: req.CustomerEmail, Valid: true}
	}
	phone := pgtype.Text{}
	if req.CustomerPhone != "" {
		phone = pgtype.Text{String: req.CustomerPhone, Valid: true}
	}
	customer, err := store.CreateTercero(ctx, database.CreateTerceroParams{
		FullName: strings.TrimSpace(req.CustomerName),
		Email:    email,
		Phone:    phone,
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	// --- Create order ---
	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CustomerID:  customer.ID,
		TotalAmount: decimalToNumeric(total),
		Notes:       notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Create line items ---
	var created []database.OrderItem
	for _, pi := range items {
		itemNotes := pgtype.Text{}
		if pi.notes != "" {
			itemNotes = pgtype.Text{String: pi.notes, Valid: true}
		}
		it, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			ProductID: pi.productID,
			Quantity:  pi.quantity,
			UnitPrice: decimalToNumeric(pi.unitPrice),
			Notes:     itemNotes,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CheckoutResult{Customer: customer, Order: order, Items: created}, nil
}

// --- Status transitions ---

// AdvanceRequest moves an order one step forward in the pipeline.
// Payment fields are only consulted when the target status is QUEUED.
type AdvanceRequest struct {
	OrderID          uuid.UUID
	Target           string
	ActorID          uuid.UUID
	ActorRole        string
	PaymentMethod    string
	PaymentReference string
}

// Advance validates and persists a forward status transition. The order
// row is locked for the duration of the transaction and the status write
// is conditional on the status that was read, so a concurrent double
// submission loses with ErrStatusChanged instead of applying twice.
func (s *OrderService) Advance(ctx context.Context, req AdvanceRequest) (database.Order, error) {
	if !IsValidStatus(req.Target) {
		return database.Order{}, fmt.Errorf("%w: %q", ErrIllegalTransition, req.Target)
	}

	var method string
	if req.Target == enum.OrderStatusQueued {
		if req.PaymentMethod == "" {
			return database.Order{}, ErrPaymentRequired
		}
		method = NormalizeMethod(req.PaymentMethod)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if err := ValidateAdvance(order.Status, req.Target, req.ActorRole); err != nil {
		return database.Order{}, err
	}

	var updated database.Order
	if req.Target == enum.OrderStatusQueued {
		reference := pgtype.Text{}
		if req.PaymentReference != "" {
			reference = pgtype.Text{String: req.PaymentReference, Valid: true}
		}
		updated, err = store.CaptureOrderPayment(ctx, database.CaptureOrderPaymentParams{
			ID:               req.OrderID,
			Status:           req.Target,
			PaymentMethod:    pgtype.Text{String: method, Valid: true},
			PaymentReference: reference,
			ResponsibleID:    pgtype.UUID{Bytes: req.ActorID, Valid: true},
			PrevStatus:       order.Status,
		})
	} else {
		updated, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:         req.OrderID,
			Status:     req.Target,
			PrevStatus: order.Status,
		})
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusChanged
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	return updated, nil
}

// Cancel applies the cancellation side exit. The conditional UPDATE
// enforces the awaiting-confirmation precondition atomically; on zero
// rows the current status is fetched to report the right error.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, actorRole string, confirmed bool) (database.Order, error) {
	if !confirmed {
		return database.Order{}, ErrConfirmRequired
	}
	if !roleMayActOn(actorRole, enum.OrderStatusAwaitingConfirmation) {
		return database.Order{}, fmt.Errorf("%w: %s", ErrRoleNotAllowed, actorRole)
	}

	cancelled, err := s.store.CancelOrder(ctx, orderID)
	if err == nil {
		return cancelled, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("cancel order: %w", err)
	}

	current, fetchErr := s.store.GetOrder(ctx, orderID)
	if fetchErr != nil {
		if errors.Is(fetchErr, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", fetchErr)
	}
	return database.Order{}, fmt.Errorf("%w: status is %s", ErrCancelNotAllowed, current.Status)
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
