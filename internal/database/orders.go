package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, customer_id, responsible_id, status, payment_method,
payment_reference, total_amount, notes, created_at, updated_at`

const createOrder = `
INSERT INTO orders (customer_id, total_amount, notes)
VALUES ($1, $2, $3)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	CustomerID  uuid.UUID
	TotalAmount pgtype.Numeric
	Notes       pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder, arg.CustomerID, arg.TotalAmount, arg.Notes)
	return scanOrder(row)
}

const createOrderItem = `
INSERT INTO order_items (order_id, product_id, quantity, unit_price, notes)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, product_id, quantity, unit_price, notes
`

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Notes     pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.ProductID, arg.Quantity, arg.UnitPrice, arg.Notes)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Notes)
	return it, err
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	return scanOrder(row)
}

const getOrderForUpdate = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
FOR NO KEY UPDATE
`

// GetOrderForUpdate locks the order row to serialize concurrent
// transition attempts within a transaction.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	return scanOrder(row)
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)
  AND ($4::uuid IS NULL OR responsible_id = $4)
ORDER BY created_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	Status        pgtype.Text
	StartDate     pgtype.Timestamptz
	EndDate       pgtype.Timestamptz
	ResponsibleID pgtype.UUID
	Limit         int32
	Offset        int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status, arg.StartDate, arg.EndDate, arg.ResponsibleID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

const listOrdersBetween = `
SELECT ` + orderColumns + `
FROM orders
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at ASC
`

type ListOrdersBetweenParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

// ListOrdersBetween returns a trading day's orders in ascending creation
// order, which is also the order the per-day sequence numbers follow.
func (q *Queries) ListOrdersBetween(ctx context.Context, arg ListOrdersBetweenParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersBetween, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

const listOrderItemsByOrder = `
SELECT id, order_id, product_id, quantity, unit_price, notes
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Notes); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	PrevStatus string
}

// UpdateOrderStatus transitions an order only if it is still in the
// status the caller read. Zero rows back means a concurrent writer won.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.PrevStatus)
	return scanOrder(row)
}

const captureOrderPayment = `
UPDATE orders
SET status = $2, payment_method = $3, payment_reference = $4,
    responsible_id = $5, updated_at = now()
WHERE id = $1 AND status = $6
RETURNING ` + orderColumns

type CaptureOrderPaymentParams struct {
	ID               uuid.UUID
	Status           string
	PaymentMethod    pgtype.Text
	PaymentReference pgtype.Text
	ResponsibleID    pgtype.UUID
	PrevStatus       string
}

// CaptureOrderPayment performs the QUEUED transition: the status change
// plus the payment capture fields in one conditional write.
func (q *Queries) CaptureOrderPayment(ctx context.Context, arg CaptureOrderPaymentParams) (Order, error) {
	row := q.db.QueryRow(ctx, captureOrderPayment,
		arg.ID, arg.Status, arg.PaymentMethod, arg.PaymentReference, arg.ResponsibleID, arg.PrevStatus)
	return scanOrder(row)
}

const cancelOrder = `
UPDATE orders
SET status = 'CANCELLED', updated_at = now()
WHERE id = $1 AND status = 'AWAITING_CONFIRMATION'
RETURNING ` + orderColumns

// CancelOrder enforces the precondition atomically: only orders still
// awaiting confirmation can be cancelled.
func (q *Queries) CancelOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, cancelOrder, id)
	return scanOrder(row)
}

const sumSalesByResponsible = `
SELECT payment_method, COALESCE(SUM(total_amount), 0)
FROM orders
WHERE responsible_id = $1
  AND status <> 'CANCELLED'
  AND payment_method IS NOT NULL
  AND created_at >= $2 AND created_at < $3
GROUP BY payment_method
`

type SumSalesByResponsibleParams struct {
	ResponsibleID uuid.UUID
	StartDate     pgtype.Timestamptz
	EndDate       pgtype.Timestamptz
}

type SumSalesByResponsibleRow struct {
	PaymentMethod string
	Total         pgtype.Numeric
}

func (q *Queries) SumSalesByResponsible(ctx context.Context, arg SumSalesByResponsibleParams) ([]SumSalesByResponsibleRow, error) {
	rows, err := q.db.Query(ctx, sumSalesByResponsible, arg.ResponsibleID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SumSalesByResponsibleRow
	for rows.Next() {
		var r SumSalesByResponsibleRow
		if err := rows.Scan(&r.PaymentMethod, &r.Total); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getSalesSummary = `
SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
FROM orders
WHERE status <> 'CANCELLED'
  AND created_at >= $1 AND created_at < $2
`

type GetSalesSummaryParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetSalesSummaryRow struct {
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetSalesSummary(ctx context.Context, arg GetSalesSummaryParams) (GetSalesSummaryRow, error) {
	row := q.db.QueryRow(ctx, getSalesSummary, arg.StartDate, arg.EndDate)
	var r GetSalesSummaryRow
	err := row.Scan(&r.OrderCount, &r.TotalRevenue)
	return r, err
}

const getPaymentSummary = `
SELECT COALESCE(payment_method, 'TRANSFER'), COUNT(*), COALESCE(SUM(total_amount), 0)
FROM orders
WHERE status <> 'CANCELLED'
  AND created_at >= $1 AND created_at < $2
GROUP BY 1
ORDER BY 1
`

type GetPaymentSummaryParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetPaymentSummaryRow struct {
	PaymentMethod string
	OrderCount    int64
	TotalAmount   pgtype.Numeric
}

func (q *Queries) GetPaymentSummary(ctx context.Context, arg GetPaymentSummaryParams) ([]GetPaymentSummaryRow, error) {
	rows, err := q.db.Query(ctx, getPaymentSummary, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetPaymentSummaryRow
	for rows.Next() {
		var r GetPaymentSummaryRow
		if err := rows.Scan(&r.PaymentMethod, &r.OrderCount, &r.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.ResponsibleID, &o.Status,
		&o.PaymentMethod, &o.PaymentReference, &o.TotalAmount, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scanOrders(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]Order, error) {
	var items []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.ResponsibleID, &o.Status,
			&o.PaymentMethod, &o.PaymentReference, &o.TotalAmount, &o.Notes,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
