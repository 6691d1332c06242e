package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// currentPriceJoin resolves the versioned price that is active "now":
// the row with the greatest activated_at that is not in the future.
const currentPriceJoin = `
LEFT JOIN LATERAL (
	SELECT pp.price
	FROM product_prices pp
	WHERE pp.product_id = p.id AND pp.activated_at <= now()
	ORDER BY pp.activated_at DESC
	LIMIT 1
) cp ON true
`

const listProducts = `
SELECT p.id, p.category_id, p.name, p.description, p.image_url, p.is_active,
       p.created_at, p.updated_at, cp.price, c.name
FROM products p
JOIN categories c ON c.id = p.category_id
` + currentPriceJoin + `
ORDER BY c.sort_order, p.name
`

// ListProductsRow is a product denormalized with its current price and
// category name.
type ListProductsRow struct {
	Product
	CurrentPrice pgtype.Numeric
	CategoryName string
}

func (q *Queries) ListProducts(ctx context.Context) ([]ListProductsRow, error) {
	rows, err := q.db.Query(ctx, listProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductRows(rows)
}

const listActiveProducts = `
SELECT p.id, p.category_id, p.name, p.description, p.image_url, p.is_active,
       p.created_at, p.updated_at, cp.price, c.name
FROM products p
JOIN categories c ON c.id = p.category_id
` + currentPriceJoin + `
WHERE p.is_active = true AND c.is_active = true
ORDER BY c.sort_order, p.name
`

func (q *Queries) ListActiveProducts(ctx context.Context) ([]ListProductsRow, error) {
	rows, err := q.db.Query(ctx, listActiveProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductRows(rows)
}

const getProduct = `
SELECT p.id, p.category_id, p.name, p.description, p.image_url, p.is_active,
       p.created_at, p.updated_at, cp.price, c.name
FROM products p
JOIN categories c ON c.id = p.category_id
` + currentPriceJoin + `
WHERE p.id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (ListProductsRow, error) {
	row := q.db.QueryRow(ctx, getProduct, id)
	var r ListProductsRow
	err := row.Scan(&r.ID, &r.CategoryID, &r.Name, &r.Description, &r.ImageURL,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt, &r.CurrentPrice, &r.CategoryName)
	return r, err
}

const getCurrentPrice = `
SELECT pp.price
FROM product_prices pp
JOIN products p ON p.id = pp.product_id
WHERE pp.product_id = $1 AND p.is_active = true AND pp.activated_at <= now()
ORDER BY pp.activated_at DESC
LIMIT 1
`

// GetCurrentPrice returns the active price of an active product.
// pgx.ErrNoRows means the product is missing, inactive, or unpriced.
func (q *Queries) GetCurrentPrice(ctx context.Context, productID uuid.UUID) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, getCurrentPrice, productID)
	var price pgtype.Numeric
	err := row.Scan(&price)
	return price, err
}

const createProduct = `
INSERT INTO products (category_id, name, description, image_url)
VALUES ($1, $2, $3, $4)
RETURNING id, category_id, name, description, image_url, is_active, created_at, updated_at
`

type CreateProductParams struct {
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	ImageURL    pgtype.Text
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, createProduct, arg.CategoryID, arg.Name, arg.Description, arg.ImageURL)
	return scanProduct(row)
}

const updateProduct = `
UPDATE products
SET category_id = $2, name = $3, description = $4, image_url = $5, updated_at = now()
WHERE id = $1
RETURNING id, category_id, name, description, image_url, is_active, created_at, updated_at
`

type UpdateProductParams struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	ImageURL    pgtype.Text
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, updateProduct, arg.ID, arg.CategoryID, arg.Name, arg.Description, arg.ImageURL)
	return scanProduct(row)
}

const setProductActive = `
UPDATE products
SET is_active = $2, updated_at = now()
WHERE id = $1
RETURNING id, category_id, name, description, image_url, is_active, created_at, updated_at
`

type SetProductActiveParams struct {
	ID       uuid.UUID
	IsActive bool
}

func (q *Queries) SetProductActive(ctx context.Context, arg SetProductActiveParams) (Product, error) {
	row := q.db.QueryRow(ctx, setProductActive, arg.ID, arg.IsActive)
	return scanProduct(row)
}

const createProductPrice = `
INSERT INTO product_prices (product_id, price, activated_at)
VALUES ($1, $2, $3)
RETURNING id, product_id, price, activated_at
`

type CreateProductPriceParams struct {
	ProductID   uuid.UUID
	Price       pgtype.Numeric
	ActivatedAt pgtype.Timestamptz
}

// CreateProductPrice appends a price version. Existing orders keep their
// unit-price snapshots; only future reads of "current price" change.
func (q *Queries) CreateProductPrice(ctx context.Context, arg CreateProductPriceParams) (ProductPrice, error) {
	row := q.db.QueryRow(ctx, createProductPrice, arg.ProductID, arg.Price, arg.ActivatedAt)
	var pp ProductPrice
	err := row.Scan(&pp.ID, &pp.ProductID, &pp.Price, &pp.ActivatedAt)
	return pp, err
}

const listProductPrices = `
SELECT id, product_id, price, activated_at
FROM product_prices
WHERE product_id = $1
ORDER BY activated_at DESC
`

func (q *Queries) ListProductPrices(ctx context.Context, productID uuid.UUID) ([]ProductPrice, error) {
	rows, err := q.db.Query(ctx, listProductPrices, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProductPrice
	for rows.Next() {
		var pp ProductPrice
		if err := rows.Scan(&pp.ID, &pp.ProductID, &pp.Price, &pp.ActivatedAt); err != nil {
			return nil, err
		}
		items = append(items, pp)
	}
	return items, rows.Err()
}

func scanProduct(row interface{ Scan(...interface{}) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.ImageURL,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanProductRows(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]ListProductsRow, error) {
	var items []ListProductsRow
	for rows.Next() {
		var r ListProductsRow
		if err := rows.Scan(&r.ID, &r.CategoryID, &r.Name, &r.Description, &r.ImageURL,
			&r.IsActive, &r.CreatedAt, &r.UpdatedAt, &r.CurrentPrice, &r.CategoryName); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
