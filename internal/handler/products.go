package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/elfogon/api/internal/database"
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]database.ListProductsRow, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.ListProductsRow, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	SetProductActive(ctx context.Context, arg database.SetProductActiveParams) (database.Product, error)
	CreateProductPrice(ctx context.Context, arg database.CreateProductPriceParams) (database.ProductPrice, error)
	ListProductPrices(ctx context.Context, productID uuid.UUID) ([]database.ProductPrice, error)
}

// ProductHandler handles product admin endpoints.
type ProductHandler struct {
	store ProductStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// RegisterRoutes registers product endpoints on the given Chi router.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Post("/products", h.Create)
	r.Get("/products/{id}", h.Get)
	r.Put("/products/{id}", h.Update)
	r.Patch("/products/{id}/active", h.SetActive)
	r.Get("/products/{id}/prices", h.ListPrices)
	r.Post("/products/{id}/prices", h.CreatePrice)
}

// --- Request / Response types ---

type productRequest struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

type createPriceRequest struct {
	Price       string `json:"price"`
	ActivatedAt string `json:"activated_at"`
}

type productResponse struct {
	ID           uuid.UUID `json:"id"`
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	ImageURL     *string   `json:"image_url"`
	CurrentPrice *string   `json:"current_price"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type productPriceResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	Price       string    `json:"price"`
	ActivatedAt time.Time `json:"activated_at"`
}

// --- Handlers ---

// List handles GET /products. Inactive products are included; this is
// the admin view, not the menu.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		logrus.WithError(err).Error("list products")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = productRowToResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		logrus.WithError(err).Error("get product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, productRowToResponse(product))
}

// Create handles POST /products. The product starts without a price;
// it stays off the menu until a price version is activated.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
		return
	}

	product, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: textOrNull(req.Description),
		ImageURL:    textOrNull(req.ImageURL),
	})
	if err != nil {
		logrus.WithError(err).Error("create product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, productToResponse(product))
}

// Update handles PUT /products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		ID:          id,
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: textOrNull(req.Description),
		ImageURL:    textOrNull(req.ImageURL),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		logrus.WithError(err).Error("update product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, productToResponse(product))
}

// SetActive handles PATCH /products/{id}/active.
func (h *ProductHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.IsActive == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "is_active is required"})
		return
	}

	product, err := h.store.SetProductActive(r.Context(), database.SetProductActiveParams{
		ID:       id,
		IsActive: *req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		logrus.WithError(err).Error("set product active")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, productToResponse(product))
}

// ListPrices handles GET /products/{id}/prices. Returns the full price
// history, newest first.
func (h *ProductHandler) ListPrices(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	prices, err := h.store.ListProductPrices(r.Context(), id)
	if err != nil {
		logrus.WithError(err).Error("list product prices")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productPriceResponse, len(prices))
	for i, p := range prices {
		resp[i] = productPriceResponse{
			ID:          p.ID,
			ProductID:   p.ProductID,
			Price:       numericToString(p.Price),
			ActivatedAt: p.ActivatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreatePrice handles POST /products/{id}/prices. Prices are never
// edited in place; each change appends a version with an activation
// time, which may be in the future for a scheduled change.
func (h *ProductHandler) CreatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req createPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a non-negative decimal"})
		return
	}

	activatedAt := time.Now()
	if req.ActivatedAt != "" {
		activatedAt, err = time.Parse(time.RFC3339, req.ActivatedAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid activated_at, use RFC 3339"})
			return
		}
	}

	var priceNumeric pgtype.Numeric
	if err := priceNumeric.Scan(price.String()); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	created, err := h.store.CreateProductPrice(r.Context(), database.CreateProductPriceParams{
		ProductID:   id,
		Price:       priceNumeric,
		ActivatedAt: pgtype.Timestamptz{Time: activatedAt, Valid: true},
	})
	if err != nil {
		logrus.WithError(err).Error("create product price")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, productPriceResponse{
		ID:          created.ID,
		ProductID:   created.ProductID,
		Price:       numericToString(created.Price),
		ActivatedAt: created.ActivatedAt,
	})
}

// --- Helpers ---

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func productToResponse(p database.Product) productResponse {
	resp := productResponse{
		ID:         p.ID,
		CategoryID: p.CategoryID,
		Name:       p.Name,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.Description.Valid {
		resp.Description = &p.Description.String
	}
	if p.ImageURL.Valid {
		resp.ImageURL = &p.ImageURL.String
	}
	return resp
}

func productRowToResponse(row database.ListProductsRow) productResponse {
	resp := productToResponse(row.Product)
	resp.CategoryName = row.CategoryName
	if row.CurrentPrice.Valid {
		s := numericToString(row.CurrentPrice)
		resp.CurrentPrice = &s
	}
	return resp
}
