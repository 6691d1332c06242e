package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/elfogon/api/internal/database"
)

// MenuStore defines the database methods needed by the public menu.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListActiveCategories(ctx context.Context) ([]database.Category, error)
	ListActiveProducts(ctx context.Context) ([]database.ListProductsRow, error)
}

// MenuHandler serves the public, unauthenticated menu.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.Get)
}

// --- Response types ---

type menuResponse struct {
	Categories []menuCategoryResponse `json:"categories"`
}

type menuCategoryResponse struct {
	ID       uuid.UUID             `json:"id"`
	Name     string                `json:"name"`
	Products []menuProductResponse `json:"products"`
}

type menuProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"image_url"`
	Price       string    `json:"price"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Handlers ---

// Get handles GET /menu. Products without an activated price yet are
// hidden; customers cannot order what cannot be priced.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListActiveCategories(r.Context())
	if err != nil {
		logrus.WithError(err).Error("list active categories")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	products, err := h.store.ListActiveProducts(r.Context())
	if err != nil {
		logrus.WithError(err).Error("list active products")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	byCategory := make(map[uuid.UUID][]menuProductResponse)
	for _, p := range products {
		if !p.CurrentPrice.Valid {
			continue
		}
		resp := menuProductResponse{
			ID:        p.ID,
			Name:      p.Name,
			Price:     numericToString(p.CurrentPrice),
			UpdatedAt: p.UpdatedAt,
		}
		if p.Description.Valid {
			resp.Description = &p.Description.String
		}
		if p.ImageURL.Valid {
			resp.ImageURL = &p.ImageURL.String
		}
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], resp)
	}

	resp := menuResponse{Categories: make([]menuCategoryResponse, 0, len(categories))}
	for _, c := range categories {
		resp.Categories = append(resp.Categories, menuCategoryResponse{
			ID:       c.ID,
			Name:     c.Name,
			Products: byCategory[c.ID],
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
