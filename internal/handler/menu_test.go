package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/handler"
)

type mockMenuStore struct {
	listActiveCategoriesFn func(ctx context.Context) ([]database.Category, error)
	listActiveProductsFn   func(ctx context.Context) ([]database.ListProductsRow, error)
}

func (m *mockMenuStore) ListActiveCategories(ctx context.Context) ([]database.Category, error) {
	if m.listActiveCategoriesFn != nil {
		return m.listActiveCategoriesFn(ctx)
	}
	return []database.Category{}, nil
}

func (m *mockMenuStore) ListActiveProducts(ctx context.Context) ([]database.ListProductsRow, error) {
	if m.listActiveProductsFn != nil {
		return m.listActiveProductsFn(ctx)
	}
	return []database.ListProductsRow{}, nil
}

func setupMenuRouter(store *mockMenuStore) *chi.Mux {
	h := handler.NewMenuHandler(store)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func testMenuProduct(categoryID uuid.UUID, name, price string) database.ListProductsRow {
	row := database.ListProductsRow{
		Product: database.Product{
			ID:         uuid.New(),
			CategoryID: categoryID,
			Name:       name,
			IsActive:   true,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		},
	}
	if price != "" {
		row.CurrentPrice = testNumeric(price)
	}
	return row
}

func TestMenuGet_GroupsByCategory(t *testing.T) {
	tacos := database.Category{ID: uuid.New(), Name: "Tacos", SortOrder: 1, IsActive: true}
	bebidas := database.Category{ID: uuid.New(), Name: "Bebidas", SortOrder: 2, IsActive: true}

	pastor := testMenuProduct(tacos.ID, "Tacos al Pastor", "45.00")
	agua := testMenuProduct(bebidas.ID, "Agua de Jamaica", "18.50")

	store := &mockMenuStore{
		listActiveCategoriesFn: func(ctx context.Context) ([]database.Category, error) {
			return []database.Category{tacos, bebidas}, nil
		},
		listActiveProductsFn: func(ctx context.Context) ([]database.ListProductsRow, error) {
			return []database.ListProductsRow{pastor, agua}, nil
		},
	}

	router := setupMenuRouter(store)
	rr := doRequest(t, router, "GET", "/menu", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	categories := resp["categories"].([]interface{})
	if len(categories) != 2 {
		t.Fatalf("categories count: got %d, want 2", len(categories))
	}

	first := categories[0].(map[string]interface{})
	if first["name"] != "Tacos" {
		t.Errorf("category name: got %v, want Tacos", first["name"])
	}
	products := first["products"].([]interface{})
	if len(products) != 1 {
		t.Fatalf("products count: got %d, want 1", len(products))
	}
	p := products[0].(map[string]interface{})
	if p["name"] != "Tacos al Pastor" {
		t.Errorf("product name: got %v, want Tacos al Pastor", p["name"])
	}
	if p["price"] != "45.00" {
		t.Errorf("price: got %v, want 45.00", p["price"])
	}
}

func TestMenuGet_HidesUnpricedProducts(t *testing.T) {
	tacos := database.Category{ID: uuid.New(), Name: "Tacos", IsActive: true}

	priced := testMenuProduct(tacos.ID, "Tacos al Pastor", "45.00")
	unpriced := testMenuProduct(tacos.ID, "Tacos de Suadero", "")

	store := &mockMenuStore{
		listActiveCategoriesFn: func(ctx context.Context) ([]database.Category, error) {
			return []database.Category{tacos}, nil
		},
		listActiveProductsFn: func(ctx context.Context) ([]database.ListProductsRow, error) {
			return []database.ListProductsRow{priced, unpriced}, nil
		},
	}

	router := setupMenuRouter(store)
	rr := doRequest(t, router, "GET", "/menu", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	categories := resp["categories"].([]interface{})
	products := categories[0].(map[string]interface{})["products"].([]interface{})
	if len(products) != 1 {
		t.Fatalf("products count: got %d, want 1 (unpriced product should be hidden)", len(products))
	}
	if products[0].(map[string]interface{})["name"] != "Tacos al Pastor" {
		t.Errorf("wrong product survived filtering")
	}
}

func TestMenuGet_NullableFields(t *testing.T) {
	tacos := database.Category{ID: uuid.New(), Name: "Tacos", IsActive: true}

	plain := testMenuProduct(tacos.ID, "Tacos Sencillos", "30.00")
	described := testMenuProduct(tacos.ID, "Tacos Especiales", "55.00")
	described.Description = pgtype.Text{String: "Con todo", Valid: true}

	store := &mockMenuStore{
		listActiveCategoriesFn: func(ctx context.Context) ([]database.Category, error) {
			return []database.Category{tacos}, nil
		},
		listActiveProductsFn: func(ctx context.Context) ([]database.ListProductsRow, error) {
			return []database.ListProductsRow{plain, described}, nil
		},
	}

	router := setupMenuRouter(store)
	rr := doRequest(t, router, "GET", "/menu", nil)

	resp := decodeResponse(t, rr)
	products := resp["categories"].([]interface{})[0].(map[string]interface{})["products"].([]interface{})
	if products[0].(map[string]interface{})["description"] != nil {
		t.Error("description: expected nil for product without one")
	}
	if products[1].(map[string]interface{})["description"] != "Con todo" {
		t.Errorf("description: got %v, want 'Con todo'", products[1].(map[string]interface{})["description"])
	}
}

func TestMenuGet_EmptyMenu(t *testing.T) {
	store := &mockMenuStore{}
	router := setupMenuRouter(store)

	rr := doRequest(t, router, "GET", "/menu", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	categories, ok := resp["categories"].([]interface{})
	if !ok {
		t.Fatal("categories should be an empty array, not null")
	}
	if len(categories) != 0 {
		t.Errorf("categories count: got %d, want 0", len(categories))
	}
}
