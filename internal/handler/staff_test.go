package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/handler"
	"github.com/elfogon/api/internal/middleware"
)

type mockStaffStore struct {
	listStaffFn      func(ctx context.Context) ([]database.ListStaffRow, error)
	getStaffByIDFn   func(ctx context.Context, id uuid.UUID) (database.Staff, error)
	createTerceroFn  func(ctx context.Context, arg database.CreateTerceroParams) (database.Tercero, error)
	createStaffFn    func(ctx context.Context, arg database.CreateStaffParams) (database.Staff, error)
	updateStaffFn    func(ctx context.Context, arg database.UpdateStaffParams) (database.Staff, error)
	setStaffActiveFn func(ctx context.Context, arg database.SetStaffActiveParams) (database.Staff, error)
}

func (m *mockStaffStore) ListStaff(ctx context.Context) ([]database.ListStaffRow, error) {
	if m.listStaffFn != nil {
		return m.listStaffFn(ctx)
	}
	return []database.ListStaffRow{}, nil
}

func (m *mockStaffStore) GetStaffByID(ctx context.Context, id uuid.UUID) (database.Staff, error) {
	if m.getStaffByIDFn != nil {
		return m.getStaffByIDFn(ctx, id)
	}
	return database.Staff{}, pgx.ErrNoRows
}

func (m *mockStaffStore) CreateTercero(ctx context.Context, arg database.CreateTerceroParams) (database.Tercero, error) {
	if m.createTerceroFn != nil {
		return m.createTerceroFn(ctx, arg)
	}
	return database.Tercero{}, pgx.ErrNoRows
}

func (m *mockStaffStore) CreateStaff(ctx context.Context, arg database.CreateStaffParams) (database.Staff, error) {
	if m.createStaffFn != nil {
		return m.createStaffFn(ctx, arg)
	}
	return database.Staff{}, pgx.ErrNoRows
}

func (m *mockStaffStore) UpdateStaff(ctx context.Context, arg database.UpdateStaffParams) (database.Staff, error) {
	if m.updateStaffFn != nil {
		return m.updateStaffFn(ctx, arg)
	}
	return database.Staff{}, pgx.ErrNoRows
}

func (m *mockStaffStore) SetStaffActive(ctx context.Context, arg database.SetStaffActiveParams) (database.Staff, error) {
	if m.setStaffActiveFn != nil {
		return m.setStaffActiveFn(ctx, arg)
	}
	return database.Staff{}, pgx.ErrNoRows
}

func setupStaffRouter(store *mockStaffStore) *chi.Mux {
	h := handler.NewStaffHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	return r
}

func TestStaffCreate_HappyPath(t *testing.T) {
	claims := testClaims("ADMIN")
	terceroID := uuid.New()

	store := &mockStaffStore{
		createTerceroFn: func(ctx context.Context, arg database.CreateTerceroParams) (database.Tercero, error) {
			if arg.FullName != "Marco Díaz" {
				t.Errorf("full_name: got %v, want Marco Díaz", arg.FullName)
			}
			if !arg.Phone.Valid || arg.Phone.String != "5551234567" {
				t.Errorf("phone: got %v, want 5551234567", arg.Phone)
			}
			return database.Tercero{
				ID:       terceroID,
				FullName: arg.FullName,
				Email:    arg.Email,
				Phone:    arg.Phone,
			}, nil
		},
		createStaffFn: func(ctx context.Context, arg database.CreateStaffParams) (database.Staff, error) {
			if arg.TerceroID != terceroID {
				t.Errorf("tercero_id: got %v, want %v", arg.TerceroID, terceroID)
			}
			if arg.Role != "CAJERO" {
				t.Errorf("role: got %v, want CAJERO", arg.Role)
			}
			// The stored hash must verify against the submitted password.
			if err := bcrypt.CompareHashAndPassword([]byte(arg.HashedPassword), []byte("secreto123")); err != nil {
				t.Errorf("hashed password does not match: %v", err)
			}
			return database.Staff{
				ID:             uuid.New(),
				TerceroID:      arg.TerceroID,
				Email:          arg.Email,
				HashedPassword: arg.HashedPassword,
				Role:           arg.Role,
				IsActive:       true,
				CreatedAt:      time.Now(),
				UpdatedAt:      time.Now(),
			}, nil
		},
	}

	router := setupStaffRouter(store)
	rr := doAuthRequest(t, router, "POST", "/staff", map[string]interface{}{
		"full_name": "Marco Díaz",
		"phone":     "5551234567",
		"email":     "marco@elfogon.mx",
		"password":  "secreto123",
		"role":      "CAJERO",
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["full_name"] != "Marco Díaz" {
		t.Errorf("full_name: got %v, want Marco Díaz", resp["full_name"])
	}
	if resp["role"] != "CAJERO" {
		t.Errorf("role: got %v, want CAJERO", resp["role"])
	}
	if _, ok := resp["hashed_password"]; ok {
		t.Error("hashed_password must never appear in responses")
	}
}

func TestStaffCreate_MissingFields(t *testing.T) {
	claims := testClaims("ADMIN")
	store := &mockStaffStore{}

	router := setupStaffRouter(store)
	rr := doAuthRequest(t, router, "POST", "/staff", map[string]interface{}{
		"full_name": "Marco Díaz",
		"role":      "CAJERO",
	}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestStaffCreate_InvalidRole(t *testing.T) {
	claims := testClaims("ADMIN")
	store := &mockStaffStore{}

	router := setupStaffRouter(store)
	rr := doAuthRequest(t, router, "POST", "/staff", map[string]interface{}{
		"full_name": "Marco Díaz",
		"email":     "marco@elfogon.mx",
		"password":  "secreto123",
		"role":      "GERENTE",
	}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "invalid role" {
		t.Errorf("error: got %v, want 'invalid role'", resp["error"])
	}
}

func TestStaffCreate_ShortPassword(t *testing.T) {
	claims := testClaims("ADMIN")
	store := &mockStaffStore{}

	router := setupStaffRouter(store)
	rr := doAuthRequest(t, router, "POST", "/staff", map[string]interface{}{
		"full_name": "Marco Díaz",
		"email":     "marco@elfogon.mx",
		"password":  "corto",
		"role":      "MESERO",
	}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestStaffList_HappyPath(t *testing.T) {
	claims := testClaims("ADMIN")

	row := database.ListStaffRow{
		Staff: database.Staff{
			ID:        uuid.New(),
			TerceroID: uuid.New(),
			Email:     "ana@elfogon.mx",
			Role:      "MESERO",
			IsActive:  true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		FullName: "Ana Torres",
		Phone:    pgtype.Text{String: "5559876543", Valid: true},
	}

	store := &mockStaffStore{
		listStaffFn: func(ctx context.Context) ([]database.ListStaffRow, error) {
			return []database.ListStaffRow{row}, nil
		},
	}

	router := setupStaffRouter(store)
	rr := doAuthRequest(t, router, "GET", "/staff", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("staff count: got %d, want 1", len(resp))
	}
	if resp[0]["full_name"] != "Ana Torres" {
		t.Errorf("full_name: got %v, want Ana Torres", resp[0]["full_name"])
	}
	if resp[0]["phone"] != "5559876543" {
		t.Errorf("phone: got %v, want 5559876543", resp[0]["phone"])
	}
}

func TestStaffUpdate_HappyPath(t *testing.T) {
	claims := testClaims("ADMIN")
	staffID := uuid.New()

	store := &mockStaffStore{
		updateStaffFn: func(ctx context.Context, arg database.UpdateStaffParams) (database.Staff, error) {
			if arg.ID != staffID {
				t.Errorf("staff ID: got %v, want %v", arg.ID, staffID)
			}
			if arg.Role != "COCINERO" {
				t.Errorf("role: got %v, want COCINERO", arg.Role)
			}
			return database.Staff{
				ID:        staffID,
				TerceroID: uuid.New(),
				Email:     arg.Email,
				Role:      arg.Role,
				IsActive:  true,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		},
	}

	router := setupStaffRouter(store)
	rr := doAuthRequest(t, router, "PUT", "/staff/"+staffID.String(), map[string]interface{}{
		"email": "ana@elfogon.mx",
		"role":  "COCINERO",
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["role"] != "COCINERO" {
		t.Errorf("role: got %v, want COCINERO", resp["role"])
	}
}

func TestStaffUpdate_NotFound(t *testing.T) {
	claims := testClaims("ADMIN")
	store := &mockStaffStore{}

	router := setupStaffRouter(store)
	rr := doAuthRequest(t, router, "PUT", "/staff/"+uuid.New().String(), map[string]interface{}{
		"email": "ana@elfogon.mx",
		"role":  "MESERO",
	}, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNotFound, rr.Body.String())
	}
}

func TestStaffSetActive_Deactivate(t *testing.T) {
	claims := testClaims("ADMIN")
	staffID := uuid.New()

	store := &mockStaffStore{
		setStaffActiveFn: func(ctx context.Context, arg database.SetStaffActiveParams) (database.Staff, error) {
			if arg.IsActive {
				t.Error("is_active: got true, want false")
			}
			return database.Staff{
				ID:        staffID,
				TerceroID: uuid.New(),
				Email:     "ana@elfogon.mx",
				Role:      "MESERO",
				IsActive:  false,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		},
	}

	router := setupStaffRouter(store)
	rr := doAuthRequest(t, router, "PATCH", "/staff/"+staffID.String()+"/active", map[string]interface{}{
		"is_active": false,
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["is_active"] != false {
		t.Errorf("is_active: got %v, want false", resp["is_active"])
	}
}
