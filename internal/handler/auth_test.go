package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/elfogon/api/internal/auth"
	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/handler"
)

type mockAuthStore struct {
	getStaffByEmailFn func(ctx context.Context, email string) (database.Staff, error)
	getStaffByIDFn    func(ctx context.Context, id uuid.UUID) (database.Staff, error)
	getTerceroFn      func(ctx context.Context, id uuid.UUID) (database.Tercero, error)
}

func (m *mockAuthStore) GetStaffByEmail(ctx context.Context, email string) (database.Staff, error) {
	if m.getStaffByEmailFn != nil {
		return m.getStaffByEmailFn(ctx, email)
	}
	return database.Staff{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetStaffByID(ctx context.Context, id uuid.UUID) (database.Staff, error) {
	if m.getStaffByIDFn != nil {
		return m.getStaffByIDFn(ctx, id)
	}
	return database.Staff{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetTercero(ctx context.Context, id uuid.UUID) (database.Tercero, error) {
	if m.getTerceroFn != nil {
		return m.getTerceroFn(ctx, id)
	}
	return database.Tercero{}, pgx.ErrNoRows
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func testStaff(t *testing.T, password string) database.Staff {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return database.Staff{
		ID:             uuid.New(),
		TerceroID:      uuid.New(),
		Email:          "cajero@elfogon.mx",
		HashedPassword: string(hashed),
		Role:           "CAJERO",
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

func TestLogin_HappyPath(t *testing.T) {
	staff := testStaff(t, "secreto123")

	store := &mockAuthStore{
		getStaffByEmailFn: func(ctx context.Context, email string) (database.Staff, error) {
			if email != staff.Email {
				t.Errorf("email: got %v, want %v", email, staff.Email)
			}
			return staff, nil
		},
		getTerceroFn: func(ctx context.Context, id uuid.UUID) (database.Tercero, error) {
			return database.Tercero{ID: id, FullName: "Marco Díaz"}, nil
		},
	}

	router := setupAuthRouter(store)
	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    staff.Email,
		"password": "secreto123",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatal("access_token missing from response")
	}
	if resp["refresh_token"] == "" {
		t.Fatal("refresh_token missing from response")
	}

	// The issued token carries the staff identity and role.
	claims, err := auth.ValidateToken(testJWTSecret, token)
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.StaffID != staff.ID {
		t.Errorf("token staff ID: got %v, want %v", claims.StaffID, staff.ID)
	}
	if claims.Role != "CAJERO" {
		t.Errorf("token role: got %v, want CAJERO", claims.Role)
	}

	staffResp := resp["staff"].(map[string]interface{})
	if staffResp["full_name"] != "Marco Díaz" {
		t.Errorf("full_name: got %v, want Marco Díaz", staffResp["full_name"])
	}
	if staffResp["role"] != "CAJERO" {
		t.Errorf("role: got %v, want CAJERO", staffResp["role"])
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	staff := testStaff(t, "secreto123")

	store := &mockAuthStore{
		getStaffByEmailFn: func(ctx context.Context, email string) (database.Staff, error) {
			return staff, nil
		},
	}

	router := setupAuthRouter(store)
	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    staff.Email,
		"password": "wrong",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	store := &mockAuthStore{}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    "nobody@elfogon.mx",
		"password": "whatever",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "invalid credentials" {
		t.Errorf("error: got %v, want 'invalid credentials'", resp["error"])
	}
}

func TestLogin_InactiveStaff(t *testing.T) {
	staff := testStaff(t, "secreto123")
	staff.IsActive = false

	store := &mockAuthStore{
		getStaffByEmailFn: func(ctx context.Context, email string) (database.Staff, error) {
			return staff, nil
		},
	}

	router := setupAuthRouter(store)
	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    staff.Email,
		"password": "secreto123",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}

func TestLogin_MissingFields(t *testing.T) {
	store := &mockAuthStore{}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email": "cajero@elfogon.mx",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestRefresh_HappyPath(t *testing.T) {
	staff := testStaff(t, "secreto123")
	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, staff.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	store := &mockAuthStore{
		getStaffByIDFn: func(ctx context.Context, id uuid.UUID) (database.Staff, error) {
			if id != staff.ID {
				t.Errorf("staff ID: got %v, want %v", id, staff.ID)
			}
			return staff, nil
		},
		getTerceroFn: func(ctx context.Context, id uuid.UUID) (database.Tercero, error) {
			return database.Tercero{ID: id, FullName: "Marco Díaz"}, nil
		},
	}

	router := setupAuthRouter(store)
	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["access_token"] == "" {
		t.Fatal("access_token missing from response")
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	store := &mockAuthStore{}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": "garbage",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}

func TestRefresh_InactiveStaff(t *testing.T) {
	staff := testStaff(t, "secreto123")
	staff.IsActive = false
	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, staff.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	store := &mockAuthStore{
		getStaffByIDFn: func(ctx context.Context, id uuid.UUID) (database.Staff, error) {
			return staff, nil
		},
	}

	router := setupAuthRouter(store)
	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "staff account is inactive" {
		t.Errorf("error: got %v, want 'staff account is inactive'", resp["error"])
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	store := &mockAuthStore{}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}
