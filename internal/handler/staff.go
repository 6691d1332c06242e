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
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/enum"
)

// StaffStore defines the database methods needed by staff handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type StaffStore interface {
	ListStaff(ctx context.Context) ([]database.ListStaffRow, error)
	GetStaffByID(ctx context.Context, id uuid.UUID) (database.Staff, error)
	CreateTercero(ctx context.Context, arg database.CreateTerceroParams) (database.Tercero, error)
	CreateStaff(ctx context.Context, arg database.CreateStaffParams) (database.Staff, error)
	UpdateStaff(ctx context.Context, arg database.UpdateStaffParams) (database.Staff, error)
	SetStaffActive(ctx context.Context, arg database.SetStaffActiveParams) (database.Staff, error)
}

// StaffHandler handles staff admin endpoints.
type StaffHandler struct {
	store StaffStore
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(store StaffStore) *StaffHandler {
	return &StaffHandler{store: store}
}

// RegisterRoutes registers staff endpoints on the given Chi router.
func (h *StaffHandler) RegisterRoutes(r chi.Router) {
	r.Get("/staff", h.List)
	r.Post("/staff", h.Create)
	r.Put("/staff/{id}", h.Update)
	r.Patch("/staff/{id}/active", h.SetActive)
}

// --- Request / Response types ---

type createStaffRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateStaffRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type staffDetailResponse struct {
	ID        uuid.UUID `json:"id"`
	TerceroID uuid.UUID `json:"tercero_id"`
	FullName  string    `json:"full_name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- Handlers ---

// List handles GET /staff.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListStaff(r.Context())
	if err != nil {
		logrus.WithError(err).Error("list staff")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]staffDetailResponse, len(rows))
	for i, row := range rows {
		resp[i] = staffDetailResponse{
			ID:        row.ID,
			TerceroID: row.TerceroID,
			FullName:  row.FullName,
			Email:     row.Email,
			Role:      row.Role,
			IsActive:  row.IsActive,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
		if row.Phone.Valid {
			resp[i].Phone = &row.Phone.String
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /staff. The person record comes first; the staff
// row links to it and carries the credentials.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.FullName == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "full_name, email and password are required"})
		return
	}
	if !isValidRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("hash password")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	tercero, err := h.store.CreateTercero(r.Context(), database.CreateTerceroParams{
		FullName: req.FullName,
		Email:    textOrNull(req.Email),
		Phone:    textOrNull(req.Phone),
	})
	if err != nil {
		logrus.WithError(err).Error("create tercero")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	staff, err := h.store.CreateStaff(r.Context(), database.CreateStaffParams{
		TerceroID:      tercero.ID,
		Email:          req.Email,
		HashedPassword: string(hashed),
		Role:           req.Role,
	})
	if err != nil {
		logrus.WithError(err).Error("create staff")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := staffToDetailResponse(staff)
	resp.FullName = tercero.FullName
	if tercero.Phone.Valid {
		resp.Phone = &tercero.Phone.String
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Update handles PUT /staff/{id}.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff ID"})
		return
	}

	var req updateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}
	if !isValidRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}

	staff, err := h.store.UpdateStaff(r.Context(), database.UpdateStaffParams{
		ID:    id,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		logrus.WithError(err).Error("update staff")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, staffToDetailResponse(staff))
}

// SetActive handles PATCH /staff/{id}/active. Deactivation blocks
// future logins; already-issued access tokens ride out their TTL.
func (h *StaffHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff ID"})
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

	staff, err := h.store.SetStaffActive(r.Context(), database.SetStaffActiveParams{
		ID:       id,
		IsActive: *req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		logrus.WithError(err).Error("set staff active")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, staffToDetailResponse(staff))
}

// --- Helpers ---

func isValidRole(role string) bool {
	switch role {
	case enum.RoleAdmin, enum.RoleMesero, enum.RoleCocinero, enum.RoleCajero:
		return true
	}
	return false
}

func staffToDetailResponse(s database.Staff) staffDetailResponse {
	return staffDetailResponse{
		ID:        s.ID,
		TerceroID: s.TerceroID,
		Email:     s.Email,
		Role:      s.Role,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
