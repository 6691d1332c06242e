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
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/middleware"
	"github.com/elfogon/api/internal/service"
	"github.com/elfogon/api/internal/ws"
)

// ArqueoServicer defines the service methods needed by arqueo handlers.
// Satisfied by *service.ArqueoService; narrow interface for testability.
type ArqueoServicer interface {
	Reconcile(ctx context.Context, req service.ReconcileRequest) (*service.ReconcileResult, error)
}

// ArqueoStore defines the database methods needed by arqueo read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ArqueoStore interface {
	ListArqueos(ctx context.Context, limit int32) ([]database.ListArqueosRow, error)
}

// ArqueoHandler handles cash reconciliation endpoints.
type ArqueoHandler struct {
	svc      ArqueoServicer
	store    ArqueoStore
	notifier Notifier
}

// NewArqueoHandler creates a new ArqueoHandler.
func NewArqueoHandler(svc ArqueoServicer, store ArqueoStore, notifier Notifier) *ArqueoHandler {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ArqueoHandler{svc: svc, store: store, notifier: notifier}
}

// RegisterRoutes registers arqueo endpoints on the given Chi router.
func (h *ArqueoHandler) RegisterRoutes(r chi.Router) {
	r.Post("/arqueos", h.Create)
	r.Get("/arqueos", h.List)
}

// --- Request / Response types ---

type createArqueoRequest struct {
	ResponsibleID string           `json:"responsible_id"`
	Physical      breakdownRequest `json:"physical"`
	Notes         string           `json:"notes"`
}

type breakdownRequest struct {
	Cash     string `json:"cash"`
	Card     string `json:"card"`
	Transfer string `json:"transfer"`
}

type breakdownResponse struct {
	Cash     string `json:"cash"`
	Card     string `json:"card"`
	Transfer string `json:"transfer"`
}

type arqueoResponse struct {
	ID              uuid.UUID         `json:"id"`
	AuditorID       uuid.UUID         `json:"auditor_id"`
	AuditorName     string            `json:"auditor_name,omitempty"`
	ResponsibleID   uuid.UUID         `json:"responsible_id"`
	ResponsibleName string            `json:"responsible_name,omitempty"`
	System          breakdownResponse `json:"system"`
	Physical        breakdownResponse `json:"physical"`
	SystemTotal     string            `json:"system_total"`
	PhysicalTotal   string            `json:"physical_total"`
	Difference      string            `json:"difference"`
	Status          string            `json:"status"`
	Notes           *string           `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
}

// --- Handlers ---

// Create handles POST /arqueos. The authenticated caller is the
// auditor; the responsible is the staff member whose register is being
// counted. Both may be the same person.
func (h *ArqueoHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createArqueoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	responsibleID, err := uuid.Parse(req.ResponsibleID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid responsible_id"})
		return
	}

	physical, err := parseBreakdown(req.Physical)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.svc.Reconcile(r.Context(), service.ReconcileRequest{
		AuditorID:     claims.StaffID,
		ResponsibleID: responsibleID,
		Physical:      physical,
		Notes:         req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNegativeCount):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrUnknownAuditor),
			errors.Is(err, service.ErrUnknownResponsible):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			logrus.WithError(err).Error("reconcile arqueo")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := arqueoResponse{
		ID:            result.Arqueo.ID,
		AuditorID:     result.Arqueo.AuditorID,
		ResponsibleID: result.Arqueo.ResponsibleID,
		System:        breakdownToResponse(result.System),
		Physical:      breakdownToResponse(result.Physical),
		SystemTotal:   result.SystemTotal.StringFixed(2),
		PhysicalTotal: result.PhysicalTotal.StringFixed(2),
		Difference:    result.Difference.StringFixed(2),
		Status:        result.Status,
		CreatedAt:     result.Arqueo.CreatedAt,
	}
	if result.Arqueo.Notes.Valid {
		resp.Notes = &result.Arqueo.Notes.String
	}

	h.notifier.Broadcast(ws.TopicArqueos, ws.EventArqueoCreated, map[string]any{
		"arqueo_id":  resp.ID,
		"status":     resp.Status,
		"difference": resp.Difference,
	})

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /arqueos. Records are immutable; this is newest
// first with a cap.
func (h *ArqueoHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 200 {
		limit = 200
	}

	rows, err := h.store.ListArqueos(r.Context(), int32(limit))
	if err != nil {
		logrus.WithError(err).Error("list arqueos")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]arqueoResponse, len(rows))
	for i, row := range rows {
		resp[i] = arqueoRowToResponse(row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func parseBreakdown(req breakdownRequest) (service.Breakdown, error) {
	var b service.Breakdown
	var err error
	if b.Cash, err = parseAmount(req.Cash); err != nil {
		return b, errors.New("physical.cash must be a decimal amount")
	}
	if b.Card, err = parseAmount(req.Card); err != nil {
		return b, errors.New("physical.card must be a decimal amount")
	}
	if b.Transfer, err = parseAmount(req.Transfer); err != nil {
		return b, errors.New("physical.transfer must be a decimal amount")
	}
	return b, nil
}

// parseAmount treats an omitted field as zero: a register with no card
// sales simply leaves that bucket out.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func breakdownToResponse(b service.Breakdown) breakdownResponse {
	return breakdownResponse{
		Cash:     b.Cash.StringFixed(2),
		Card:     b.Card.StringFixed(2),
		Transfer: b.Transfer.StringFixed(2),
	}
}

func arqueoRowToResponse(row database.ListArqueosRow) arqueoResponse {
	resp := arqueoResponse{
		ID:              row.ID,
		AuditorID:       row.AuditorID,
		AuditorName:     row.AuditorName,
		ResponsibleID:   row.ResponsibleID,
		ResponsibleName: row.ResponsibleName,
		SystemTotal:     numericToString(row.SystemTotal),
		PhysicalTotal:   numericToString(row.PhysicalTotal),
		Difference:      numericToString(row.Difference),
		Status:          row.Status,
		CreatedAt:       row.CreatedAt,
	}
	if row.Notes.Valid {
		resp.Notes = &row.Notes.String
	}

	// Stored breakdowns are the same shape the API serves.
	var system, physical breakdownResponse
	if err := json.Unmarshal(row.SystemBreakdown, &system); err == nil {
		resp.System = system
	}
	if err := json.Unmarshal(row.PhysicalBreakdown, &physical); err == nil {
		resp.Physical = physical
	}
	return resp
}
