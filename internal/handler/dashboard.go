package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"

	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/enum"
	"github.com/elfogon/api/internal/timerange"
)

// DashboardStore defines the database methods needed by the dashboard.
// Satisfied by *database.Queries; narrow interface for testability.
type DashboardStore interface {
	GetSalesSummary(ctx context.Context, arg database.GetSalesSummaryParams) (database.GetSalesSummaryRow, error)
	GetPaymentSummary(ctx context.Context, arg database.GetPaymentSummaryParams) ([]database.GetPaymentSummaryRow, error)
}

// DashboardHandler serves back-office sales summaries.
type DashboardHandler struct {
	store DashboardStore
	now   func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store DashboardStore) *DashboardHandler {
	return &DashboardHandler{store: store, now: time.Now}
}

// RegisterRoutes registers dashboard endpoints on the given Chi router.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/summary", h.Summary)
}

// --- Response types ---

type dashboardSummaryResponse struct {
	Range        string                   `json:"range"`
	StartDate    string                   `json:"start_date"`
	EndDate      string                   `json:"end_date"`
	OrderCount   int64                    `json:"order_count"`
	TotalRevenue string                   `json:"total_revenue"`
	ByMethod     []paymentSummaryResponse `json:"by_method"`
}

type paymentSummaryResponse struct {
	PaymentMethod string `json:"payment_method"`
	OrderCount    int64  `json:"order_count"`
	TotalAmount   string `json:"total_amount"`
}

// --- Handlers ---

// Summary handles GET /dashboard/summary. The range parameter selects
// today, the current ISO week, the current calendar month, or a custom
// inclusive date pair. Dates are interpreted in the restaurant's zone.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("range")
	if filter == "" {
		filter = enum.RangeToday
	}

	var custom *timerange.Range
	if filter == enum.RangeCustom {
		startStr := r.URL.Query().Get("start_date")
		endStr := r.URL.Query().Get("end_date")
		if startStr == "" || endStr == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "custom range requires start_date and end_date"})
			return
		}
		start, err := time.ParseInLocation("2006-01-02", startStr, timerange.Location)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		end, err := time.ParseInLocation("2006-01-02", endStr, timerange.Location)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		custom = &timerange.Range{Start: start, End: end}
	}

	rng, err := timerange.Resolve(filter, h.now(), custom)
	if err != nil {
		switch {
		case errors.Is(err, timerange.ErrUnknownFilter):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown range, use today, week, month or custom"})
		case errors.Is(err, timerange.ErrCustomBounds), errors.Is(err, timerange.ErrInverted):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			logrus.WithError(err).Error("resolve date range")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	start, end := rng.Bounds()
	startTS := pgtype.Timestamptz{Time: start, Valid: true}
	endTS := pgtype.Timestamptz{Time: end, Valid: true}

	sales, err := h.store.GetSalesSummary(r.Context(), database.GetSalesSummaryParams{
		StartDate: startTS,
		EndDate:   endTS,
	})
	if err != nil {
		logrus.WithError(err).Error("get sales summary")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payments, err := h.store.GetPaymentSummary(r.Context(), database.GetPaymentSummaryParams{
		StartDate: startTS,
		EndDate:   endTS,
	})
	if err != nil {
		logrus.WithError(err).Error("get payment summary")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	byMethod := make([]paymentSummaryResponse, len(payments))
	for i, p := range payments {
		byMethod[i] = paymentSummaryResponse{
			PaymentMethod: p.PaymentMethod,
			OrderCount:    p.OrderCount,
			TotalAmount:   numericToString(p.TotalAmount),
		}
	}

	writeJSON(w, http.StatusOK, dashboardSummaryResponse{
		Range:        filter,
		StartDate:    rng.Start.Format("2006-01-02"),
		EndDate:      rng.End.Format("2006-01-02"),
		OrderCount:   sales.OrderCount,
		TotalRevenue: numericToString(sales.TotalRevenue),
		ByMethod:     byMethod,
	})
}
