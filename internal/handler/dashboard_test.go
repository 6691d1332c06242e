package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/handler"
	"github.com/elfogon/api/internal/middleware"
)

type mockDashboardStore struct {
	getSalesSummaryFn   func(ctx context.Context, arg database.GetSalesSummaryParams) (database.GetSalesSummaryRow, error)
	getPaymentSummaryFn func(ctx context.Context, arg database.GetPaymentSummaryParams) ([]database.GetPaymentSummaryRow, error)
}

func (m *mockDashboardStore) GetSalesSummary(ctx context.Context, arg database.GetSalesSummaryParams) (database.GetSalesSummaryRow, error) {
	if m.getSalesSummaryFn != nil {
		return m.getSalesSummaryFn(ctx, arg)
	}
	return database.GetSalesSummaryRow{TotalRevenue: testNumeric("0.00")}, nil
}

func (m *mockDashboardStore) GetPaymentSummary(ctx context.Context, arg database.GetPaymentSummaryParams) ([]database.GetPaymentSummaryRow, error) {
	if m.getPaymentSummaryFn != nil {
		return m.getPaymentSummaryFn(ctx, arg)
	}
	return []database.GetPaymentSummaryRow{}, nil
}

func setupDashboardRouter(store *mockDashboardStore) *chi.Mux {
	h := handler.NewDashboardHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	return r
}

func TestDashboardSummary_DefaultsToToday(t *testing.T) {
	claims := testClaims("ADMIN")

	store := &mockDashboardStore{
		getSalesSummaryFn: func(ctx context.Context, arg database.GetSalesSummaryParams) (database.GetSalesSummaryRow, error) {
			if !arg.StartDate.Valid || !arg.EndDate.Valid {
				t.Fatal("date bounds should be set")
			}
			if got := arg.EndDate.Time.Sub(arg.StartDate.Time).Hours(); got != 24 {
				t.Errorf("range span: got %v hours, want 24", got)
			}
			return database.GetSalesSummaryRow{
				OrderCount:   7,
				TotalRevenue: testNumeric("945.00"),
			}, nil
		},
		getPaymentSummaryFn: func(ctx context.Context, arg database.GetPaymentSummaryParams) ([]database.GetPaymentSummaryRow, error) {
			return []database.GetPaymentSummaryRow{
				{PaymentMethod: "CASH", OrderCount: 5, TotalAmount: testNumeric("675.00")},
				{PaymentMethod: "CARD", OrderCount: 2, TotalAmount: testNumeric("270.00")},
			}, nil
		},
	}

	router := setupDashboardRouter(store)
	rr := doAuthRequest(t, router, "GET", "/dashboard/summary", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["range"] != "today" {
		t.Errorf("range: got %v, want today", resp["range"])
	}
	if resp["order_count"] != float64(7) {
		t.Errorf("order_count: got %v, want 7", resp["order_count"])
	}
	if resp["total_revenue"] != "945.00" {
		t.Errorf("total_revenue: got %v, want 945.00", resp["total_revenue"])
	}

	byMethod := resp["by_method"].([]interface{})
	if len(byMethod) != 2 {
		t.Fatalf("by_method count: got %d, want 2", len(byMethod))
	}
	cash := byMethod[0].(map[string]interface{})
	if cash["payment_method"] != "CASH" {
		t.Errorf("payment_method: got %v, want CASH", cash["payment_method"])
	}
	if cash["total_amount"] != "675.00" {
		t.Errorf("total_amount: got %v, want 675.00", cash["total_amount"])
	}
}

func TestDashboardSummary_WeekRange(t *testing.T) {
	claims := testClaims("ADMIN")

	store := &mockDashboardStore{
		getSalesSummaryFn: func(ctx context.Context, arg database.GetSalesSummaryParams) (database.GetSalesSummaryRow, error) {
			span := arg.EndDate.Time.Sub(arg.StartDate.Time).Hours() / 24
			if span < 1 || span > 7 {
				t.Errorf("week span: got %v days, want 1..7", span)
			}
			return database.GetSalesSummaryRow{TotalRevenue: testNumeric("0.00")}, nil
		},
	}

	router := setupDashboardRouter(store)
	rr := doAuthRequest(t, router, "GET", "/dashboard/summary?range=week", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["range"] != "week" {
		t.Errorf("range: got %v, want week", resp["range"])
	}
}

func TestDashboardSummary_CustomRange(t *testing.T) {
	claims := testClaims("ADMIN")

	store := &mockDashboardStore{
		getSalesSummaryFn: func(ctx context.Context, arg database.GetSalesSummaryParams) (database.GetSalesSummaryRow, error) {
			// 2026-06-01 through 2026-06-07 inclusive is seven days.
			if got := arg.EndDate.Time.Sub(arg.StartDate.Time).Hours() / 24; got != 7 {
				t.Errorf("custom span: got %v days, want 7", got)
			}
			return database.GetSalesSummaryRow{TotalRevenue: testNumeric("0.00")}, nil
		},
	}

	router := setupDashboardRouter(store)
	rr := doAuthRequest(t, router, "GET", "/dashboard/summary?range=custom&start_date=2026-06-01&end_date=2026-06-07", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["start_date"] != "2026-06-01" {
		t.Errorf("start_date: got %v, want 2026-06-01", resp["start_date"])
	}
	if resp["end_date"] != "2026-06-07" {
		t.Errorf("end_date: got %v, want 2026-06-07", resp["end_date"])
	}
}

func TestDashboardSummary_CustomRequiresDates(t *testing.T) {
	claims := testClaims("ADMIN")
	router := setupDashboardRouter(&mockDashboardStore{})

	rr := doAuthRequest(t, router, "GET", "/dashboard/summary?range=custom", nil, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestDashboardSummary_CustomInvertedDates(t *testing.T) {
	claims := testClaims("ADMIN")
	router := setupDashboardRouter(&mockDashboardStore{})

	rr := doAuthRequest(t, router, "GET", "/dashboard/summary?range=custom&start_date=2026-06-07&end_date=2026-06-01", nil, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestDashboardSummary_UnknownRange(t *testing.T) {
	claims := testClaims("ADMIN")
	router := setupDashboardRouter(&mockDashboardStore{})

	rr := doAuthRequest(t, router, "GET", "/dashboard/summary?range=quarter", nil, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "unknown range, use today, week, month or custom" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestDashboardSummary_InvalidDateFormat(t *testing.T) {
	claims := testClaims("ADMIN")
	router := setupDashboardRouter(&mockDashboardStore{})

	rr := doAuthRequest(t, router, "GET", "/dashboard/summary?range=custom&start_date=junk&end_date=2026-06-07", nil, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}
