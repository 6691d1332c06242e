package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elfogon/api/internal/database"
	"github.com/elfogon/api/internal/enum"
	"github.com/elfogon/api/internal/timerange"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Errors returned by the arqueo service.
var (
	ErrUnknownAuditor     = errors.New("auditor is not a known staff member")
	ErrUnknownResponsible = errors.New("responsible is not a known staff member")
	ErrNegativeCount      = errors.New("physical counts must be non-negative")
)

// ArqueoStore defines the DB methods needed to reconcile a register.
// Satisfied by *database.Queries.
type ArqueoStore interface {
	GetStaffByID(ctx context.Context, id uuid.UUID) (database.Staff, error)
	SumSalesByResponsible(ctx context.Context, arg database.SumSalesByResponsibleParams) ([]database.SumSalesByResponsibleRow, error)
	CreateArqueo(ctx context.Context, arg database.CreateArqueoParams) (database.Arqueo, error)
}

// Breakdown is an amount split by normalized payment bucket.
type Breakdown struct {
	Cash     decimal.Decimal
	Card     decimal.Decimal
	Transfer decimal.Decimal
}

func (b Breakdown) Total() decimal.Decimal {
	return b.Cash.Add(b.Card).Add(b.Transfer)
}

func (b Breakdown) add(method string, amount decimal.Decimal) Breakdown {
	switch method {
	case enum.PaymentMethodCash:
		b.Cash = b.Cash.Add(amount)
	case enum.PaymentMethodCard:
		b.Card = b.Card.Add(amount)
	default:
		b.Transfer = b.Transfer.Add(amount)
	}
	return b
}

// breakdownPayload is the jsonb shape persisted for both breakdowns.
type breakdownPayload struct {
	Cash     string `json:"cash"`
	Card     string `json:"card"`
	Transfer string `json:"transfer"`
}

func (b Breakdown) payload() ([]byte, error) {
	return json.Marshal(breakdownPayload{
		Cash:     b.Cash.StringFixed(2),
		Card:     b.Card.StringFixed(2),
		Transfer: b.Transfer.StringFixed(2),
	})
}

// NormalizeMethod maps a raw payment method string onto one of the three
// reconciliation buckets. Matching is case-insensitive and accepts the
// Spanish register labels; anything unrecognized (including empty) falls
// back to the transfer bucket. Business policy, not a defect.
func NormalizeMethod(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cash", "efectivo":
		return enum.PaymentMethodCash
	case "card", "card-terminal", "tarjeta", "terminal":
		return enum.PaymentMethodCard
	default:
		return enum.PaymentMethodTransfer
	}
}

// ReconcileRequest is the validated input for a cash close.
type ReconcileRequest struct {
	AuditorID     uuid.UUID
	ResponsibleID uuid.UUID
	Physical      Breakdown
	Notes         string
}

// ReconcileResult is the persisted record plus the computed totals for
// immediate display.
type ReconcileResult struct {
	Arqueo        database.Arqueo
	System        Breakdown
	Physical      Breakdown
	SystemTotal   decimal.Decimal
	PhysicalTotal decimal.Decimal
	Difference    decimal.Decimal
	Status        string
}

// ArqueoService computes and persists cash reconciliations.
type ArqueoService struct {
	store ArqueoStore
	now   func() time.Time
}

// NewArqueoService creates a new ArqueoService.
func NewArqueoService(store ArqueoStore) *ArqueoService {
	return &ArqueoService{store: store, now: time.Now}
}

// Reconcile sums the responsible's non-cancelled sales for the current
// trading day by payment bucket, compares against the physically counted
// amounts, and persists one immutable arqueo record. Nothing is written
// if any step fails.
func (s *ArqueoService) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	if req.Physical.Cash.IsNegative() || req.Physical.Card.IsNegative() || req.Physical.Transfer.IsNegative() {
		return nil, ErrNegativeCount
	}

	if _, err := s.store.GetStaffByID(ctx, req.AuditorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownAuditor
		}
		return nil, fmt.Errorf("get auditor: %w", err)
	}
	if _, err := s.store.GetStaffByID(ctx, req.ResponsibleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownResponsible
		}
		return nil, fmt.Errorf("get responsible: %w", err)
	}

	start, end := timerange.TradingDay(s.now()).Bounds()
	rows, err := s.store.SumSalesByResponsible(ctx, database.SumSalesByResponsibleParams{
		ResponsibleID: req.ResponsibleID,
		StartDate:     timestamptz(start),
		EndDate:       timestamptz(end),
	})
	if err != nil {
		return nil, fmt.Errorf("sum sales: %w", err)
	}

	var system Breakdown
	for _, row := range rows {
		system = system.add(NormalizeMethod(row.PaymentMethod), numericToDecimal(row.Total))
	}

	systemTotal := system.Total()
	physicalTotal := req.Physical.Total()
	difference := physicalTotal.Sub(systemTotal)

	status := enum.ArqueoStatusBalanced
	switch difference.Sign() {
	case 1:
		status = enum.ArqueoStatusSurplus
	case -1:
		status = enum.ArqueoStatusShortage
	}

	systemPayload, err := system.payload()
	if err != nil {
		return nil, fmt.Errorf("marshal system breakdown: %w", err)
	}
	physicalPayload, err := req.Physical.payload()
	if err != nil {
		return nil, fmt.Errorf("marshal physical breakdown: %w", err)
	}

	notes := textOrNull(req.Notes)
	arqueo, err := s.store.CreateArqueo(ctx, database.CreateArqueoParams{
		AuditorID:         req.AuditorID,
		ResponsibleID:     req.ResponsibleID,
		SystemBreakdown:   systemPayload,
		PhysicalBreakdown: physicalPayload,
		SystemTotal:       decimalToNumeric(systemTotal),
		PhysicalTotal:     decimalToNumeric(physicalTotal),
		Difference:        decimalToNumeric(difference),
		Status:            status,
		Notes:             notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create arqueo: %w", err)
	}

	return &ReconcileResult{
		Arqueo:        arqueo,
		System:        system,
		Physical:      req.Physical,
		SystemTotal:   systemTotal,
		PhysicalTotal: physicalTotal,
		Difference:    difference,
		Status:        status,
	}, nil
}
