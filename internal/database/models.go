package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Tercero is a generic person record. Customers always have one; staff
// members link to one through staff.tercero_id.
type Tercero struct {
	ID        uuid.UUID
	FullName  string
	Email     pgtype.Text
	Phone     pgtype.Text
	CreatedAt time.Time
}

type Staff struct {
	ID             uuid.UUID
	TerceroID      uuid.UUID
	Email          string
	HashedPassword string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Category struct {
	ID        uuid.UUID
	Name      string
	SortOrder int32
	IsActive  bool
	CreatedAt time.Time
}

// Product carries no price column; prices live in product_prices and are
// versioned by activation date.
type Product struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	ImageURL    pgtype.Text
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductPrice struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	Price       pgtype.Numeric
	ActivatedAt time.Time
}

type Order struct {
	ID               uuid.UUID
	CustomerID       uuid.UUID
	ResponsibleID    pgtype.UUID
	Status           string
	PaymentMethod    pgtype.Text
	PaymentReference pgtype.Text
	TotalAmount      pgtype.Numeric
	Notes            pgtype.Text
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Notes     pgtype.Text
}

// Arqueo is a cash reconciliation record. Rows are append-only; the
// breakdowns are stored as jsonb payloads.
type Arqueo struct {
	ID                uuid.UUID
	AuditorID         uuid.UUID
	ResponsibleID     uuid.UUID
	SystemBreakdown   []byte
	PhysicalBreakdown []byte
	SystemTotal       pgtype.Numeric
	PhysicalTotal     pgtype.Numeric
	Difference        pgtype.Numeric
	Status            string
	Notes             pgtype.Text
	CreatedAt         time.Time
}
