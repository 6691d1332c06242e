package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const staffColumns = `s.id, s.tercero_id, s.email, s.hashed_password, s.role, s.is_active, s.created_at, s.updated_at`

const getStaffByEmail = `
SELECT ` + staffColumns + `
FROM staff s
WHERE s.email = $1 AND s.is_active = true
`

func (q *Queries) GetStaffByEmail(ctx context.Context, email string) (Staff, error) {
	row := q.db.QueryRow(ctx, getStaffByEmail, email)
	return scanStaff(row)
}

const getStaffByID = `
SELECT ` + staffColumns + `
FROM staff s
WHERE s.id = $1
`

func (q *Queries) GetStaffByID(ctx context.Context, id uuid.UUID) (Staff, error) {
	row := q.db.QueryRow(ctx, getStaffByID, id)
	return scanStaff(row)
}

const listStaff = `
SELECT ` + staffColumns + `, t.full_name, t.phone
FROM staff s
JOIN terceros t ON t.id = s.tercero_id
ORDER BY t.full_name
`

// ListStaffRow is a staff member denormalized with its tercero fields.
// One-to-one joins are flattened here so callers never branch on shape.
type ListStaffRow struct {
	Staff
	FullName string
	Phone    pgtype.Text
}

func (q *Queries) ListStaff(ctx context.Context) ([]ListStaffRow, error) {
	rows, err := q.db.Query(ctx, listStaff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListStaffRow
	for rows.Next() {
		var r ListStaffRow
		if err := rows.Scan(
			&r.ID, &r.TerceroID, &r.Email, &r.HashedPassword, &r.Role,
			&r.IsActive, &r.CreatedAt, &r.UpdatedAt, &r.FullName, &r.Phone,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const createStaff = `
INSERT INTO staff (tercero_id, email, hashed_password, role)
VALUES ($1, $2, $3, $4)
RETURNING id, tercero_id, email, hashed_password, role, is_active, created_at, updated_at
`

type CreateStaffParams struct {
	TerceroID      uuid.UUID
	Email          string
	HashedPassword string
	Role           string
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, createStaff, arg.TerceroID, arg.Email, arg.HashedPassword, arg.Role)
	return scanStaff(row)
}

const updateStaff = `
UPDATE staff
SET email = $2, role = $3, updated_at = now()
WHERE id = $1
RETURNING id, tercero_id, email, hashed_password, role, is_active, created_at, updated_at
`

type UpdateStaffParams struct {
	ID    uuid.UUID
	Email string
	Role  string
}

func (q *Queries) UpdateStaff(ctx context.Context, arg UpdateStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, updateStaff, arg.ID, arg.Email, arg.Role)
	return scanStaff(row)
}

const setStaffActive = `
UPDATE staff
SET is_active = $2, updated_at = now()
WHERE id = $1
RETURNING id, tercero_id, email, hashed_password, role, is_active, created_at, updated_at
`

type SetStaffActiveParams struct {
	ID       uuid.UUID
	IsActive bool
}

func (q *Queries) SetStaffActive(ctx context.Context, arg SetStaffActiveParams) (Staff, error) {
	row := q.db.QueryRow(ctx, setStaffActive, arg.ID, arg.IsActive)
	return scanStaff(row)
}

func scanStaff(row interface{ Scan(...interface{}) error }) (Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.TerceroID, &s.Email, &s.HashedPassword, &s.Role,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
