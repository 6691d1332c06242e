package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createTercero = `
INSERT INTO terceros (full_name, email, phone)
VALUES ($1, $2, $3)
RETURNING id, full_name, email, phone, created_at
`

type CreateTerceroParams struct {
	FullName string
	Email    pgtype.Text
	Phone    pgtype.Text
}

func (q *Queries) CreateTercero(ctx context.Context, arg CreateTerceroParams) (Tercero, error) {
	row := q.db.QueryRow(ctx, createTercero, arg.FullName, arg.Email, arg.Phone)
	var t Tercero
	err := row.Scan(&t.ID, &t.FullName, &t.Email, &t.Phone, &t.CreatedAt)
	return t, err
}

const getTercero = `
SELECT id, full_name, email, phone, created_at
FROM terceros
WHERE id = $1
`

func (q *Queries) GetTercero(ctx context.Context, id uuid.UUID) (Tercero, error) {
	row := q.db.QueryRow(ctx, getTercero, id)
	var t Tercero
	err := row.Scan(&t.ID, &t.FullName, &t.Email, &t.Phone, &t.CreatedAt)
	return t, err
}
