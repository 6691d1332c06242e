package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createArqueo = `
INSERT INTO arqueos (auditor_id, responsible_id, system_breakdown, physical_breakdown,
                     system_total, physical_total, difference, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, auditor_id, responsible_id, system_breakdown, physical_breakdown,
          system_total, physical_total, difference, status, notes, created_at
`

type CreateArqueoParams struct {
	AuditorID         uuid.UUID
	ResponsibleID     uuid.UUID
	SystemBreakdown   []byte
	PhysicalBreakdown []byte
	SystemTotal       pgtype.Numeric
	PhysicalTotal     pgtype.Numeric
	Difference        pgtype.Numeric
	Status            string
	Notes             pgtype.Text
}

func (q *Queries) CreateArqueo(ctx context.Context, arg CreateArqueoParams) (Arqueo, error) {
	row := q.db.QueryRow(ctx, createArqueo,
		arg.AuditorID, arg.ResponsibleID, arg.SystemBreakdown, arg.PhysicalBreakdown,
		arg.SystemTotal, arg.PhysicalTotal, arg.Difference, arg.Status, arg.Notes)
	return scanArqueo(row)
}

const listArqueos = `
SELECT a.id, a.auditor_id, a.responsible_id, a.system_breakdown, a.physical_breakdown,
       a.system_total, a.physical_total, a.difference, a.status, a.notes, a.created_at,
       ta.full_name, tr.full_name
FROM arqueos a
JOIN staff sa ON sa.id = a.auditor_id
JOIN terceros ta ON ta.id = sa.tercero_id
JOIN staff sr ON sr.id = a.responsible_id
JOIN terceros tr ON tr.id = sr.tercero_id
ORDER BY a.created_at DESC
LIMIT $1
`

// ListArqueosRow carries the display names resolved through the tercero
// records of both staff members.
type ListArqueosRow struct {
	Arqueo
	AuditorName     string
	ResponsibleName string
}

func (q *Queries) ListArqueos(ctx context.Context, limit int32) ([]ListArqueosRow, error) {
	rows, err := q.db.Query(ctx, listArqueos, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListArqueosRow
	for rows.Next() {
		var r ListArqueosRow
		if err := rows.Scan(&r.ID, &r.AuditorID, &r.ResponsibleID,
			&r.SystemBreakdown, &r.PhysicalBreakdown, &r.SystemTotal, &r.PhysicalTotal,
			&r.Difference, &r.Status, &r.Notes, &r.CreatedAt,
			&r.AuditorName, &r.ResponsibleName); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func scanArqueo(row interface{ Scan(...interface{}) error }) (Arqueo, error) {
	var a Arqueo
	err := row.Scan(&a.ID, &a.AuditorID, &a.ResponsibleID,
		&a.SystemBreakdown, &a.PhysicalBreakdown, &a.SystemTotal, &a.PhysicalTotal,
		&a.Difference, &a.Status, &a.Notes, &a.CreatedAt)
	return a, err
}
