package nasyath

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// Repository persists activity records in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const activityColumns = `n.id, n.member_id, n.name, n.start_date, n.end_date, n.duration, n.distance, n.venue, n.contact_name, n.contact_phone, n.notes, n.updated_by, n.created_at, n.updated_at`

// ListActivities returns records matching the filters, newest first.
func (r *Repository) ListActivities(ctx context.Context, f ListFilters) ([]Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM nasyath n`
	args := []any{}
	where := ""
	if f.MemberID != nil {
		args = append(args, *f.MemberID)
		where = fmt.Sprintf(" WHERE n.member_id = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		clause := fmt.Sprintf("(n.name ILIKE $%d OR n.venue ILIKE $%d OR n.notes ILIKE $%d)", len(args), len(args), len(args))
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}
	query += where + " ORDER BY n.start_date DESC NULLS LAST, n.id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("nasyath: list: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.MemberID, &a.Name, &a.StartDate, &a.EndDate, &a.Duration, &a.Distance, &a.Venue, &a.ContactName, &a.ContactPhone, &a.Notes, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("nasyath: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) GetActivity(ctx context.Context, id int64) (Activity, error) {
	var a Activity
	err := r.pool.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM nasyath n WHERE n.id = $1`, id,
	).Scan(&a.ID, &a.MemberID, &a.Name, &a.StartDate, &a.EndDate, &a.Duration, &a.Distance, &a.Venue, &a.ContactName, &a.ContactPhone, &a.Notes, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Activity{}, shared.ErrNotFound
	}
	if err != nil {
		return Activity{}, fmt.Errorf("nasyath: get %d: %w", id, err)
	}
	return a, nil
}

func (r *Repository) CreateActivity(ctx context.Context, memberID int64, updatedBy string, in ActivityInput) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO nasyath (member_id, name, start_date, end_date, duration, distance, venue, contact_name, contact_phone, notes, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		memberID, in.Name, in.StartDate, in.EndDate, in.Duration, in.Distance, in.Venue, in.ContactName, in.ContactPhone, in.Notes, updatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("nasyath: create: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateActivity(ctx context.Context, id int64, updatedBy string, in ActivityInput) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE nasyath
		 SET name = $2, start_date = $3, end_date = $4, duration = $5, distance = $6, venue = $7, contact_name = $8, contact_phone = $9, notes = $10, updated_by = $11, updated_at = now()
		 WHERE id = $1`,
		id, in.Name, in.StartDate, in.EndDate, in.Duration, in.Distance, in.Venue, in.ContactName, in.ContactPhone, in.Notes, updatedBy,
	)
	if err != nil {
		return fmt.Errorf("nasyath: update %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteActivity(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM nasyath WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("nasyath: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
