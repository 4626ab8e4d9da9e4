package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// Repository persists members in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `m.id, m.full_name, m.gender, m.birth_date, m.address, m.phone, m.locality_id, m.created_at, m.updated_at`

// ListMembers returns records matching the filters. When RegionID is set the
// listing is restricted to localities under that region.
func (r *Repository) ListMembers(ctx context.Context, f ListFilters) ([]Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members m`
	args := []any{}
	where := ""
	if f.RegionID != nil {
		query += `
		JOIN localities l ON l.id = m.locality_id
		JOIN districts d ON d.id = l.district_id
		JOIN sub_regions s ON s.id = d.sub_region_id`
		args = append(args, *f.RegionID)
		where = fmt.Sprintf(" WHERE s.region_id = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		clause := fmt.Sprintf("m.full_name ILIKE $%d", len(args))
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}
	query += where + " ORDER BY m.full_name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("members: list: %w", err)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.FullName, &m.Gender, &m.BirthDate, &m.Address, &m.Phone, &m.LocalityID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("members: scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) GetMember(ctx context.Context, id int64) (Member, error) {
	var m Member
	err := r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members m WHERE m.id = $1`, id,
	).Scan(&m.ID, &m.FullName, &m.Gender, &m.BirthDate, &m.Address, &m.Phone, &m.LocalityID, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, shared.ErrNotFound
	}
	if err != nil {
		return Member{}, fmt.Errorf("members: get %d: %w", id, err)
	}
	return m, nil
}

func (r *Repository) CreateMember(ctx context.Context, in MemberInput) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO members (full_name, gender, birth_date, address, phone, locality_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		in.FullName, in.Gender, in.BirthDate, in.Address, in.Phone, in.LocalityID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("members: create: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateMember(ctx context.Context, id int64, in MemberInput) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE members
		 SET full_name = $2, gender = $3, birth_date = $4, address = $5, phone = $6, locality_id = $7, updated_at = now()
		 WHERE id = $1`,
		id, in.FullName, in.Gender, in.BirthDate, in.Address, in.Phone, in.LocalityID,
	)
	if err != nil {
		return fmt.Errorf("members: update %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteMember(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("members: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
