package territory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed territory lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RegionOf resolves a locality to its region through one join query.
func (r *Repository) RegionOf(ctx context.Context, localityID int64) (int64, bool, error) {
	const query = `
		SELECT re.id
		FROM localities lo
		JOIN districts di ON lo.district_id = di.id
		JOIN sub_regions sr ON di.sub_region_id = sr.id
		JOIN regions re ON sr.region_id = re.id
		WHERE lo.id = $1`
	var regionID int64
	if err := r.pool.QueryRow(ctx, query, localityID).Scan(&regionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return regionID, true, nil
}

// Regions returns all regions ordered by name.
func (r *Repository) Regions(ctx context.Context) ([]Region, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM regions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var regions []Region
	for rows.Next() {
		var region Region
		if err := rows.Scan(&region.ID, &region.Name); err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, rows.Err()
}

// SubRegions returns the sub-regions of a region ordered by name.
func (r *Repository) SubRegions(ctx context.Context, regionID int64) ([]SubRegion, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, region_id, name FROM sub_regions WHERE region_id = $1 ORDER BY name`, regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []SubRegion
	for rows.Next() {
		var sub SubRegion
		if err := rows.Scan(&sub.ID, &sub.RegionID, &sub.Name); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Districts returns the districts of a sub-region ordered by name.
func (r *Repository) Districts(ctx context.Context, subRegionID int64) ([]District, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sub_region_id, name FROM districts WHERE sub_region_id = $1 ORDER BY name`, subRegionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var districts []District
	for rows.Next() {
		var d District
		if err := rows.Scan(&d.ID, &d.SubRegionID, &d.Name); err != nil {
			return nil, err
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

// Localities returns the localities of a district ordered by name.
func (r *Repository) Localities(ctx context.Context, districtID int64) ([]Locality, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, district_id, name FROM localities WHERE district_id = $1 ORDER BY name`, districtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var localities []Locality
	for rows.Next() {
		var lo Locality
		if err := rows.Scan(&lo.ID, &lo.DistrictID, &lo.Name); err != nil {
			return nil, err
		}
		localities = append(localities, lo)
	}
	return localities, rows.Err()
}

var _ Directory = (*Repository)(nil)
