package territory

import "context"

// Directory is the read-only lookup surface over the territory tree.
type Directory interface {
	// RegionOf resolves the top-level region a locality belongs to. The
	// second return value is false when the locality does not exist or its
	// ancestor chain is broken; that is a data problem, not an error.
	RegionOf(ctx context.Context, localityID int64) (int64, bool, error)

	Regions(ctx context.Context) ([]Region, error)
	SubRegions(ctx context.Context, regionID int64) ([]SubRegion, error)
	Districts(ctx context.Context, subRegionID int64) ([]District, error)
	Localities(ctx context.Context, districtID int64) ([]Locality, error)
}
