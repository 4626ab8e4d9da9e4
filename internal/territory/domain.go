// Package territory models the fixed four-level geographic hierarchy
// (region, sub-region, district, locality) used to scope access decisions.
package territory

// Region is the top level of the territory tree.
type Region struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SubRegion belongs to exactly one Region.
type SubRegion struct {
	ID       int64  `json:"id"`
	RegionID int64  `json:"region_id"`
	Name     string `json:"name"`
}

// District belongs to exactly one SubRegion.
type District struct {
	ID          int64  `json:"id"`
	SubRegionID int64  `json:"sub_region_id"`
	Name        string `json:"name"`
}

// Locality is the leaf level. Every locality has exactly one path up to a region.
type Locality struct {
	ID         int64  `json:"id"`
	DistrictID int64  `json:"district_id"`
	Name       string `json:"name"`
}
