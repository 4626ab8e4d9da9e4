package territory

import (
	"context"
	"sort"
	"sync"
)

// MemoryDirectory is an in-memory Directory used in tests and in the
// file-backed deployment mode.
type MemoryDirectory struct {
	mu         sync.RWMutex
	regions    map[int64]Region
	subRegions map[int64]SubRegion
	districts  map[int64]District
	localities map[int64]Locality
}

// NewMemoryDirectory constructs an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		regions:    make(map[int64]Region),
		subRegions: make(map[int64]SubRegion),
		districts:  make(map[int64]District),
		localities: make(map[int64]Locality),
	}
}

// AddRegion inserts a region.
func (d *MemoryDirectory) AddRegion(region Region) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regions[region.ID] = region
}

// AddSubRegion inserts a sub-region.
func (d *MemoryDirectory) AddSubRegion(sub SubRegion) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subRegions[sub.ID] = sub
}

// AddDistrict inserts a district.
func (d *MemoryDirectory) AddDistrict(district District) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.districts[district.ID] = district
}

// AddLocality inserts a locality.
func (d *MemoryDirectory) AddLocality(locality Locality) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.localities[locality.ID] = locality
}

// AddChain inserts a full region→locality path in one call.
func (d *MemoryDirectory) AddChain(region Region, sub SubRegion, district District, locality Locality) {
	d.AddRegion(region)
	sub.RegionID = region.ID
	d.AddSubRegion(sub)
	district.SubRegionID = sub.ID
	d.AddDistrict(district)
	locality.DistrictID = district.ID
	d.AddLocality(locality)
}

// RegionOf walks the ancestor chain locality→district→sub-region→region.
func (d *MemoryDirectory) RegionOf(ctx context.Context, localityID int64) (int64, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	locality, ok := d.localities[localityID]
	if !ok {
		return 0, false, nil
	}
	district, ok := d.districts[locality.DistrictID]
	if !ok {
		return 0, false, nil
	}
	sub, ok := d.subRegions[district.SubRegionID]
	if !ok {
		return 0, false, nil
	}
	region, ok := d.regions[sub.RegionID]
	if !ok {
		return 0, false, nil
	}
	return region.ID, true, nil
}

// Regions returns all regions ordered by name.
func (d *MemoryDirectory) Regions(ctx context.Context) ([]Region, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	regions := make([]Region, 0, len(d.regions))
	for _, region := range d.regions {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Name < regions[j].Name })
	return regions, nil
}

// SubRegions returns the sub-regions of a region ordered by name.
func (d *MemoryDirectory) SubRegions(ctx context.Context, regionID int64) ([]SubRegion, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var subs []SubRegion
	for _, sub := range d.subRegions {
		if sub.RegionID == regionID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs, nil
}

// Districts returns the districts of a sub-region ordered by name.
func (d *MemoryDirectory) Districts(ctx context.Context, subRegionID int64) ([]District, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var districts []District
	for _, district := range d.districts {
		if district.SubRegionID == subRegionID {
			districts = append(districts, district)
		}
	}
	sort.Slice(districts, func(i, j int) bool { return districts[i].Name < districts[j].Name })
	return districts, nil
}

// Localities returns the localities of a district ordered by name.
func (d *MemoryDirectory) Localities(ctx context.Context, districtID int64) ([]Locality, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var localities []Locality
	for _, locality := range d.localities {
		if locality.DistrictID == districtID {
			localities = append(localities, locality)
		}
	}
	sort.Slice(localities, func(i, j int) bool { return localities[i].Name < localities[j].Name })
	return localities, nil
}

var _ Directory = (*MemoryDirectory)(nil)
