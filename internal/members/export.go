package members

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jamiyah-app/jamiyah/internal/rbac"
	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// ExportCSV renders the records visible to the acting user as CSV. The same
// territory scoping as List applies.
func (s *Service) ExportCSV(ctx context.Context, actingUserID string) ([]byte, shared.OpResult) {
	if res := s.authorize(ctx, actingUserID, shared.PermPendataanRead, rbac.NoResource()); !res.Ok() {
		return nil, res
	}

	filters := ListFilters{}
	restricted, regionID, res := s.territoryFilter(ctx, actingUserID)
	if !res.Ok() {
		return nil, res
	}
	if restricted {
		filters.RegionID = &regionID
	}

	list, err := s.repo.ListMembers(ctx, filters)
	if err != nil {
		return nil, s.storeFailure(ctx, "export members", err)
	}
	s.sortByName(list)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "nama_lengkap", "jenis_kelamin", "tanggal_lahir", "alamat", "telepon", "id_deskel"}); err != nil {
		return nil, s.storeFailure(ctx, "export members", err)
	}
	for _, m := range list {
		birth := ""
		if m.BirthDate != nil {
			birth = m.BirthDate.Format("2006-01-02")
		}
		locality := ""
		if m.LocalityID != nil {
			locality = strconv.FormatInt(*m.LocalityID, 10)
		}
		row := []string{
			strconv.FormatInt(m.ID, 10),
			m.FullName,
			m.Gender,
			birth,
			m.Address,
			m.Phone,
			locality,
		}
		if err := w.Write(row); err != nil {
			return nil, s.storeFailure(ctx, "export members", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, s.storeFailure(ctx, "export members", err)
	}
	return buf.Bytes(), shared.ResultOK(fmt.Sprintf("%d baris diekspor.", len(list)))
}
