package nasyath

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jamiyah-app/jamiyah/internal/shared"
)

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// ExportCSV renders the records visible to the acting user as CSV. The same
// ownership scoping as List applies.
func (s *Service) ExportCSV(ctx context.Context, actingUserID string) ([]byte, shared.OpResult) {
	if actingUserID == "" {
		return nil, shared.ResultUnauthorized()
	}
	global, res := s.hasGlobal(ctx, actingUserID, shared.PermNasyathRead)
	if !res.Ok() {
		return nil, res
	}

	filters := ListFilters{}
	if !global {
		memberID, res := s.ownMember(ctx, actingUserID)
		if !res.Ok() {
			return nil, res
		}
		if memberID == nil {
			return nil, shared.ResultForbidden("Akses ditolak: akun Anda tidak terhubung dengan data anggota.")
		}
		filters.MemberID = memberID
	}

	list, err := s.repo.ListActivities(ctx, filters)
	if err != nil {
		return nil, s.storeFailure(ctx, "export activities", err)
	}
	sortByStart(list)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "id_anggota", "kegiatan", "tanggal_mulai", "tanggal_selesai", "durasi", "jarak", "tempat", "nama_kontak", "telepon_kontak", "keterangan"}); err != nil {
		return nil, s.storeFailure(ctx, "export activities", err)
	}
	for _, a := range list {
		row := []string{
			strconv.FormatInt(a.ID, 10),
			strconv.FormatInt(a.MemberID, 10),
			a.Name,
			dateOrEmpty(a.StartDate),
			dateOrEmpty(a.EndDate),
			a.Duration,
			a.Distance,
			a.Venue,
			a.ContactName,
			a.ContactPhone,
			a.Notes,
		}
		if err := w.Write(row); err != nil {
			return nil, s.storeFailure(ctx, "export activities", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, s.storeFailure(ctx, "export activities", err)
	}
	return buf.Bytes(), shared.ResultOK(fmt.Sprintf("%d baris diekspor.", len(list)))
}
