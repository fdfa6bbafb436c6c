package booking

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// csvHeader is the fixed export header. Column order is part of the
// contract.
var csvHeader = []string{
	"ID", "Name", "Phone", "Email", "Tests", "Preferred Date", "Status",
	"Address", "Coordinates", "Notes", "Slot Hint", "Fasting Required",
	"Created At", "Updated At", "Last Reminder Sent",
}

// ExportCSV writes all appointments matching the filter as CSV. Zero matches
// still produce the header line.
func (s *Service) ExportCSV(ctx context.Context, f Filter, w io.Writer) error {
	appts, err := s.repo.List(ctx, f)
	if err != nil {
		return fmt.Errorf("export bookings: %w", err)
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export csv: write header: %w", err)
	}

	for _, a := range appts {
		if err := cw.Write(s.csvRecord(a)); err != nil {
			return fmt.Errorf("export csv: write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (s *Service) csvRecord(a *Appointment) []string {
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.Name,
		strVal(a.Phone),
		strVal(a.Email),
		strings.Join(a.Tests, "; "),
		// Same zone the notification templates render the visit date in.
		a.PreferredDate.In(s.loc).Format("2006-01-02"),
		string(a.Status),
		a.AddressLine(),
		a.CoordinatesLine(),
		strVal(a.Notes),
		strVal(a.SlotHint),
		yesNo(a.FastingRequired),
		a.CreatedAt.Format(time.RFC3339),
		a.UpdatedAt.Format(time.RFC3339),
		formatNullableTime(a.LastReminderSentAt),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatNullableTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
