package booking

import (
	"sort"
	"strings"
	"time"
)

// Filter is the optional predicate set for listing and exporting
// appointments. Zero-value fields are ignored; supplied predicates combine
// with AND.
type Filter struct {
	// Status matches appointments with exactly this status.
	Status *Status
	// From/To bound preferred_date inclusively; either may be nil.
	From *time.Time
	To   *time.Time
	// Search is a case-insensitive substring matched against name, phone and
	// email (OR semantics).
	Search string
}

// Matches mirrors the repository's SQL predicate for in-memory appointment
// sets.
func (f Filter) Matches(a *Appointment) bool {
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.From != nil && a.PreferredDate.Before(*f.From) {
		return false
	}
	if f.To != nil && a.PreferredDate.After(*f.To) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(a.Name), needle) &&
			!strings.Contains(strings.ToLower(strVal(a.Phone)), needle) &&
			!strings.Contains(strings.ToLower(strVal(a.Email)), needle) {
			return false
		}
	}
	return true
}

// SortNewestFirst orders appointments by creation time descending, breaking
// ties by id descending so equal timestamps still order deterministically.
func SortNewestFirst(appts []*Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		if !appts[i].CreatedAt.Equal(appts[j].CreatedAt) {
			return appts[i].CreatedAt.After(appts[j].CreatedAt)
		}
		return appts[i].ID > appts[j].ID
	})
}
