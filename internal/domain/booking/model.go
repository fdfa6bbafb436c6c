package booking

import (
	"strconv"
	"strings"
	"time"
)

// Status is the workflow state of an appointment. Transitions are not
// constrained: any status may follow any other.
type Status string

const (
	StatusReceived  Status = "Received"
	StatusContacted Status = "Contacted"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

var validStatuses = map[Status]bool{
	StatusReceived:  true,
	StatusContacted: true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool { return validStatuses[s] }

// fastingTests are the panels that require the patient to fast before
// sample collection.
var fastingTests = map[string]bool{
	"CBC":           true,
	"KFT":           true,
	"Lipid Profile": true,
}

// RequiresFasting reports whether any requested test mandates fasting.
func RequiresFasting(tests []string) bool {
	for _, t := range tests {
		if fastingTests[t] {
			return true
		}
	}
	return false
}

// Appointment maps to the bookings table: one row per home sample-collection
// request.
type Appointment struct {
	ID    int64   `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Phone *string `db:"phone" json:"phone,omitempty"`
	Email *string `db:"email" json:"email,omitempty"`

	Tests         []string  `db:"tests" json:"tests"`
	PreferredDate time.Time `db:"preferred_date" json:"preferred_date"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`

	HouseNo  *string `db:"house_no" json:"house_no,omitempty"`
	Street   *string `db:"street" json:"street,omitempty"`
	Landmark *string `db:"landmark" json:"landmark,omitempty"`
	Locality *string `db:"locality" json:"locality,omitempty"`
	City     *string `db:"city" json:"city,omitempty"`
	State    *string `db:"state" json:"state,omitempty"`
	Pincode  *string `db:"pincode" json:"pincode,omitempty"`

	Latitude  *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`

	Status          Status  `db:"status" json:"status"`
	FastingRequired bool    `db:"fasting_required" json:"fasting_required"`
	SlotHint        *string `db:"slot_hint" json:"slot_hint,omitempty"`

	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	LastReminderSentAt *time.Time `db:"last_reminder_sent_at" json:"last_reminder_sent_at,omitempty"`
}

// AddressLine joins the non-empty address parts with ", ", in fixed order.
func (a *Appointment) AddressLine() string {
	parts := []*string{a.HouseNo, a.Street, a.Landmark, a.Locality, a.City, a.State, a.Pincode}
	var present []string
	for _, p := range parts {
		if p != nil && *p != "" {
			present = append(present, *p)
		}
	}
	return strings.Join(present, ", ")
}

// CoordinatesLine renders "<lat>, <lng>" when both coordinates are present,
// otherwise the empty string.
func (a *Appointment) CoordinatesLine() string {
	if a.Latitude == nil || a.Longitude == nil {
		return ""
	}
	return strconv.FormatFloat(*a.Latitude, 'f', -1, 64) + ", " +
		strconv.FormatFloat(*a.Longitude, 'f', -1, 64)
}

// HasCoordinates reports whether both latitude and longitude are set.
func (a *Appointment) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// ContactLine renders phone and email for admin notifications, skipping
// whichever is absent.
func (a *Appointment) ContactLine() string {
	var parts []string
	if a.Phone != nil && *a.Phone != "" {
		parts = append(parts, *a.Phone)
	}
	if a.Email != nil && *a.Email != "" {
		parts = append(parts, *a.Email)
	}
	return strings.Join(parts, ", ")
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
