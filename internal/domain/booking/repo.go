package booking

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound signals that no appointment exists for the given id. It is a
// result, not a failure: callers translate it to an absent response.
var ErrNotFound = errors.New("appointment not found")

// Repository defines the persistence interface for appointments. There is no
// delete: records are retained for the life of the system.
type Repository interface {
	// Create persists a new appointment and fills ID, CreatedAt and
	// UpdatedAt.
	Create(ctx context.Context, a *Appointment) error

	// GetByID returns the appointment or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Appointment, error)

	// List returns all appointments matching the filter, newest first.
	List(ctx context.Context, f Filter) ([]*Appointment, error)

	// UpdateStatus sets the status and optionally the notes of one row and
	// refreshes updated_at. notes == nil preserves existing notes; a pointer
	// to the empty string clears them. Returns ErrNotFound when the id does
	// not exist, in which case no row is touched.
	UpdateStatus(ctx context.Context, id int64, status Status, notes *string) (*Appointment, error)

	// ListDueForReminder returns appointments with preferred_date in
	// [windowStart, windowEnd), status Received or Confirmed, and
	// last_reminder_sent_at either null or before resendCutoff.
	ListDueForReminder(ctx context.Context, windowStart, windowEnd, resendCutoff time.Time) ([]*Appointment, error)

	// MarkReminded records a successful reminder dispatch, setting both
	// last_reminder_sent_at and updated_at to at.
	MarkReminded(ctx context.Context, id int64, at time.Time) error
}
