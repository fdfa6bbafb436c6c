package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/labvisit/labvisit/internal/platform/notification"
)

// Notifier is the outbound fan-out the service triggers on intake and for
// reminders. Satisfied by *notification.Dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, msg notification.Message) notification.Result
}

// Service implements the appointment lifecycle: intake, querying, status
// updates, CSV export and the reminder batch.
type Service struct {
	repo     Repository
	notifier Notifier
	validate *validator.Validate
	log      zerolog.Logger

	// loc is the timezone the reminder window is computed in.
	loc *time.Location

	// now is swappable for tests.
	now func() time.Time
}

// NewService constructs the booking service.
func NewService(repo Repository, notifier Notifier, validate *validator.Validate, log zerolog.Logger, loc *time.Location) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		validate: validate,
		log:      log,
		loc:      loc,
		now:      time.Now,
	}
}

// CreateInput is the public intake payload.
type CreateInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
	Email string `json:"email" validate:"omitempty,email"`

	Tests         []string  `json:"tests" validate:"required,min=1,dive,required"`
	PreferredDate time.Time `json:"preferred_date" validate:"required"`
	Notes         string    `json:"notes"`

	HouseNo  string `json:"house_no"`
	Street   string `json:"street"`
	Landmark string `json:"landmark"`
	Locality string `json:"locality"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	SlotHint string `json:"slot_hint"`
}

// ValidationError marks an intake rejection so handlers can answer 400
// instead of 500.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func (s *Service) validateInput(in *CreateInput) error {
	if err := s.validate.Struct(in); err != nil {
		return &ValidationError{msg: err.Error()}
	}
	if in.Phone == "" && in.Email == "" {
		return invalidf("at least one of phone or email is required")
	}
	if in.PreferredDate.Before(s.now()) {
		return invalidf("preferred date must not be in the past")
	}
	hasCoords := in.Latitude != nil && in.Longitude != nil
	hasAddress := in.Street != "" && in.Locality != "" && in.City != ""
	if !hasCoords && !hasAddress {
		return invalidf("either coordinates or street, locality and city are required")
	}
	return nil
}

// Create validates the intake payload, persists the appointment with status
// Received and the derived fasting flag, and fans out booking notifications.
// Notification failures are logged and never fail the booking.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Appointment, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	a := &Appointment{
		Name:            strings.TrimSpace(in.Name),
		Phone:           strPtr(in.Phone),
		Email:           strPtr(in.Email),
		Tests:           in.Tests,
		PreferredDate:   in.PreferredDate,
		Notes:           strPtr(in.Notes),
		HouseNo:         strPtr(in.HouseNo),
		Street:          strPtr(in.Street),
		Landmark:        strPtr(in.Landmark),
		Locality:        strPtr(in.Locality),
		City:            strPtr(in.City),
		State:           strPtr(in.State),
		Pincode:         strPtr(in.Pincode),
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		Status:          StatusReceived,
		FastingRequired: RequiresFasting(in.Tests),
		SlotHint:        strPtr(in.SlotHint),
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error().Err(err).Msg("create booking failed")
		return nil, fmt.Errorf("create booking: %w", err)
	}

	res := s.notifier.Dispatch(ctx, notification.Message{
		TemplateID:      "booking-received",
		AdminTemplateID: "admin-new-booking",
		Data:            s.templateData(a),
		CustomerEmail:   strVal(a.Email),
		CustomerPhone:   strVal(a.Phone),
		NotifyAdmin:     true,
	})
	s.log.Info().
		Int64("booking_id", a.ID).
		Int("channels_attempted", res.Attempted).
		Int("channels_sent", res.Sent).
		Msg("booking created")

	return a, nil
}

// Get returns the appointment or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all appointments matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	return s.repo.List(ctx, f)
}

// UpdateStatus applies a status and optional notes change to one
// appointment. notes == nil preserves existing notes; a pointer to the empty
// string clears them. Status changes deliberately trigger no notifications.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status, notes *string) (*Appointment, error) {
	if !status.Valid() {
		return nil, invalidf("invalid status: %s", status)
	}
	return s.repo.UpdateStatus(ctx, id, status, notes)
}

func (s *Service) templateData(a *Appointment) map[string]string {
	fasting := ""
	if a.FastingRequired {
		fasting = "Fasting is required before sample collection. "
	}
	return map[string]string{
		"id":      strconv.FormatInt(a.ID, 10),
		"name":    a.Name,
		"tests":   strings.Join(a.Tests, "; "),
		"date":    a.PreferredDate.In(s.loc).Format("2006-01-02"),
		"fasting": fasting,
		"contact": a.ContactLine(),
	}
}
