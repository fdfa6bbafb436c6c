package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG creates the PostgreSQL-backed appointment repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const apptColumns = `id, name, phone, email, tests, preferred_date, notes,
	house_no, street, landmark, locality, city, state, pincode,
	latitude, longitude, status, fasting_required, slot_hint,
	created_at, updated_at, last_reminder_sent_at`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (
			name, phone, email, tests, preferred_date, notes,
			house_no, street, landmark, locality, city, state, pincode,
			latitude, longitude, status, fasting_required, slot_hint
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18
		) RETURNING id, created_at, updated_at`,
		a.Name, a.Phone, a.Email, a.Tests, a.PreferredDate, a.Notes,
		a.HouseNo, a.Street, a.Landmark, a.Locality, a.City, a.State, a.Pincode,
		a.Latitude, a.Longitude, a.Status, a.FastingRequired, a.SlotHint,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scanAppt(r.pool.QueryRow(ctx,
		`SELECT `+apptColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM bookings WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, *f.Status)
		idx++
	}
	if f.From != nil {
		query += fmt.Sprintf(` AND preferred_date >= $%d`, idx)
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		query += fmt.Sprintf(` AND preferred_date <= $%d`, idx)
		args = append(args, *f.To)
		idx++
	}
	if f.Search != "" {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d)`, idx, idx, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	return collectAppts(rows)
}

func (r *repoPG) UpdateStatus(ctx context.Context, id int64, status Status, notes *string) (*Appointment, error) {
	query := `UPDATE bookings SET status = $2, updated_at = NOW()`
	args := []interface{}{id, status}

	if notes != nil {
		if *notes == "" {
			query += `, notes = NULL`
		} else {
			query += `, notes = $3`
			args = append(args, *notes)
		}
	}
	query += ` WHERE id = $1 RETURNING ` + apptColumns

	a, err := scanAppt(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *repoPG) ListDueForReminder(ctx context.Context, windowStart, windowEnd, resendCutoff time.Time) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+` FROM bookings
		WHERE preferred_date >= $1 AND preferred_date < $2
		  AND status IN ($3, $4)
		  AND (last_reminder_sent_at IS NULL OR last_reminder_sent_at < $5)
		ORDER BY preferred_date, id`,
		windowStart, windowEnd, StatusReceived, StatusConfirmed, resendCutoff)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()

	return collectAppts(rows)
}

func (r *repoPG) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET last_reminder_sent_at = $2, updated_at = $2
		WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.Name, &a.Phone, &a.Email, &a.Tests, &a.PreferredDate, &a.Notes,
		&a.HouseNo, &a.Street, &a.Landmark, &a.Locality, &a.City, &a.State, &a.Pincode,
		&a.Latitude, &a.Longitude, &a.Status, &a.FastingRequired, &a.SlotHint,
		&a.CreatedAt, &a.UpdatedAt, &a.LastReminderSentAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAppts(rows pgx.Rows) ([]*Appointment, error) {
	var appts []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}
