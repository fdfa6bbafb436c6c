package booking

import (
	"context"
	"time"

	"github.com/labvisit/labvisit/internal/platform/notification"
)

// resendInterval is how old a previous reminder must be before a record is
// eligible again.
const resendInterval = 24 * time.Hour

// ReminderStats aggregates one reminder run.
type ReminderStats struct {
	// Processed is the number of eligible records examined.
	Processed int `json:"processed"`
	// Sent is the number of records for which at least one channel
	// succeeded.
	Sent int `json:"sent"`
}

// reminderWindow returns [start of tomorrow, start of the day after) in the
// service's configured timezone, relative to now.
func reminderWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	tomorrow := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return tomorrow, tomorrow.AddDate(0, 0, 1)
}

// SendNextDayReminders selects appointments due for a next-day reminder and
// dispatches the reminder notification for each, sequentially. A record
// counts as sent when at least one channel succeeded, and only then is its
// last_reminder_sent_at stamped. Per-record failures are logged and do not
// abort the batch.
func (s *Service) SendNextDayReminders(ctx context.Context) (ReminderStats, error) {
	now := s.now()
	windowStart, windowEnd := reminderWindow(now, s.loc)
	resendCutoff := now.Add(-resendInterval)

	due, err := s.repo.ListDueForReminder(ctx, windowStart, windowEnd, resendCutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("reminder selection failed")
		return ReminderStats{}, err
	}

	stats := ReminderStats{}
	for _, a := range due {
		stats.Processed++

		if strVal(a.Email) == "" && strVal(a.Phone) == "" {
			s.log.Warn().Int64("booking_id", a.ID).Msg("no contact channel, skipping reminder")
			continue
		}

		res := s.notifier.Dispatch(ctx, notification.Message{
			TemplateID:    "visit-reminder",
			Data:          s.templateData(a),
			CustomerEmail: strVal(a.Email),
			CustomerPhone: strVal(a.Phone),
		})
		if res.Sent == 0 {
			s.log.Error().Int64("booking_id", a.ID).Msg("reminder dispatch failed on all channels")
			continue
		}

		sentAt := s.now()
		if err := s.repo.MarkReminded(ctx, a.ID, sentAt); err != nil {
			// The reminder went out; a bookkeeping failure must not stop the
			// rest of the batch.
			s.log.Error().Err(err).Int64("booking_id", a.ID).Msg("mark reminded failed")
		}
		stats.Sent++
	}

	s.log.Info().
		Int("processed", stats.Processed).
		Int("sent", stats.Sent).
		Time("window_start", windowStart).
		Time("window_end", windowEnd).
		Msg("reminder run complete")

	return stats, nil
}
