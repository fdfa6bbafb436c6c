package booking

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func TestReminderWindow(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, time.September, 1, 22, 30, 0, 0, time.UTC) // Sep 2, 04:00 IST

	start, end := reminderWindow(now, loc)

	wantStart := time.Date(2026, time.September, 3, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2026, time.September, 4, 0, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Errorf("window start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("window end = %v, want %v", end, wantEnd)
	}
}

func insertForReminder(t *testing.T, repo *mockRepo, date time.Time, status Status) *Appointment {
	t.Helper()
	phone := "+919811122233"
	a := &Appointment{
		Name:          "Asha Rao",
		Phone:         &phone,
		Tests:         []string{"CBC"},
		PreferredDate: date,
		Status:        status,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return a
}

func TestSendNextDayReminders_SelectsOnlyTomorrow(t *testing.T) {
	svc, repo, notifier := newTestService()

	tomorrow := time.Date(2026, time.September, 2, 9, 0, 0, 0, time.UTC)
	insertForReminder(t, repo, tomorrow, StatusReceived)
	insertForReminder(t, repo, tomorrow.AddDate(0, 0, 1), StatusReceived) // day after
	insertForReminder(t, repo, fixedNow, StatusReceived)                  // today

	stats, err := svc.SendNextDayReminders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 1 || stats.Sent != 1 {
		t.Errorf("stats = %+v, want processed 1 sent 1", stats)
	}
	if len(notifier.msgs) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(notifier.msgs))
	}
	msg := notifier.msgs[0]
	if msg.TemplateID != "visit-reminder" {
		t.Errorf("template = %q, want visit-reminder", msg.TemplateID)
	}
	if msg.NotifyAdmin {
		t.Error("reminders must not notify the admin")
	}
}

func TestSendNextDayReminders_SkipsTerminalStatuses(t *testing.T) {
	svc, repo, _ := newTestService()

	tomorrow := time.Date(2026, time.September, 2, 9, 0, 0, 0, time.UTC)
	insertForReminder(t, repo, tomorrow, StatusCompleted)
	insertForReminder(t, repo, tomorrow, StatusCancelled)
	insertForReminder(t, repo, tomorrow, StatusContacted)
	confirmed := insertForReminder(t, repo, tomorrow, StatusConfirmed)

	stats, err := svc.SendNextDayReminders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 1 {
		t.Fatalf("stats = %+v, want only the confirmed booking processed", stats)
	}

	got, _ := repo.GetByID(context.Background(), confirmed.ID)
	if got.LastReminderSentAt == nil {
		t.Error("confirmed booking should be stamped after the run")
	}
}

func TestSendNextDayReminders_IdempotentWithinADay(t *testing.T) {
	svc, repo, _ := newTestService()

	tomorrow := time.Date(2026, time.September, 2, 9, 0, 0, 0, time.UTC)
	a := insertForReminder(t, repo, tomorrow, StatusReceived)

	stats, err := svc.SendNextDayReminders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Sent != 1 {
		t.Fatalf("first run: stats = %+v", stats)
	}

	got, _ := repo.GetByID(context.Background(), a.ID)
	if got.LastReminderSentAt == nil || !got.LastReminderSentAt.Equal(fixedNow) {
		t.Fatalf("expected stamp at %v, got %v", fixedNow, got.LastReminderSentAt)
	}

	// An hour later, same day: the stamp is fresh, nothing to do.
	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	stats, err = svc.SendNextDayReminders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 0 {
		t.Errorf("second run: stats = %+v, want nothing processed", stats)
	}
}

func TestSendNextDayReminders_FailureDoesNotAbortBatch(t *testing.T) {
	svc, repo, notifier := newTestService()

	tomorrow := time.Date(2026, time.September, 2, 9, 0, 0, 0, time.UTC)
	a := insertForReminder(t, repo, tomorrow, StatusReceived)
	b := insertForReminder(t, repo, tomorrow, StatusReceived)

	notifier.failIDs[strconv.FormatInt(a.ID, 10)] = true

	stats, err := svc.SendNextDayReminders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 2 || stats.Sent != 1 {
		t.Errorf("stats = %+v, want processed 2 sent 1", stats)
	}

	gotA, _ := repo.GetByID(context.Background(), a.ID)
	if gotA.LastReminderSentAt != nil {
		t.Error("failed reminder must not be stamped")
	}
	gotB, _ := repo.GetByID(context.Background(), b.ID)
	if gotB.LastReminderSentAt == nil {
		t.Error("successful reminder must be stamped")
	}
}

func TestSendNextDayReminders_NoContactCountedButNotSent(t *testing.T) {
	svc, repo, notifier := newTestService()

	tomorrow := time.Date(2026, time.September, 2, 9, 0, 0, 0, time.UTC)
	a := insertForReminder(t, repo, tomorrow, StatusReceived)
	repo.appts[a.ID].Phone = nil

	stats, err := svc.SendNextDayReminders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 1 || stats.Sent != 0 {
		t.Errorf("stats = %+v, want processed 1 sent 0", stats)
	}
	if len(notifier.msgs) != 0 {
		t.Error("no dispatch expected without a contact method")
	}
}
