package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Message describes one fan-out: which templates to render, with what data,
// and which recipients apply.
type Message struct {
	// TemplateID is the customer email template; the "<id>-sms" variant is
	// used for the SMS channel.
	TemplateID string
	// AdminTemplateID is the admin email template (same "-sms" convention).
	// Ignored unless NotifyAdmin is set.
	AdminTemplateID string
	Data            map[string]string
	CustomerEmail   string
	CustomerPhone   string
	NotifyAdmin     bool
}

// Result aggregates a fan-out: how many channel sends were attempted and how
// many succeeded.
type Result struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
}

// Dispatcher fans a message out across every applicable channel. Channel
// sends run concurrently and are joined before Dispatch returns; individual
// failures are logged and never abort the remaining channels.
type Dispatcher struct {
	email EmailSender
	sms   SMSSender
	tpl   *TemplateEngine
	log   zerolog.Logger

	adminEmail string
	adminPhone string

	mu      sync.Mutex
	history []*Notification
}

// NewDispatcher constructs a Dispatcher. adminEmail/adminPhone may be empty,
// in which case the corresponding admin channel is skipped.
func NewDispatcher(email EmailSender, sms SMSSender, tpl *TemplateEngine, log zerolog.Logger, adminEmail, adminPhone string) *Dispatcher {
	return &Dispatcher{
		email:      email,
		sms:        sms,
		tpl:        tpl,
		log:        log,
		adminEmail: adminEmail,
		adminPhone: adminPhone,
	}
}

type attempt struct {
	channel    Channel
	recipient  string
	templateID string
}

// Dispatch attempts all applicable channels for msg and blocks until every
// attempt has completed. The returned Result counts attempts and successes;
// Dispatch itself never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Result {
	var attempts []attempt
	if msg.CustomerEmail != "" {
		attempts = append(attempts, attempt{ChannelEmail, msg.CustomerEmail, msg.TemplateID})
	}
	if msg.CustomerPhone != "" {
		attempts = append(attempts, attempt{ChannelSMS, msg.CustomerPhone, msg.TemplateID + "-sms"})
	}
	if msg.NotifyAdmin {
		if d.adminEmail != "" {
			attempts = append(attempts, attempt{ChannelEmail, d.adminEmail, msg.AdminTemplateID})
		} else {
			d.log.Debug().Str("template", msg.AdminTemplateID).Msg("admin email not configured, skipping channel")
		}
		if d.adminPhone != "" {
			attempts = append(attempts, attempt{ChannelSMS, d.adminPhone, msg.AdminTemplateID + "-sms"})
		} else {
			d.log.Debug().Str("template", msg.AdminTemplateID).Msg("admin phone not configured, skipping channel")
		}
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
	)
	for _, a := range attempts {
		wg.Add(1)
		go func(a attempt) {
			defer wg.Done()
			if err := d.send(ctx, a, msg.Data); err != nil {
				d.log.Error().
					Err(err).
					Str("channel", string(a.channel)).
					Str("recipient", a.recipient).
					Str("template", a.templateID).
					Msg("notification send failed")
				return
			}
			mu.Lock()
			sent++
			mu.Unlock()
		}(a)
	}
	wg.Wait()

	return Result{Attempted: len(attempts), Sent: sent}
}

func (d *Dispatcher) send(ctx context.Context, a attempt, data map[string]string) error {
	subject, body, err := d.tpl.Render(a.templateID, data)
	if err != nil {
		return err
	}

	rec := newRecord(a.channel, a.recipient, subject, body, a.templateID)

	switch a.channel {
	case ChannelEmail:
		err = d.email.SendEmail(ctx, a.recipient, subject, body)
	case ChannelSMS:
		err = d.sms.SendSMS(ctx, a.recipient, body)
	}

	if err != nil {
		rec.Status = "failed"
		rec.Error = err.Error()
	} else {
		rec.Status = "sent"
		sentAt := time.Now().UTC()
		rec.SentAt = &sentAt
	}

	d.mu.Lock()
	d.history = append(d.history, rec)
	d.mu.Unlock()

	return err
}

// Stats returns counts of recorded notification attempts grouped by status.
func (d *Dispatcher) Stats() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := make(map[string]int)
	for _, n := range d.history {
		stats[n.Status]++
	}
	return stats
}
