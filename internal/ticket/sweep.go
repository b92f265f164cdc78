package ticket

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rawstudio/ticketbot/internal/discord"
	"github.com/rawstudio/ticketbot/internal/events"
	"github.com/rawstudio/ticketbot/internal/metrics"
	"github.com/rawstudio/ticketbot/internal/model"
)

// sweepPeriod is how often the reminder/expiry sweep runs. The cadence
// bounds below hold regardless of this value because gating is based on
// elapsed time, not pass count.
const sweepPeriod = time.Hour

// RunSweeper runs one sweep immediately, then once per period until ctx is
// cancelled. A failed pass is logged and never prevents the next one.
func (c *Controller) RunSweeper(ctx context.Context) {
	c.log.Info("reminder sweep started")
	if err := c.Sweep(ctx); err != nil {
		metrics.SweepErrors.Inc()
		c.log.WithError(err).Error("reminder sweep pass failed")
	}
	ticker := time.NewTicker(sweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("reminder sweep stopped")
			return
		case <-ticker.C:
			if err := c.Sweep(ctx); err != nil {
				metrics.SweepErrors.Inc()
				c.log.WithError(err).Error("reminder sweep pass failed")
			}
		}
	}
}

// Sweep scans every open ticket once. Tickets with a package selection are
// exempt from both reminders and expiry. Tickets at or past the 24h age
// limit are auto-closed; the rest get a reminder when at least 6h have
// elapsed since the last one (or since creation) and fewer than 3 have been
// sent. Per-ticket failures are logged and do not abort the pass.
func (c *Controller) Sweep(ctx context.Context) error {
	tickets, err := c.store.OpenTickets(ctx)
	if err != nil {
		return err
	}
	now := c.now()
	for i := range tickets {
		t := &tickets[i]
		if len(t.Selections) > 0 {
			continue
		}
		age := now.Sub(t.CreatedAt)
		if age >= ExpireAfter {
			c.autoClose(ctx, t)
			continue
		}
		since := age
		if t.LastReminderAt != nil {
			since = now.Sub(*t.LastReminderAt)
		}
		if since >= ReminderInterval && t.ReminderCount < MaxReminders {
			c.remind(ctx, t, now)
		}
	}
	return nil
}

// remind mints a fresh token, posts the reminder with the signed link, and
// advances the reminder bookkeeping. The ticket record is only updated after
// the message goes out, so a failed send is retried on the next pass.
func (c *Controller) remind(ctx context.Context, t *model.Ticket, now time.Time) {
	log := c.log.WithFields(logrus.Fields{"ticket": t.ID, "channel": t.ChannelID})
	if !c.session.ChannelExists(t.ChannelID) {
		log.Warn("cannot send reminder: channel missing")
		return
	}

	signed, err := c.issueToken(ctx, t)
	if err != nil {
		log.WithError(err).Error("reminder: token mint failed")
		return
	}

	n := t.ReminderCount + 1
	hoursRemaining := int((ExpireAfter - now.Sub(t.CreatedAt)) / time.Hour)
	msg := discord.ReminderMessage(t.UserID, c.packageURL(signed), n, MaxReminders, hoursRemaining)
	if _, err := c.session.SendMessage(t.ChannelID, msg); err != nil {
		log.WithError(err).Warn("reminder: send failed")
		return
	}

	if err := c.store.UpdateTicket(ctx, t.ID, map[string]interface{}{
		"reminder_count":   n,
		"last_reminder_at": now,
	}); err != nil {
		log.WithError(err).Error("reminder: bookkeeping update failed")
		return
	}
	t.ReminderCount = n
	t.LastReminderAt = &now

	metrics.RemindersSent.Inc()
	c.events.TicketEvent(ctx, events.EventReminderSent, t)
	log.WithField("reminder", n).Info("reminder sent")
}

// autoClose performs the sweep-driven open -> auto_closed transition. The
// status change commits first; the notice and delayed channel delete are
// best-effort side effects.
func (c *Controller) autoClose(ctx context.Context, t *model.Ticket) {
	log := c.log.WithFields(logrus.Fields{"ticket": t.ID, "channel": t.ChannelID})
	if err := c.store.CloseTicket(ctx, t.ID, model.TicketStatusAutoClosed, c.now()); err != nil {
		log.WithError(err).Error("auto-close: status update failed")
		return
	}
	metrics.TicketsClosed.WithLabelValues("auto").Inc()
	t.Status = model.TicketStatusAutoClosed
	c.events.TicketEvent(ctx, events.EventStatusChanged, t)

	if c.session.ChannelExists(t.ChannelID) {
		if _, err := c.session.SendMessage(t.ChannelID, discord.AutoCloseNotice(t.UserID)); err != nil {
			log.WithError(err).Warn("auto-close: notice send failed")
		}
		c.scheduleDelete(t.ChannelID)
	}
	log.Info("ticket auto-closed for inactivity")
}
