package ticket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawstudio/ticketbot/internal/model"
)

// seedTicket inserts an open ticket with a live channel and a backdated
// creation time.
func (f *fixture) seedTicket(t *testing.T, channelID string, age time.Duration) *model.Ticket {
	t.Helper()
	f.session.mu.Lock()
	f.session.channels[channelID] = true
	f.session.mu.Unlock()

	tk := &model.Ticket{
		UserID:    "user-" + channelID,
		Username:  "alice",
		ChannelID: channelID,
		GuildID:   "guild-1",
		Status:    model.TicketStatusOpen,
		CreatedAt: f.now.Add(-age),
	}
	require.NoError(t, f.store.CreateTicket(context.Background(), tk))
	return tk
}

func TestSweepSendsReminderAfterInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.seedTicket(t, "chan-a", ReminderInterval+time.Minute)

	require.NoError(t, f.ctrl.Sweep(ctx))

	assert.Equal(t, 1, f.session.sentCount(tk.ChannelID))
	after, err := f.store.TicketByChannel(ctx, tk.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.ReminderCount)
	require.NotNil(t, after.LastReminderAt)

	// Alongside the reminder a fresh session token was persisted.
	_, err = f.store.NewestValidToken(ctx, tk.ChannelID, f.now)
	require.NoError(t, err)
}

func TestSweepHonorsCadence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.seedTicket(t, "chan-a", ReminderInterval+time.Minute)

	require.NoError(t, f.ctrl.Sweep(ctx))
	require.NoError(t, f.ctrl.Sweep(ctx))

	// The second pass runs inside the 6h window and must not re-remind.
	assert.Equal(t, 1, f.session.sentCount(tk.ChannelID))

	// Once the window has elapsed again, the next reminder goes out.
	f.ctrl.now = func() time.Time { return f.now.Add(ReminderInterval + time.Minute) }
	require.NoError(t, f.ctrl.Sweep(ctx))
	assert.Equal(t, 2, f.session.sentCount(tk.ChannelID))
}

func TestSweepSkipsYoungTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.seedTicket(t, "chan-a", ReminderInterval-time.Minute)

	require.NoError(t, f.ctrl.Sweep(ctx))
	assert.Zero(t, f.session.sentCount(tk.ChannelID))
}

func TestSweepCapsReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.seedTicket(t, "chan-a", 20*time.Hour)

	// Already at the cap with the last reminder long past.
	last := f.now.Add(-2 * ReminderInterval)
	require.NoError(t, f.store.UpdateTicket(ctx, tk.ID, map[string]interface{}{
		"reminder_count":   MaxReminders,
		"last_reminder_at": last,
	}))

	require.NoError(t, f.ctrl.Sweep(ctx))
	assert.Zero(t, f.session.sentCount(tk.ChannelID))
}

func TestSweepAutoClosesExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired := f.seedTicket(t, "chan-old", ExpireAfter)
	fresh := f.seedTicket(t, "chan-new", ExpireAfter-time.Minute)

	// Expiry fires regardless of how many reminders went out.
	require.NoError(t, f.store.UpdateTicket(ctx, expired.ID, map[string]interface{}{
		"reminder_count": MaxReminders,
	}))

	require.NoError(t, f.ctrl.Sweep(ctx))

	closed, err := f.store.TicketByChannel(ctx, expired.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusAutoClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, 1, f.session.sentCount(expired.ChannelID), "closing notice posted")
	assert.False(t, f.session.ChannelExists(expired.ChannelID))

	kept, err := f.store.TicketByChannel(ctx, fresh.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusOpen, kept.Status)
}

func TestSweepExemptsTicketsWithSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.seedTicket(t, "chan-a", 2*ExpireAfter)

	require.NoError(t, f.store.CreateSelection(ctx, &model.PackageSelection{
		TicketID:    tk.ID,
		UserID:      tk.UserID,
		PackageName: "Essential",
		EventAt:     f.now.Add(24 * time.Hour),
	}))

	require.NoError(t, f.ctrl.Sweep(ctx))

	after, err := f.store.TicketByChannel(ctx, tk.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusOpen, after.Status)
	assert.Zero(t, f.session.sentCount(tk.ChannelID))
}

func TestSweepSkipsReminderWhenChannelMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.seedTicket(t, "chan-a", ReminderInterval+time.Minute)
	require.NoError(t, f.session.DeleteChannel(tk.ChannelID))

	require.NoError(t, f.ctrl.Sweep(ctx))

	after, err := f.store.TicketByChannel(ctx, tk.ChannelID)
	require.NoError(t, err)
	assert.Zero(t, after.ReminderCount, "no bookkeeping change without a send")
}

func TestSweepRetriesFailedSend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.seedTicket(t, "chan-a", ReminderInterval+time.Minute)

	f.session.sendErr = assert.AnError
	require.NoError(t, f.ctrl.Sweep(ctx))

	after, err := f.store.TicketByChannel(ctx, tk.ChannelID)
	require.NoError(t, err)
	assert.Zero(t, after.ReminderCount)

	// The next pass succeeds and counts the reminder.
	f.session.sendErr = nil
	require.NoError(t, f.ctrl.Sweep(ctx))
	after, err = f.store.TicketByChannel(ctx, tk.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.ReminderCount)
}
