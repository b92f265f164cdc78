package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rawstudio/ticketbot/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	s := New(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func seedTicket(t *testing.T, s *Store, channelID string, status model.TicketStatus) *model.Ticket {
	t.Helper()
	tk := &model.Ticket{
		UserID:    "user-1",
		Username:  "alice",
		ChannelID: channelID,
		GuildID:   "guild-1",
		Status:    status,
	}
	require.NoError(t, s.CreateTicket(context.Background(), tk))
	return tk
}

func TestCreateTicketDefaultsAndValidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tk := &model.Ticket{UserID: "u", ChannelID: "c1", GuildID: "g"}
	require.NoError(t, s.CreateTicket(ctx, tk))
	assert.Equal(t, model.TicketStatusOpen, tk.Status)

	bad := &model.Ticket{UserID: "u", ChannelID: "c2", GuildID: "g", Status: "bogus"}
	assert.ErrorIs(t, s.CreateTicket(ctx, bad), ErrInvalidStatus)
}

func TestOpenTicketForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.OpenTicketForUser(ctx, "user-1", "guild-1")
	assert.ErrorIs(t, err, ErrTicketNotFound)

	seedTicket(t, s, "c-closed", model.TicketStatusClosed)
	_, err = s.OpenTicketForUser(ctx, "user-1", "guild-1")
	assert.ErrorIs(t, err, ErrTicketNotFound, "closed tickets do not count")

	open := seedTicket(t, s, "c-open", model.TicketStatusOpen)
	got, err := s.OpenTicketForUser(ctx, "user-1", "guild-1")
	require.NoError(t, err)
	assert.Equal(t, open.ID, got.ID)

	_, err = s.OpenTicketForUser(ctx, "user-1", "other-guild")
	assert.ErrorIs(t, err, ErrTicketNotFound, "scoped per guild")
}

func TestUpdateTicketValidatesStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tk := seedTicket(t, s, "c1", model.TicketStatusOpen)

	err := s.UpdateTicket(ctx, tk.ID, map[string]interface{}{"status": "bogus"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	err = s.UpdateTicket(ctx, tk.ID, map[string]interface{}{"status": model.TicketStatusAwaitingResponse})
	require.NoError(t, err)

	got, err := s.TicketByChannel(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusAwaitingResponse, got.Status)

	err = s.UpdateTicket(ctx, 9999, map[string]interface{}{"reminder_count": 1})
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestCloseTicket(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tk := seedTicket(t, s, "c1", model.TicketStatusOpen)

	assert.ErrorIs(t, s.CloseTicket(ctx, tk.ID, model.TicketStatusOpen, time.Now()), ErrInvalidStatus)

	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.CloseTicket(ctx, tk.ID, model.TicketStatusAutoClosed, at))

	got, err := s.TicketByChannel(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusAutoClosed, got.Status)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, got.ClosedAt.Equal(at))
}

func TestOpenTicketsPreloadsSelections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	withSel := seedTicket(t, s, "c1", model.TicketStatusOpen)
	seedTicket(t, s, "c2", model.TicketStatusOpen)
	require.NoError(t, s.CreateSelection(ctx, &model.PackageSelection{
		TicketID:    withSel.ID,
		UserID:      "user-1",
		PackageName: "Essential",
		EventAt:     time.Now(),
	}))

	tickets, err := s.OpenTickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	byChannel := map[string]int{}
	for i, tk := range tickets {
		byChannel[tk.ChannelID] = i
	}
	assert.Len(t, tickets[byChannel["c1"]].Selections, 1)
	assert.Empty(t, tickets[byChannel["c2"]].Selections)
}

func TestNewestValidToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.NewestValidToken(ctx, "c1", now)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, s.CreateSessionToken(ctx, &model.SessionToken{
		Token: "expired", UserID: "u", ChannelID: "c1",
		ExpiresAt: now.Add(-time.Minute),
		CreatedAt: now.Add(-2 * time.Hour),
	}))
	_, err = s.NewestValidToken(ctx, "c1", now)
	assert.ErrorIs(t, err, ErrTokenNotFound, "expired tokens are skipped")

	require.NoError(t, s.CreateSessionToken(ctx, &model.SessionToken{
		Token: "older", UserID: "u", ChannelID: "c1",
		ExpiresAt: now.Add(30 * time.Minute),
		CreatedAt: now.Add(-30 * time.Minute),
	}))
	require.NoError(t, s.CreateSessionToken(ctx, &model.SessionToken{
		Token: "newest", UserID: "u", ChannelID: "c1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now.Add(-time.Minute),
	}))

	got, err := s.NewestValidToken(ctx, "c1", now)
	require.NoError(t, err)
	assert.Equal(t, "newest", got.Token)
}

func TestActiveTokensExcludesUsedAndExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	used := now.Add(-time.Minute)

	require.NoError(t, s.CreateSessionToken(ctx, &model.SessionToken{
		Token: "live", UserID: "u", ChannelID: "c1", ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, s.CreateSessionToken(ctx, &model.SessionToken{
		Token: "used", UserID: "u", ChannelID: "c1", ExpiresAt: now.Add(time.Hour), UsedAt: &used,
	}))
	require.NoError(t, s.CreateSessionToken(ctx, &model.SessionToken{
		Token: "expired", UserID: "u", ChannelID: "c1", ExpiresAt: now.Add(-time.Hour),
	}))

	items, err := s.ActiveTokens(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "live", items[0].Token)
}

func TestDeleteTokensForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateSessionToken(ctx, &model.SessionToken{
		Token: "a", UserID: "u1", ChannelID: "c1", ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, s.CreateSessionToken(ctx, &model.SessionToken{
		Token: "b", UserID: "u1", ChannelID: "c2", ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, s.CreateSessionToken(ctx, &model.SessionToken{
		Token: "c", UserID: "u2", ChannelID: "c3", ExpiresAt: now.Add(time.Hour),
	}))

	n, err := s.DeleteTokensForUser(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	items, err := s.ActiveTokens(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "u2", items[0].UserID)
}

func TestEmbedLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateEmbed(ctx, &model.ActiveEmbed{
		MessageID: "m1", ChannelID: "lobby", GuildID: "g", Active: true,
	}))

	e, err := s.ActiveEmbedByMessage(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, e.Active)

	require.NoError(t, s.DeactivateEmbed(ctx, "m1"))
	_, err = s.ActiveEmbedByMessage(ctx, "m1")
	assert.ErrorIs(t, err, ErrEmbedNotFound)

	// Still resolvable without the active filter.
	e, err = s.EmbedByMessage(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, e.Active)

	active, err := s.ActiveEmbeds(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, s.DeactivateEmbed(ctx, "no-such"), ErrEmbedNotFound)
}
