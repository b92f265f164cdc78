package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatusValid(t *testing.T) {
	for _, s := range []TicketStatus{TicketStatusOpen, TicketStatusAwaitingResponse, TicketStatusClosed, TicketStatusAutoClosed} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, TicketStatus("").Valid())
	assert.False(t, TicketStatus("OPEN").Valid(), "statuses are case-sensitive")
	assert.False(t, TicketStatus("awaiting_response").Valid())
}

func TestTicketStatusTransitions(t *testing.T) {
	// Only an open ticket can move, and only forward.
	assert.True(t, TicketStatusOpen.CanTransition(TicketStatusAwaitingResponse))
	assert.True(t, TicketStatusOpen.CanTransition(TicketStatusClosed))
	assert.True(t, TicketStatusOpen.CanTransition(TicketStatusAutoClosed))
	assert.False(t, TicketStatusOpen.CanTransition(TicketStatusOpen))

	for _, from := range []TicketStatus{TicketStatusAwaitingResponse, TicketStatusClosed, TicketStatusAutoClosed} {
		for _, to := range []TicketStatus{TicketStatusOpen, TicketStatusAwaitingResponse, TicketStatusClosed, TicketStatusAutoClosed} {
			assert.False(t, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestTicketStatusTerminal(t *testing.T) {
	assert.False(t, TicketStatusOpen.Terminal())
	assert.False(t, TicketStatusAwaitingResponse.Terminal())
	assert.True(t, TicketStatusClosed.Terminal())
	assert.True(t, TicketStatusAutoClosed.Terminal())
}

func TestSessionTokenExpired(t *testing.T) {
	now := time.Now()
	tok := &SessionToken{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, tok.Expired(now))
	assert.True(t, tok.Expired(now.Add(time.Hour)), "expiry instant counts as expired")
	assert.True(t, tok.Expired(now.Add(2*time.Hour)))
}
