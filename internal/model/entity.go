package model

import "time"

type TicketStatus string

const (
	TicketStatusOpen             TicketStatus = "open"
	TicketStatusAwaitingResponse TicketStatus = "AWAITING_RESPONSE"
	TicketStatusClosed           TicketStatus = "closed"
	TicketStatusAutoClosed       TicketStatus = "auto_closed"
)

// Valid reports whether s is one of the known ticket statuses. The status
// column is a free-form varchar, so validation happens here rather than in
// the database.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusAwaitingResponse, TicketStatusClosed, TicketStatusAutoClosed:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed || s == TicketStatusAutoClosed
}

// CanTransition reports whether s -> to is a legal state change.
func (s TicketStatus) CanTransition(to TicketStatus) bool {
	if s != TicketStatusOpen {
		return false
	}
	switch to {
	case TicketStatusAwaitingResponse, TicketStatusClosed, TicketStatusAutoClosed:
		return true
	}
	return false
}

// Ticket is one requester's event-package request: a private Discord channel
// plus the record tracking it from creation to closure. Records are never
// hard-deleted; closure is a status flip plus ClosedAt.
type Ticket struct {
	ID               uint64       `gorm:"primaryKey" json:"id"`
	UserID           string       `gorm:"index;not null" json:"user_id"`
	Username         string       `gorm:"type:varchar(255)" json:"username"`
	ChannelID        string       `gorm:"uniqueIndex;not null" json:"channel_id"`
	EmbedMessageID   string       `gorm:"index" json:"embed_message_id,omitempty"`
	GuildID          string       `gorm:"index;not null" json:"guild_id"`
	Status           TicketStatus `gorm:"type:varchar(32);index;not null" json:"status"`
	WelcomeMessageID string       `json:"welcome_message_id,omitempty"`
	ReminderCount    int          `gorm:"not null;default:0" json:"reminder_count"`
	LastReminderAt   *time.Time   `json:"last_reminder_at,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	Selections []PackageSelection `gorm:"foreignKey:TicketID" json:"selections,omitempty"`
}

// SessionToken is the persisted copy of an issued session JWT. Verification
// is stateless (the token is self-contained); these rows exist for listing
// and the lazy-regeneration lookup, not for authorization.
type SessionToken struct {
	ID        uint64     `gorm:"primaryKey" json:"id"`
	Token     string     `gorm:"type:text;not null" json:"token"`
	UserID    string     `gorm:"index;not null" json:"user_id"`
	ChannelID string     `gorm:"index;not null" json:"channel_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the token's absolute expiry has passed.
func (t *SessionToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ActiveEmbed is a posted entry-point message from which tickets may be
// spawned while Active is set. Deactivation is one-way.
type ActiveEmbed struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	MessageID string    `gorm:"uniqueIndex;not null" json:"message_id"`
	ChannelID string    `gorm:"not null" json:"channel_id"`
	GuildID   string    `gorm:"index;not null" json:"guild_id"`
	CreatedBy string    `json:"created_by"`
	Active    bool      `gorm:"index;not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type SelectionStatus string

const (
	SelectionStatusPending SelectionStatus = "pending"
)

// PackageSelection records a completed web package-selection flow for a
// ticket. Presence of at least one selection exempts the ticket from
// reminders and auto-expiry.
type PackageSelection struct {
	ID             uint64          `gorm:"primaryKey" json:"id"`
	TicketID       uint64          `gorm:"index;not null" json:"ticket_id"`
	UserID         string          `gorm:"index;not null" json:"user_id"`
	PackageName    string          `gorm:"type:varchar(255);not null" json:"package_name"`
	PackagePrice   string          `gorm:"type:varchar(64)" json:"package_price,omitempty"`
	EventAt        time.Time       `gorm:"not null" json:"event_at"`
	ServerLink     string          `gorm:"type:text" json:"server_link"`
	CustomRequests string          `gorm:"type:text" json:"custom_requests,omitempty"`
	Status         SelectionStatus `gorm:"type:varchar(32);not null;default:pending" json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}
