package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rawstudio/ticketbot/internal/model"
)

// Store is the single source of truth for ticket state. No ticket state is
// cached in memory across events; every check is a repository round-trip.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates the schema from the models. Production deployments run
// SQL migrations instead; this is used by the sqlite-backed tests.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&model.Ticket{},
		&model.SessionToken{},
		&model.ActiveEmbed{},
		&model.PackageSelection{},
	)
}

// Tickets

func (s *Store) CreateTicket(ctx context.Context, t *model.Ticket) error {
	if t.Status == "" {
		t.Status = model.TicketStatusOpen
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Store) TicketByChannel(ctx context.Context, channelID string) (*model.Ticket, error) {
	var t model.Ticket
	err := s.db.WithContext(ctx).Where("channel_id = ?", channelID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// OpenTicketForUser returns the user's open ticket in the guild, if any.
// The one-open-ticket invariant is enforced by this lookup-before-create, so
// callers must treat it as a racy check.
func (s *Store) OpenTicketForUser(ctx context.Context, userID, guildID string) (*model.Ticket, error) {
	var t model.Ticket
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ? AND status = ?", userID, guildID, model.TicketStatusOpen).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// OpenTickets returns every open ticket with its selections preloaded, for
// the reminder sweep.
func (s *Store) OpenTickets(ctx context.Context) ([]model.Ticket, error) {
	var items []model.Ticket
	err := s.db.WithContext(ctx).
		Preload("Selections").
		Where("status = ?", model.TicketStatusOpen).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (s *Store) TicketsForUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	var items []model.Ticket
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (s *Store) UpdateTicket(ctx context.Context, id uint64, changes map[string]interface{}) error {
	if st, ok := changes["status"]; ok {
		if status, ok := st.(model.TicketStatus); !ok || !status.Valid() {
			return fmt.Errorf("%w: %v", ErrInvalidStatus, st)
		}
	}
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// CloseTicket flips the ticket into the given terminal status and stamps
// ClosedAt. The caller validates the transition.
func (s *Store) CloseTicket(ctx context.Context, id uint64, status model.TicketStatus, at time.Time) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: %q is not terminal", ErrInvalidStatus, status)
	}
	return s.UpdateTicket(ctx, id, map[string]interface{}{
		"status":    status,
		"closed_at": at,
	})
}

// Session tokens

func (s *Store) CreateSessionToken(ctx context.Context, t *model.SessionToken) error {
	return s.db.WithContext(ctx).Create(t).Error
}

// NewestValidToken returns the most recently minted unexpired token for a
// channel. Used tokens are not excluded here; issuance does not consult
// used-state.
func (s *Store) NewestValidToken(ctx context.Context, channelID string, now time.Time) (*model.SessionToken, error) {
	var t model.SessionToken
	err := s.db.WithContext(ctx).
		Where("channel_id = ? AND expires_at > ?", channelID, now).
		Order("created_at DESC").
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ActiveTokens lists unexpired, unused tokens, newest first.
func (s *Store) ActiveTokens(ctx context.Context, now time.Time, limit int) ([]model.SessionToken, error) {
	var items []model.SessionToken
	tx := s.db.WithContext(ctx).
		Where("expires_at > ? AND used_at IS NULL", now).
		Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	err := tx.Find(&items).Error
	return items, err
}

func (s *Store) DeleteTokensForUser(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.SessionToken{})
	return res.RowsAffected, res.Error
}

// Active embeds

func (s *Store) CreateEmbed(ctx context.Context, e *model.ActiveEmbed) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *Store) EmbedByMessage(ctx context.Context, messageID string) (*model.ActiveEmbed, error) {
	var e model.ActiveEmbed
	err := s.db.WithContext(ctx).Where("message_id = ?", messageID).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmbedNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ActiveEmbedByMessage resolves an embed only while its active flag is set.
func (s *Store) ActiveEmbedByMessage(ctx context.Context, messageID string) (*model.ActiveEmbed, error) {
	var e model.ActiveEmbed
	err := s.db.WithContext(ctx).Where("message_id = ? AND active = ?", messageID, true).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmbedNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) ActiveEmbeds(ctx context.Context) ([]model.ActiveEmbed, error) {
	var items []model.ActiveEmbed
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// DeactivateEmbed flips the active flag off. There is no reactivation path.
func (s *Store) DeactivateEmbed(ctx context.Context, messageID string) error {
	res := s.db.WithContext(ctx).Model(&model.ActiveEmbed{}).
		Where("message_id = ?", messageID).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEmbedNotFound
	}
	return nil
}

// Package selections

func (s *Store) CreateSelection(ctx context.Context, sel *model.PackageSelection) error {
	if sel.Status == "" {
		sel.Status = model.SelectionStatusPending
	}
	return s.db.WithContext(ctx).Create(sel).Error
}

func (s *Store) SelectionsForTicket(ctx context.Context, ticketID uint64) ([]model.PackageSelection, error) {
	var items []model.PackageSelection
	err := s.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}
