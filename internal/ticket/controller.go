// Package ticket implements the ticket lifecycle: creation from an active
// entry-point embed, the session-token handshake with the external web
// surface, webhook reconciliation of package selections, administrative
// closure, and the reminder/expiry sweep.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rawstudio/ticketbot/internal/config"
	"github.com/rawstudio/ticketbot/internal/discord"
	"github.com/rawstudio/ticketbot/internal/events"
	"github.com/rawstudio/ticketbot/internal/metrics"
	"github.com/rawstudio/ticketbot/internal/model"
	"github.com/rawstudio/ticketbot/internal/store"
	"github.com/rawstudio/ticketbot/internal/token"
)

// Lifecycle constants. Fixed business rules, not configuration.
const (
	ReminderInterval = 6 * time.Hour
	ExpireAfter      = 24 * time.Hour
	MaxReminders     = 3

	// deleteGrace is how long a closing notice stays visible before the
	// channel is torn down.
	deleteGrace = 10 * time.Second
)

// Controller is the ticket state machine. All cross-cutting state lives in
// the store; the controller itself is stateless and safe for concurrent use.
type Controller struct {
	store   *store.Store
	tokens  *token.Service
	session discord.Session
	events  events.Publisher
	cfg     *config.Config
	log     *logrus.Entry

	now   func() time.Time
	grace time.Duration
}

func NewController(st *store.Store, tokens *token.Service, session discord.Session, pub events.Publisher, cfg *config.Config, log *logrus.Entry) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		store:   st,
		tokens:  tokens,
		session: session,
		events:  pub,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		grace:   deleteGrace,
	}
}

// BeginRequest carries the "begin ticket" button click.
type BeginRequest struct {
	GuildID        string
	UserID         string
	Username       string
	EmbedMessageID string
	OpenCategoryID string
}

// BeginResult reports the outcome of a creation attempt. Existing is set
// when the requester already had an open ticket with a live channel; Ticket
// then references that ticket rather than a new one.
type BeginResult struct {
	Ticket   *model.Ticket
	Existing bool
}

// Begin creates a ticket: verifies the originating embed is active, guards
// against a duplicate open ticket (self-healing stale records whose channel
// is gone), provisions the private channel, mints and persists a session
// token, and posts the welcome message.
//
// The duplicate check is read-then-act without locking; concurrent double
// clicks can both pass it. Accepted: channel creation is visible to the user
// and admins can close duplicates manually.
func (c *Controller) Begin(ctx context.Context, req BeginRequest) (*BeginResult, error) {
	if _, err := c.store.ActiveEmbedByMessage(ctx, req.EmbedMessageID); err != nil {
		if errors.Is(err, store.ErrEmbedNotFound) {
			return nil, ErrEmbedInactive
		}
		return nil, fmt.Errorf("resolve embed: %w", err)
	}

	existing, err := c.store.OpenTicketForUser(ctx, req.UserID, req.GuildID)
	if err != nil && !errors.Is(err, store.ErrTicketNotFound) {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		if c.session.ChannelExists(existing.ChannelID) {
			return &BeginResult{Ticket: existing, Existing: true}, nil
		}
		// Stale record: the channel is gone, close it and proceed.
		if err := c.store.CloseTicket(ctx, existing.ID, model.TicketStatusClosed, c.now()); err != nil {
			return nil, fmt.Errorf("close stale ticket: %w", err)
		}
		metrics.TicketsClosed.WithLabelValues("stale").Inc()
		c.log.WithFields(logrus.Fields{"ticket": existing.ID, "channel": existing.ChannelID}).
			Info("closed stale ticket with missing channel")
	}

	roles, err := c.session.GuildRoles(req.GuildID)
	if err != nil {
		return nil, fmt.Errorf("fetch guild roles: %w", err)
	}
	overwrites := discord.TicketOverwrites(req.GuildID, req.UserID, roles, c.cfg.StaffRoleNames)
	name := discord.TicketChannelName(req.Username, c.now())

	channelID, err := c.session.CreateTicketChannel(req.GuildID, name, req.OpenCategoryID, overwrites)
	if err != nil {
		return nil, fmt.Errorf("provision channel: %w", err)
	}

	t := &model.Ticket{
		UserID:         req.UserID,
		Username:       req.Username,
		ChannelID:      channelID,
		EmbedMessageID: req.EmbedMessageID,
		GuildID:        req.GuildID,
		Status:         model.TicketStatusOpen,
	}
	if err := c.store.CreateTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("persist ticket: %w", err)
	}

	if _, err := c.issueToken(ctx, t); err != nil {
		return nil, fmt.Errorf("mint session token: %w", err)
	}

	// The welcome post is best-effort: the ticket already exists and a
	// send failure must not roll it back.
	msgID, err := c.session.SendMessage(channelID, discord.WelcomeMessage(req.UserID, req.Username))
	if err != nil {
		c.log.WithError(err).WithField("channel", channelID).Warn("failed to post welcome message")
	} else if err := c.store.UpdateTicket(ctx, t.ID, map[string]interface{}{"welcome_message_id": msgID}); err != nil {
		c.log.WithError(err).WithField("ticket", t.ID).Warn("failed to store welcome message id")
	} else {
		t.WelcomeMessageID = msgID
	}

	metrics.TicketsCreated.Inc()
	c.events.TicketEvent(ctx, events.EventTicketCreated, t)
	c.log.WithFields(logrus.Fields{"ticket": t.ID, "channel": channelID, "user": req.UserID}).
		Info("ticket created")
	return &BeginResult{Ticket: t}, nil
}

// PackageLink returns the signed package-selection URL for the ticket in
// channelID, reusing the newest unexpired persisted token or minting a fresh
// one. Only the ticket's requester may ask for it.
func (c *Controller) PackageLink(ctx context.Context, userID, channelID string) (string, error) {
	t, err := c.store.TicketByChannel(ctx, channelID)
	if err != nil {
		return "", err
	}
	if t.UserID != userID {
		return "", ErrNotTicketOwner
	}

	existing, err := c.store.NewestValidToken(ctx, channelID, c.now())
	if err != nil && !errors.Is(err, store.ErrTokenNotFound) {
		return "", fmt.Errorf("token lookup: %w", err)
	}
	signed := ""
	if existing != nil {
		signed = existing.Token
	} else {
		signed, err = c.issueToken(ctx, t)
		if err != nil {
			return "", fmt.Errorf("mint session token: %w", err)
		}
	}
	return c.packageURL(signed), nil
}

// ForceClose performs the admin open -> closed transition on a channel that
// must already be a known ticket. The closing notice is posted, then the
// channel is deleted after a grace delay; deletion failure is logged and not
// surfaced since the status change has already committed.
func (c *Controller) ForceClose(ctx context.Context, channelID string) error {
	t, err := c.store.TicketByChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if !t.Status.CanTransition(model.TicketStatusClosed) {
		return ErrAlreadyClosed
	}
	if err := c.store.CloseTicket(ctx, t.ID, model.TicketStatusClosed, c.now()); err != nil {
		return fmt.Errorf("close ticket: %w", err)
	}
	metrics.TicketsClosed.WithLabelValues("admin").Inc()
	t.Status = model.TicketStatusClosed
	c.events.TicketEvent(ctx, events.EventStatusChanged, t)

	if _, err := c.session.SendMessage(channelID, discord.CloseNotice()); err != nil {
		c.log.WithError(err).WithField("channel", channelID).Warn("failed to post close notice")
	}
	c.scheduleDelete(channelID)
	c.log.WithFields(logrus.Fields{"ticket": t.ID, "channel": channelID}).Info("ticket force-closed")
	return nil
}

// SelectionPayload is the webhook reconciliation input, already
// authenticated against the shared secret by the HTTP layer.
type SelectionPayload struct {
	Token          string
	UserID         string
	ChannelID      string
	PackageName    string
	PackagePrice   string
	EventAt        time.Time
	ServerLink     string
	CustomRequests string
}

// Reconcile executes the open -> AWAITING_RESPONSE transition driven by a
// completed web selection: verify the token, cross-check its claims against
// the payload, resolve the ticket, persist the selection, advance the
// status, clean up the welcome message and post a summary.
//
// Replays are not deduplicated: a second call with the same token appends
// another selection row and re-posts the summary.
func (c *Controller) Reconcile(ctx context.Context, p SelectionPayload) (*model.PackageSelection, error) {
	claims, ok := c.tokens.Verify(p.Token)
	if !ok {
		return nil, ErrInvalidToken
	}
	if claims.UserID != p.UserID || claims.ChannelID != p.ChannelID {
		return nil, ErrTokenMismatch
	}

	t, err := c.store.TicketByChannel(ctx, p.ChannelID)
	if err != nil {
		return nil, err
	}

	sel := &model.PackageSelection{
		TicketID:       t.ID,
		UserID:         p.UserID,
		PackageName:    p.PackageName,
		PackagePrice:   p.PackagePrice,
		EventAt:        p.EventAt,
		ServerLink:     p.ServerLink,
		CustomRequests: p.CustomRequests,
		Status:         model.SelectionStatusPending,
	}
	if err := c.store.CreateSelection(ctx, sel); err != nil {
		return nil, fmt.Errorf("persist selection: %w", err)
	}

	if t.Status.CanTransition(model.TicketStatusAwaitingResponse) {
		if err := c.store.UpdateTicket(ctx, t.ID, map[string]interface{}{
			"status": model.TicketStatusAwaitingResponse,
		}); err != nil {
			return nil, fmt.Errorf("advance status: %w", err)
		}
		t.Status = model.TicketStatusAwaitingResponse
		c.events.TicketEvent(ctx, events.EventStatusChanged, t)
	}

	if t.WelcomeMessageID != "" {
		if err := c.session.DeleteMessage(t.ChannelID, t.WelcomeMessageID); err != nil {
			c.log.WithError(err).WithField("message", t.WelcomeMessageID).
				Warn("could not delete welcome message")
		}
		if err := c.store.UpdateTicket(ctx, t.ID, map[string]interface{}{"welcome_message_id": ""}); err != nil {
			c.log.WithError(err).WithField("ticket", t.ID).Warn("could not clear welcome message id")
		}
	}

	if _, err := c.session.SendMessage(t.ChannelID, discord.SelectionSummary(sel)); err != nil {
		c.log.WithError(err).WithField("channel", t.ChannelID).Warn("failed to post selection summary")
	}

	metrics.SelectionsReceived.Inc()
	c.log.WithFields(logrus.Fields{"ticket": t.ID, "selection": sel.ID, "package": p.PackageName}).
		Info("package selection reconciled")
	return sel, nil
}

// ClearUserSessions is the admin purge for one user: every non-terminal
// ticket is closed (and its channel deleted immediately), and all of the
// user's session tokens are removed.
func (c *Controller) ClearUserSessions(ctx context.Context, userID string) (ticketsClosed int, tokensDeleted int64, err error) {
	tickets, err := c.store.TicketsForUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("list tickets: %w", err)
	}
	for i := range tickets {
		t := &tickets[i]
		if t.Status.Terminal() {
			continue
		}
		if err := c.store.CloseTicket(ctx, t.ID, model.TicketStatusClosed, c.now()); err != nil {
			c.log.WithError(err).WithField("ticket", t.ID).Warn("clear-session: close failed")
			continue
		}
		metrics.TicketsClosed.WithLabelValues("session_clear").Inc()
		if c.session.ChannelExists(t.ChannelID) {
			if err := c.session.DeleteChannel(t.ChannelID); err != nil {
				c.log.WithError(err).WithField("channel", t.ChannelID).Warn("clear-session: channel delete failed")
			}
		}
		ticketsClosed++
	}
	tokensDeleted, err = c.store.DeleteTokensForUser(ctx, userID)
	if err != nil {
		return ticketsClosed, 0, fmt.Errorf("delete tokens: %w", err)
	}
	return ticketsClosed, tokensDeleted, nil
}

// issueToken mints a session token for the ticket and persists it for
// auditability. Older tokens stay valid until they expire on their own.
func (c *Controller) issueToken(ctx context.Context, t *model.Ticket) (string, error) {
	signed, expiresAt, err := c.tokens.Issue(t.UserID, t.ChannelID, strconv.FormatUint(t.ID, 10), t.Username)
	if err != nil {
		return "", err
	}
	err = c.store.CreateSessionToken(ctx, &model.SessionToken{
		Token:     signed,
		UserID:    t.UserID,
		ChannelID: t.ChannelID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", err
	}
	return signed, nil
}

func (c *Controller) packageURL(signedToken string) string {
	return c.cfg.WebsiteURL + "/packages?token=" + signedToken
}

// scheduleDelete tears the channel down after the grace period. The timer is
// in-process and fire-and-forget: if the process exits first the deletion
// never happens and is caught by a later sweep or manual action.
func (c *Controller) scheduleDelete(channelID string) {
	log := c.log.WithField("channel", channelID)
	if c.grace <= 0 {
		if err := c.session.DeleteChannel(channelID); err != nil {
			log.WithError(err).Warn("channel delete failed")
		}
		return
	}
	time.AfterFunc(c.grace, func() {
		if err := c.session.DeleteChannel(channelID); err != nil {
			log.WithError(err).Warn("delayed channel delete failed")
		}
	})
}
