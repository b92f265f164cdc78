// Package bot owns the Discord side of the system: the gateway connection,
// slash command registration, and routing of buttons, modals and commands
// into the ticket lifecycle controller.
package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/rawstudio/ticketbot/internal/config"
	"github.com/rawstudio/ticketbot/internal/store"
	"github.com/rawstudio/ticketbot/internal/ticket"
)

type Bot struct {
	session *discordgo.Session
	ctrl    *ticket.Controller
	store   *store.Store
	cfg     *config.Config
	log     *logrus.Entry

	commands map[string]func(*discordgo.InteractionCreate)
}

func New(session *discordgo.Session, ctrl *ticket.Controller, st *store.Store, cfg *config.Config, log *logrus.Entry) *Bot {
	b := &Bot{
		session: session,
		ctrl:    ctrl,
		store:   st,
		cfg:     cfg,
		log:     log,
	}
	b.commands = map[string]func(*discordgo.InteractionCreate){
		"setup":              b.cmdSetup,
		"close_ticket":       b.cmdCloseTicket,
		"deactivate_embed":   b.cmdDeactivateEmbed,
		"list_active_embeds": b.cmdListActiveEmbeds,
		"list_tokens":        b.cmdListTokens,
		"clear_session":      b.cmdClearSession,
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteractionCreate)
	session.AddHandler(b.onMessageCreate)
	return b
}

// Open connects the gateway and registers the guild slash commands.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	cmds, err := b.session.ApplicationCommandBulkOverwrite(b.cfg.AppID, b.cfg.GuildID, commandDefs())
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	b.log.WithField("count", len(cmds)).Info("slash commands registered")
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.WithField("user", r.User.Username).Info("gateway ready")
	if err := s.UpdateWatchStatus(0, "Event Packages | /setup"); err != nil {
		b.log.WithError(err).Warn("failed to set presence")
	}
}

// onMessageCreate answers a direct mention with a liveness embed.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || s.State.User == nil {
		return
	}
	mentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			mentioned = true
			break
		}
	}
	if !mentioned {
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "I am alive!",
		Color:       0x5865F2,
		Description: "Raw Studio Bot is online and ready to help with your event tickets.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: "Online and operational", Inline: true},
			{Name: "Ping", Value: fmt.Sprintf("%dms", s.HeartbeatLatency().Milliseconds()), Inline: true},
		},
	}
	if _, err := s.ChannelMessageSendEmbedReply(m.ChannelID, embed, m.Reference()); err != nil {
		b.log.WithError(err).Warn("failed to answer mention")
	}
}
