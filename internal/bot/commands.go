package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rawstudio/ticketbot/internal/discord"
	"github.com/rawstudio/ticketbot/internal/store"
	"github.com/rawstudio/ticketbot/internal/ticket"
)

const deniedMessage = "You do not have permission to use this command."

func commandDefs() []*discordgo.ApplicationCommand {
	adminPerm := int64(discordgo.PermissionAdministrator)
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "setup",
			Description:              "[ADMIN] Setup and send an Event Creator embed",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "embed_channel",
					Description:  "Channel where the embed will be sent",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "open_tickets_category",
					Description:  "Category for open tickets",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
				},
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "closed_tickets_category",
					Description:  "Category for closed tickets",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
				},
			},
		},
		{
			Name:                     "close_ticket",
			Description:              "[ADMIN] Force close a ticket",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "ticket_channel",
					Description:  "The ticket channel to close",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
			},
		},
		{
			Name:                     "deactivate_embed",
			Description:              "[ADMIN] Deactivate an event creator embed",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "embed_id",
					Description: "The message ID of the embed to deactivate",
					Required:    true,
				},
			},
		},
		{
			Name:                     "list_active_embeds",
			Description:              "[ADMIN] List all active event creator embeds",
			DefaultMemberPermissions: &adminPerm,
		},
		{
			Name:                     "list_tokens",
			Description:              "[ADMIN] List active session tokens with their users",
			DefaultMemberPermissions: &adminPerm,
		},
		{
			Name:                     "clear_session",
			Description:              "[ADMIN] Clear all tickets and sessions for a user",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The user to clear sessions for",
					Required:    true,
				},
			},
		},
	}
}

func commandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		out[o.Name] = o
	}
	return out
}

// requireAdmin checks the allowlist and answers the denial itself.
func (b *Bot) requireAdmin(i *discordgo.InteractionCreate) bool {
	if b.cfg.IsAdmin(i.Member.User.ID) {
		return true
	}
	b.replyEphemeral(i, deniedMessage)
	return false
}

// cmdSetup shows the embed-configuration modal. The selected channel and
// category ids ride along in the modal's custom id.
func (b *Bot) cmdSetup(i *discordgo.InteractionCreate) {
	if !b.requireAdmin(i) {
		return
	}
	opts := commandOptions(i)
	embedChannel := opts["embed_channel"].ChannelValue(nil)
	openCategory := opts["open_tickets_category"].ChannelValue(nil)
	closedCategory := opts["closed_tickets_category"].ChannelValue(nil)

	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: fmt.Sprintf("%s:%s:%s:%s", discord.CustomIDSetupModalPrefix, embedChannel.ID, openCategory.ID, closedCategory.ID),
			Title:    "Event Creator Setup",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "embed_title",
						Label:       "Embed Title",
						Style:       discordgo.TextInputShort,
						Placeholder: "Raw Studio Event Creator",
						Required:    true,
						MaxLength:   100,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "embed_description",
						Label:       "Embed Description",
						Style:       discordgo.TextInputParagraph,
						Placeholder: "Plan your next event with us! Click below to start...",
						Required:    true,
						MaxLength:   2000,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "embed_footer",
						Label:     "Embed Footer (Optional)",
						Style:     discordgo.TextInputShort,
						Required:  false,
						MaxLength: 100,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "embed_thumbnail",
						Label:     "Embed Thumbnail URL (Optional)",
						Style:     discordgo.TextInputShort,
						Required:  false,
						MaxLength: 500,
					},
				}},
			},
		},
	})
	if err != nil {
		b.log.WithError(err).Error("failed to show setup modal")
	}
}

func (b *Bot) cmdCloseTicket(i *discordgo.InteractionCreate) {
	if !b.requireAdmin(i) {
		return
	}
	channel := commandOptions(i)["ticket_channel"].ChannelValue(nil)

	err := b.ctrl.ForceClose(context.Background(), channel.ID)
	switch {
	case errors.Is(err, store.ErrTicketNotFound):
		b.replyEphemeral(i, "This channel is not a ticket.")
	case errors.Is(err, ticket.ErrAlreadyClosed):
		b.replyEphemeral(i, "This ticket is already closed.")
	case err != nil:
		b.log.WithError(err).Error("force close failed")
		b.replyEphemeral(i, "An error occurred while closing the ticket.")
	default:
		b.replyEphemeral(i, "Ticket closed successfully. Channel will be deleted in 10 seconds.")
		b.log.WithField("admin", i.Member.User.ID).WithField("channel", channel.ID).Info("admin closed ticket")
	}
}

func (b *Bot) cmdDeactivateEmbed(i *discordgo.InteractionCreate) {
	if !b.requireAdmin(i) {
		return
	}
	embedID := commandOptions(i)["embed_id"].StringValue()

	err := b.store.DeactivateEmbed(context.Background(), embedID)
	switch {
	case errors.Is(err, store.ErrEmbedNotFound):
		b.replyEphemeral(i, "Embed not found in the database.")
	case err != nil:
		b.log.WithError(err).Error("deactivate embed failed")
		b.replyEphemeral(i, "An error occurred while deactivating the embed.")
	default:
		b.replyEphemeral(i, fmt.Sprintf("Embed `%s` has been deactivated. Users can no longer create tickets from it.", embedID))
	}
}

func (b *Bot) cmdListActiveEmbeds(i *discordgo.InteractionCreate) {
	if !b.requireAdmin(i) {
		return
	}
	embeds, err := b.store.ActiveEmbeds(context.Background())
	if err != nil {
		b.log.WithError(err).Error("list active embeds failed")
		b.replyEphemeral(i, "An error occurred while fetching active embeds.")
		return
	}
	if len(embeds) == 0 {
		b.replyEphemeral(i, "No active embeds found.")
		return
	}

	var sb strings.Builder
	for n, e := range embeds {
		fmt.Fprintf(&sb, "**%d.** ID: `%s`\n   Channel: <#%s>\n   Created by: <@%s>\n   Created: <t:%d:R>\n\n",
			n+1, e.MessageID, e.ChannelID, e.CreatedBy, e.CreatedAt.Unix())
	}
	b.replyEmbedEphemeral(i, &discordgo.MessageEmbed{
		Title:       "Active Event Creator Embeds",
		Color:       discord.ColorSuccess,
		Description: strings.TrimRight(sb.String(), "\n"),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Total: %d active embed(s)", len(embeds))},
	})
}

func (b *Bot) cmdListTokens(i *discordgo.InteractionCreate) {
	if !b.requireAdmin(i) {
		return
	}
	now := time.Now()
	tokens, err := b.store.ActiveTokens(context.Background(), now, 25)
	if err != nil {
		b.log.WithError(err).Error("list tokens failed")
		b.replyEphemeral(i, "An error occurred while fetching token information.")
		return
	}
	if len(tokens) == 0 {
		b.replyEphemeral(i, "No active session tokens found.")
		return
	}

	// Group by user for display; preserve newest-first order of first
	// appearance.
	order := make([]string, 0, len(tokens))
	byUser := make(map[string][]string)
	for _, t := range tokens {
		if _, seen := byUser[t.UserID]; !seen {
			order = append(order, t.UserID)
		}
		expiresIn := int(t.ExpiresAt.Sub(now).Minutes())
		byUser[t.UserID] = append(byUser[t.UserID],
			fmt.Sprintf("Channel: <#%s> | Expires in: %dm | Created: <t:%d:R>", t.ChannelID, expiresIn, t.CreatedAt.Unix()))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Active Session Tokens",
		Color:       0x00D4AA,
		Description: fmt.Sprintf("Found %d active session tokens", len(tokens)),
	}
	for _, userID := range order {
		lines := byUser[userID]
		value := strings.Join(lines, "\n")
		if len(value) > 1024 {
			value = value[:1020] + "..."
		}
		// Mentions don't render in embed field names, so show the raw id.
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("User %s (%d token(s))", userID, len(lines)),
			Value: value,
		})
	}
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("%d user(s) | %d total tokens", len(order), len(tokens)),
	}
	b.replyEmbedEphemeral(i, embed)
}

func (b *Bot) cmdClearSession(i *discordgo.InteractionCreate) {
	if !b.requireAdmin(i) {
		return
	}
	user := commandOptions(i)["user"].UserValue(nil)

	closed, deleted, err := b.ctrl.ClearUserSessions(context.Background(), user.ID)
	if err != nil {
		b.log.WithError(err).Error("clear session failed")
		b.replyEphemeral(i, "An error occurred while clearing sessions.")
		return
	}
	if closed == 0 && deleted == 0 {
		b.replyEphemeral(i, fmt.Sprintf("No tickets or sessions found for <@%s>.", user.ID))
		return
	}
	b.replyEphemeral(i, fmt.Sprintf("Cleared <@%s>: closed %d ticket(s), deleted %d session token(s).", user.ID, closed, deleted))
}
