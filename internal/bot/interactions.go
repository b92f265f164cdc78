package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/rawstudio/ticketbot/internal/discord"
	"github.com/rawstudio/ticketbot/internal/model"
	"github.com/rawstudio/ticketbot/internal/store"
	"github.com/rawstudio/ticketbot/internal/ticket"
)

const genericError = "An error occurred. Please try again or contact an administrator."

// onInteractionCreate routes slash commands, button clicks and modal submits
// to their handlers. Every path guarantees a terminal response; a panicking
// handler is recovered so one bad interaction never takes the process down.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithField("panic", r).Error("interaction handler panicked")
			b.replyEphemeral(i, genericError)
		}
	}()

	if i.GuildID == "" || i.Member == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		handler, ok := b.commands[name]
		if !ok {
			b.log.WithField("command", name).Warn("unknown command")
			return
		}
		handler(i)
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		switch {
		case strings.HasPrefix(customID, discord.CustomIDStartSetupPrefix):
			b.handleStartTicket(i, customID)
		case customID == discord.CustomIDViewPackages:
			b.handleViewPackages(i)
		}
	case discordgo.InteractionModalSubmit:
		customID := i.ModalSubmitData().CustomID
		if strings.HasPrefix(customID, discord.CustomIDSetupModalPrefix) {
			b.handleSetupModal(i, customID)
		}
	}
}

// handleStartTicket is the "begin ticket" button on an entry-point embed.
// The custom id encodes the open and closed category ids.
func (b *Bot) handleStartTicket(i *discordgo.InteractionCreate, customID string) {
	if err := b.deferEphemeral(i); err != nil {
		// Interaction token expired; nothing left to respond to.
		b.log.WithError(err).Debug("could not defer start-ticket interaction")
		return
	}

	parts := strings.Split(customID, ":")
	if len(parts) < 3 {
		b.editReply(i, "This button is misconfigured. Please contact an administrator.")
		return
	}
	openCategoryID := parts[1]

	res, err := b.ctrl.Begin(context.Background(), ticket.BeginRequest{
		GuildID:        i.GuildID,
		UserID:         i.Member.User.ID,
		Username:       i.Member.User.Username,
		EmbedMessageID: i.Message.ID,
		OpenCategoryID: openCategoryID,
	})
	switch {
	case errors.Is(err, ticket.ErrEmbedInactive):
		b.editReply(i, "This embed is no longer active. Please contact an administrator.")
	case err != nil:
		b.log.WithError(err).Error("ticket creation failed")
		b.editReply(i, "An error occurred while creating your ticket. Please contact an administrator.")
	case res.Existing:
		b.editReply(i, fmt.Sprintf("You already have an open ticket: <#%s>", res.Ticket.ChannelID))
	default:
		b.editReply(i, fmt.Sprintf("Your ticket has been created: <#%s>\nPlease check the channel to continue!", res.Ticket.ChannelID))
	}
}

// handleViewPackages is the button inside a ticket channel that hands the
// requester their signed package-selection link.
func (b *Bot) handleViewPackages(i *discordgo.InteractionCreate) {
	if err := b.deferEphemeral(i); err != nil {
		b.log.WithError(err).Debug("could not defer view-packages interaction")
		return
	}

	url, err := b.ctrl.PackageLink(context.Background(), i.Member.User.ID, i.ChannelID)
	switch {
	case errors.Is(err, store.ErrTicketNotFound):
		b.editReply(i, "This is not a valid ticket channel.")
	case errors.Is(err, ticket.ErrNotTicketOwner):
		b.editReply(i, "This ticket does not belong to you.")
	case err != nil:
		b.log.WithError(err).Error("package link generation failed")
		b.editReply(i, genericError)
	default:
		b.editReply(i, fmt.Sprintf("**Click here to view packages:**\n%s\n\nThis link is valid for 1 hour and is unique to you.", url))
	}
}

// handleSetupModal posts the entry-point embed configured by the admin and
// records it as active.
func (b *Bot) handleSetupModal(i *discordgo.InteractionCreate, customID string) {
	b.replyEphemeral(i, "Setting up your event embed...")

	parts := strings.Split(customID, ":")
	if len(parts) < 4 {
		b.editReply(i, "Malformed setup submission.")
		return
	}
	embedChannelID, openCategoryID, closedCategoryID := parts[1], parts[2], parts[3]

	data := i.ModalSubmitData()
	title := modalValue(data, "embed_title")
	description := modalValue(data, "embed_description")
	footer := modalValue(data, "embed_footer")
	thumbnail := modalValue(data, "embed_thumbnail")

	msg := discord.SetupEmbed(title, description, footer, thumbnail, openCategoryID, closedCategoryID)
	sent, err := b.session.ChannelMessageSendComplex(embedChannelID, msg)
	if err != nil {
		b.log.WithError(err).WithField("channel", embedChannelID).Error("failed to post setup embed")
		b.editReply(i, "Could not post the embed to the configured channel.")
		return
	}

	err = b.store.CreateEmbed(context.Background(), &model.ActiveEmbed{
		MessageID: sent.ID,
		ChannelID: embedChannelID,
		GuildID:   i.GuildID,
		CreatedBy: i.Member.User.ID,
		Active:    true,
	})
	if err != nil {
		b.log.WithError(err).Error("failed to persist active embed")
		b.editReply(i, "The embed was posted but could not be recorded. Deactivate it and retry.")
		return
	}

	b.editReply(i, fmt.Sprintf(
		"Event Creator embed sent to <#%s>!\n\nOpen Tickets Category: <#%s>\nClosed Tickets Category: <#%s>\n\nThe embed is now active and ready to accept ticket requests.",
		embedChannelID, openCategoryID, closedCategoryID))
}

// modalValue pulls a text input out of a modal submission by custom id.
func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, comp := range data.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			input, ok := inner.(*discordgo.TextInput)
			if !ok {
				continue
			}
			if input.CustomID == customID {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}
