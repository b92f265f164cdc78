package bot

import (
	"github.com/bwmarrin/discordgo"
)

// Interaction responses follow first-reply-then-followup semantics: a
// response is sent at most once per interaction; if the first reply fails
// (typically because something already acknowledged it) the content goes out
// as a followup instead. Expired interactions are abandoned silently.

func (b *Bot) replyEphemeral(i *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.followupEphemeral(i, content)
	}
}

func (b *Bot) replyEmbedEphemeral(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		if _, ferr := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		}); ferr != nil {
			b.log.WithError(ferr).Debug("interaction followup failed")
		}
	}
}

func (b *Bot) deferEphemeral(i *discordgo.InteractionCreate) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *Bot) editReply(i *discordgo.InteractionCreate, content string) {
	if _, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}); err != nil {
		b.followupEphemeral(i, content)
	}
}

func (b *Bot) followupEphemeral(i *discordgo.InteractionCreate, content string) {
	if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		b.log.WithError(err).Debug("interaction followup failed")
	}
}
