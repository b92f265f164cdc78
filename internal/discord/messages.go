package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rawstudio/ticketbot/internal/model"
)

// Embed colors.
const (
	ColorPrimary = 0x5865F2
	ColorSuccess = 0x57F287
	ColorWarning = 0xFFA500
	ColorError   = 0xED4245
	ColorPink    = 0xFF69B4
)

const footerText = "Raw Studio"

// CustomID values routed by the interaction dispatcher.
const (
	CustomIDStartSetupPrefix = "start_event_setup"
	CustomIDViewPackages     = "view_packages"
	CustomIDSetupModalPrefix = "setup_modal"
)

// WelcomeMessage is the introductory message posted into a fresh ticket
// channel, carrying the "View Packages" button.
func WelcomeMessage(userID, username string) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Welcome, %s", username),
		Color: ColorPrimary,
		Description: "Thank you for your interest in **Raw Studio**!\n\n" +
			"Click the button below to view our event packages on the website.\n" +
			"Your Discord session will automatically link with the web session.\n\n" +
			"**What happens next?**\n" +
			"1. Browse our packages\n" +
			"2. Select your preferred package\n" +
			"3. Fill in event details\n" +
			"4. Our staff will follow up here\n\n" +
			"Have questions? Feel free to ask here!",
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", userID),
		Embeds:  []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: CustomIDViewPackages,
					Label:    "View Packages",
					Style:    discordgo.PrimaryButton,
				},
			}},
		},
	}
}

// ReminderMessage nudges the requester to finish their selection. The link
// button embeds a freshly minted session token. The final reminder gets
// last-chance wording; nothing else distinguishes it.
func ReminderMessage(userID, packageURL string, reminderNumber, maxReminders, hoursRemaining int) *discordgo.MessageSend {
	color := ColorWarning
	finalNote := ""
	if reminderNumber == maxReminders {
		color = ColorError
		finalNote = "**This is your final reminder!** After this, the ticket will be closed automatically.\n\n"
	}
	embed := &discordgo.MessageEmbed{
		Title: "Reminder: Complete Your Package Selection",
		Color: color,
		Description: fmt.Sprintf("Hi <@%s>!\n\n", userID) +
			"We noticed you haven't completed your package selection yet.\n\n" +
			"**Important:**\n" +
			fmt.Sprintf("- This ticket will be automatically deleted in **%d hours** if no package is selected\n", hoursRemaining) +
			"- Click the button below to view our packages and complete your selection\n" +
			"- We've generated a fresh session link for you\n\n" +
			finalNote +
			"Need help? Just ask here and our team will assist you!",
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Reminder %d/%d • %s", reminderNumber, maxReminders, footerText)},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", userID),
		Embeds:  []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label: "View Packages & Complete Selection",
					Style: discordgo.LinkButton,
					URL:   packageURL,
				},
			}},
		},
	}
}

// CloseNotice is posted before an admin-initiated channel teardown.
func CloseNotice() *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Ticket Closed",
			Color:       ColorError,
			Description: "This ticket has been closed by an administrator.",
			Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
			Timestamp:   time.Now().Format(time.RFC3339),
		}},
	}
}

// AutoCloseNotice is posted before an inactivity teardown.
func AutoCloseNotice(userID string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", userID),
		Embeds: []*discordgo.MessageEmbed{{
			Title: "Ticket Auto-Closed",
			Color: ColorError,
			Description: "This ticket has been automatically closed due to inactivity.\n\n" +
				"**Reason:** No package selection within 24 hours\n\n" +
				"If you still need assistance, please create a new ticket.\n" +
				"This channel will be deleted in 10 seconds.",
			Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
			Timestamp: time.Now().Format(time.RFC3339),
		}},
	}
}

// SelectionSummary is posted into the ticket channel when the webhook
// reconciles a completed web selection.
func SelectionSummary(sel *model.PackageSelection) *discordgo.MessageSend {
	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: fmt.Sprintf("<@%s>", sel.UserID), Inline: true},
		{Name: "Package", Value: sel.PackageName, Inline: true},
	}
	if pkg := FindPackage(sel.PackageName); pkg != nil {
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "Price", Value: pkg.Price, Inline: true},
			&discordgo.MessageEmbedField{Name: "Hosts", Value: pkg.Hosts, Inline: true},
			&discordgo.MessageEmbedField{Name: "Duration", Value: pkg.Duration, Inline: false},
			&discordgo.MessageEmbedField{Name: "Features", Value: "- " + strings.Join(pkg.Features, "\n- "), Inline: false},
		)
	} else if sel.PackagePrice != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Price", Value: sel.PackagePrice, Inline: true})
	}
	fields = append(fields,
		&discordgo.MessageEmbedField{Name: "Event Date & Time", Value: sel.EventAt.Format("Jan 2, 2006 3:04 PM MST"), Inline: false},
		&discordgo.MessageEmbedField{Name: "Server Link", Value: sel.ServerLink, Inline: false},
	)
	if strings.TrimSpace(sel.CustomRequests) != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Additional Notes", Value: sel.CustomRequests, Inline: false})
	}
	return &discordgo.MessageSend{
		Content: "Package selection received! Let's make the event memorable!",
		Embeds: []*discordgo.MessageEmbed{{
			Title:     "Package Selected",
			Color:     ColorPink,
			Fields:    fields,
			Footer:    &discordgo.MessageEmbedFooter{Text: "Our team will review and respond shortly"},
			Timestamp: time.Now().Format(time.RFC3339),
		}},
	}
}

// SetupEmbed is the ticket-creation entry point posted by the setup flow.
// The button's custom id encodes the open/closed category ids so the create
// path knows where to provision the channel.
func SetupEmbed(title, description, footer, thumbnail, openCategoryID, closedCategoryID string) *discordgo.MessageSend {
	if footer == "" {
		footer = footerText
	}
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       ColorPink,
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: fmt.Sprintf("%s:%s:%s", CustomIDStartSetupPrefix, openCategoryID, closedCategoryID),
					Label:    "Start Event Setup",
					Style:    discordgo.PrimaryButton,
				},
			}},
		},
	}
}
