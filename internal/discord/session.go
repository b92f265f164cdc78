// Package discord wraps the pieces of the Discord API the ticket lifecycle
// needs behind a narrow interface, so the controller stays testable without
// a gateway connection.
package discord

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Permissions granted inside a ticket channel.
const (
	requesterPerms = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory
	staffPerms = requesterPerms | discordgo.PermissionManageMessages
)

// Session is the surface of the chat platform the lifecycle controller
// depends on. All methods are blocking REST calls.
type Session interface {
	CreateTicketChannel(guildID, name, parentID string, overwrites []*discordgo.PermissionOverwrite) (channelID string, err error)
	ChannelExists(channelID string) bool
	DeleteChannel(channelID string) error
	SendMessage(channelID string, msg *discordgo.MessageSend) (messageID string, err error)
	DeleteMessage(channelID, messageID string) error
	GuildRoles(guildID string) ([]*discordgo.Role, error)
}

// Gateway implements Session on a live discordgo session.
type Gateway struct {
	s *discordgo.Session
}

func NewGateway(s *discordgo.Session) *Gateway {
	return &Gateway{s: s}
}

func (g *Gateway) CreateTicketChannel(guildID, name, parentID string, overwrites []*discordgo.PermissionOverwrite) (string, error) {
	ch, err := g.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", fmt.Errorf("create channel: %w", err)
	}
	return ch.ID, nil
}

func (g *Gateway) ChannelExists(channelID string) bool {
	_, err := g.s.Channel(channelID)
	return err == nil
}

func (g *Gateway) DeleteChannel(channelID string) error {
	_, err := g.s.ChannelDelete(channelID)
	return err
}

func (g *Gateway) SendMessage(channelID string, msg *discordgo.MessageSend) (string, error) {
	m, err := g.s.ChannelMessageSendComplex(channelID, msg)
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (g *Gateway) DeleteMessage(channelID, messageID string) error {
	return g.s.ChannelMessageDelete(channelID, messageID)
}

func (g *Gateway) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	return g.s.GuildRoles(guildID)
}

// TicketOverwrites builds the permission set for a new ticket channel: the
// guild is denied view, the requester is allowed in, and every role whose
// name contains one of staffNames (case-insensitive) gets staff access.
func TicketOverwrites(guildID, userID string, roles []*discordgo.Role, staffNames []string) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    userID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: requesterPerms,
		},
	}
	for _, role := range roles {
		if !matchesStaff(role.Name, staffNames) {
			continue
		}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    role.ID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: staffPerms,
		})
	}
	return overwrites
}

func matchesStaff(roleName string, staffNames []string) bool {
	lower := strings.ToLower(roleName)
	for _, name := range staffNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// TicketChannelName derives the channel name for a new ticket: a short id
// from the creation time plus the requester's name, sanitized to Discord's
// channel-name alphabet and capped at 100 characters.
func TicketChannelName(username string, at time.Time) string {
	short := strconv.FormatInt(at.UnixMilli(), 36)
	if len(short) > 6 {
		short = short[len(short)-6:]
	}
	name := strings.ToLower(fmt.Sprintf("ticket-%s-%s", short, username))
	name = sanitizeChannelName(name)
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

func sanitizeChannelName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	return sb.String()
}
