package discord

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketChannelName(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	name := TicketChannelName("Alice", at)
	assert.True(t, strings.HasPrefix(name, "ticket-"), name)
	assert.True(t, strings.HasSuffix(name, "-alice"), name)

	// Deterministic for a fixed timestamp.
	assert.Equal(t, name, TicketChannelName("Alice", at))

	// Different timestamps give different short ids.
	other := TicketChannelName("Alice", at.Add(time.Minute))
	assert.NotEqual(t, name, other)
}

func TestTicketChannelNameSanitizes(t *testing.T) {
	at := time.Now()
	name := TicketChannelName("Al ice!#$%", at)
	for _, r := range name {
		valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
		assert.True(t, valid, "invalid rune %q in %q", r, name)
	}
}

func TestTicketChannelNameLengthCap(t *testing.T) {
	name := TicketChannelName(strings.Repeat("a", 200), time.Now())
	assert.LessOrEqual(t, len(name), 100)
}

func TestTicketOverwrites(t *testing.T) {
	roles := []*discordgo.Role{
		{ID: "r-staff", Name: "Event Staff"},
		{ID: "r-admin", Name: "ADMINISTRATORS"},
		{ID: "r-member", Name: "Member"},
	}
	overwrites := TicketOverwrites("guild-1", "user-1", roles, []string{"Staff", "Admin"})
	require.Len(t, overwrites, 4)

	// @everyone (the guild id role) is denied view.
	assert.Equal(t, "guild-1", overwrites[0].ID)
	assert.Equal(t, discordgo.PermissionOverwriteTypeRole, overwrites[0].Type)
	assert.EqualValues(t, discordgo.PermissionViewChannel, overwrites[0].Deny)

	// The requester can see and use the channel.
	assert.Equal(t, "user-1", overwrites[1].ID)
	assert.Equal(t, discordgo.PermissionOverwriteTypeMember, overwrites[1].Type)
	assert.NotZero(t, overwrites[1].Allow&discordgo.PermissionViewChannel)
	assert.NotZero(t, overwrites[1].Allow&discordgo.PermissionSendMessages)

	// Staff roles match case-insensitively as substrings; members do not.
	staffIDs := []string{overwrites[2].ID, overwrites[3].ID}
	assert.ElementsMatch(t, []string{"r-staff", "r-admin"}, staffIDs)
	for _, ow := range overwrites[2:] {
		assert.NotZero(t, ow.Allow&discordgo.PermissionManageMessages)
	}
}

func TestTicketOverwritesNoStaffMatch(t *testing.T) {
	roles := []*discordgo.Role{{ID: "r-member", Name: "Member"}}
	overwrites := TicketOverwrites("guild-1", "user-1", roles, []string{"Staff"})
	assert.Len(t, overwrites, 2)
}

func TestReminderMessageFinalWording(t *testing.T) {
	regular := ReminderMessage("user-1", "https://example.com", 1, 3, 18)
	require.Len(t, regular.Embeds, 1)
	assert.NotContains(t, regular.Embeds[0].Description, "final reminder")
	assert.Equal(t, ColorWarning, regular.Embeds[0].Color)

	final := ReminderMessage("user-1", "https://example.com", 3, 3, 6)
	require.Len(t, final.Embeds, 1)
	assert.Contains(t, final.Embeds[0].Description, "final reminder")
	assert.Equal(t, ColorError, final.Embeds[0].Color)
}

func TestFindPackage(t *testing.T) {
	require.NotEmpty(t, Packages)
	first := Packages[0]
	assert.Equal(t, &Packages[0], FindPackage(first.Name))
	assert.Nil(t, FindPackage("No Such Package"))
}
