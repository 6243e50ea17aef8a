package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsPaths_RoundTrip(t *testing.T) {
	values := map[string]any{
		"logsChannelId":                         "111222333",
		"welcomeSettings.enabled":               true,
		"welcomeSettings.channel":               "444555666",
		"ticketSettings.enabled":                true,
		"ticketSettings.transcriptChannel":      "777888999",
		"ticketSettings.maxTicketsPerUser":      3,
		"ticketSettings.transcriptOnClose":      true,
		"ticketSettings.transcriptType":         "dm",
		"ticketSettings.saveImagesInTranscript": true,
		"economySettings.coinSymbol":            "🪙",
		"economySettings.minWorkEarnings":       int64(25),
		"economySettings.maxWorkEarnings":       int64(250),
		"economySettings.dailyReward":           int64(150),
		"economySettings.weeklyReward":          int64(900),
	}

	settings := DefaultGuildSettings()
	for _, path := range SettingsPaths() {
		value, ok := values[path]
		require.True(t, ok, "path %q has no test value", path)
		require.NoError(t, settings.SetByPath(path, value))

		got, found := settings.ValueByPath(path)
		require.True(t, found)
		assert.Equal(t, value, got, "path %q", path)
	}
}

func TestSetByPath_NumericCoercion(t *testing.T) {
	settings := DefaultGuildSettings()

	// Discord option values arrive as float64 or string
	require.NoError(t, settings.SetByPath("economySettings.dailyReward", float64(250)))
	assert.Equal(t, int64(250), settings.Economy.DailyReward)

	require.NoError(t, settings.SetByPath("economySettings.dailyReward", "300"))
	assert.Equal(t, int64(300), settings.Economy.DailyReward)

	err := settings.SetByPath("economySettings.dailyReward", "abc")
	assert.True(t, IsValidation(err))
	assert.Equal(t, int64(300), settings.Economy.DailyReward, "rejected write must not change the value")
}

func TestSetByPath_UnknownPath(t *testing.T) {
	settings := DefaultGuildSettings()
	err := settings.SetByPath("ticketSettings.unknown", true)
	assert.True(t, IsValidation(err))

	_, found := settings.ValueByPath("ticketSettings.unknown")
	assert.False(t, found)
}

func TestGuildSettings_JSONRoundTrip(t *testing.T) {
	settings := DefaultGuildSettings()
	settings.LogsChannelID = "123"
	settings.Welcome = WelcomeSettings{Enabled: true, Channel: "456"}
	settings.UpsertTicketCategory(TicketCategory{
		ID:          "cat-1",
		Name:        "Support",
		Emoji:       "🎫",
		CategoryID:  "789",
		ButtonStyle: ButtonStyleSuccess,
		Roles:       []string{"1", "2"},
	})
	settings.CustomCommands["hello"] = CustomCommand{
		Enabled:     true,
		Description: "Says hello",
		Response:    CustomEmbed{Title: "Hi", Color: "#57f287", Description: "Hello there"},
	}

	raw, err := json.Marshal(settings)
	require.NoError(t, err)

	decoded := DefaultGuildSettings()
	require.NoError(t, json.Unmarshal(raw, decoded))

	assert.Equal(t, settings, decoded)
}

func TestTicketCategoryHelpers(t *testing.T) {
	settings := DefaultGuildSettings()
	settings.UpsertTicketCategory(TicketCategory{ID: "a", Name: "First"})
	settings.UpsertTicketCategory(TicketCategory{ID: "b", Name: "Second"})

	// Replace keeps position and id
	settings.UpsertTicketCategory(TicketCategory{ID: "a", Name: "Renamed"})
	require.Len(t, settings.TicketCategories, 2)
	assert.Equal(t, "Renamed", settings.TicketCategoryByID("a").Name)

	assert.True(t, settings.RemoveTicketCategory("b"))
	assert.False(t, settings.RemoveTicketCategory("b"))
	assert.Nil(t, settings.TicketCategoryByID("b"))
}

func TestParseButtonStyle(t *testing.T) {
	for _, style := range []ButtonStyle{ButtonStylePrimary, ButtonStyleSecondary, ButtonStyleSuccess, ButtonStyleDanger} {
		assert.Equal(t, style, ParseButtonStyle(style.String()))
	}
	assert.Equal(t, ButtonStylePrimary, ParseButtonStyle("bogus"))
}
