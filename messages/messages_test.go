package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krypton/models"
)

func TestNewStore_LoadsDefaults(t *testing.T) {
	store, err := NewStore()
	require.NoError(t, err)

	embed, err := store.Render("giveaway_active", map[string]string{
		"prize":         "Nitro",
		"description":   "Good luck!",
		"end-date":      "tomorrow",
		"hosted-by":     "@host",
		"entries-count": "3",
		"winners-count": "1",
	})
	require.NoError(t, err)

	assert.Equal(t, "🎉 Nitro", embed.Title)
	assert.Contains(t, embed.Description, "Good luck!")
	assert.Contains(t, embed.Description, "Entries: 3")
	assert.Equal(t, 0x5865f2, embed.Color)
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "Ends at", embed.Footer.Text)
}

func TestRender_UnknownTemplate(t *testing.T) {
	store, err := NewStore()
	require.NoError(t, err)

	_, err = store.Render("does_not_exist", nil)
	assert.True(t, models.IsNotFound(err))
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		vars     map[string]string
		expected string
	}{
		{
			name:     "single token",
			text:     "hello {user}",
			vars:     map[string]string{"user": "alice"},
			expected: "hello alice",
		},
		{
			name:     "repeated token",
			text:     "{prize} and {prize}",
			vars:     map[string]string{"prize": "Nitro"},
			expected: "Nitro and Nitro",
		},
		{
			name:     "missing token left intact",
			text:     "hello {user}",
			vars:     map[string]string{},
			expected: "hello {user}",
		},
		{
			name:     "no tokens",
			text:     "plain text",
			vars:     map[string]string{"user": "alice"},
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Substitute(tt.text, tt.vars))
		})
	}
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, 0xed4245, ParseColor("#ed4245"))
	assert.Equal(t, 0x57f287, ParseColor("57f287"))
	assert.Equal(t, DefaultColor, ParseColor(""))
	assert.Equal(t, DefaultColor, ParseColor("#zzzzzz"))
	assert.Equal(t, DefaultColor, ParseColor("#fff"))
}
