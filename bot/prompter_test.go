package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"krypton/setup"
)

func TestFormatAnswer(t *testing.T) {
	tests := []struct {
		name     string
		question setup.Question
		answers  setup.Answers
		want     string
	}{
		{
			name:     "unanswered",
			question: setup.Question{Key: "prize", Type: setup.TypeText},
			answers:  setup.Answers{},
			want:     "Not Set",
		},
		{
			name:     "text",
			question: setup.Question{Key: "prize", Type: setup.TypeText},
			answers:  setup.Answers{"prize": "Nitro"},
			want:     "Nitro",
		},
		{
			name:     "channel mention",
			question: setup.Question{Key: "channel", Type: setup.TypeChannel},
			answers:  setup.Answers{"channel": "123"},
			want:     "<#123>",
		},
		{
			name:     "role mention",
			question: setup.Question{Key: "role", Type: setup.TypeRole},
			answers:  setup.Answers{"role": "456"},
			want:     "<@&456>",
		},
		{
			name:     "enabled boolean",
			question: setup.Question{Key: "enabled", Type: setup.TypeBoolean},
			answers:  setup.Answers{"enabled": true},
			want:     "Enabled",
		},
		{
			name:     "disabled boolean",
			question: setup.Question{Key: "enabled", Type: setup.TypeBoolean},
			answers:  setup.Answers{"enabled": false},
			want:     "Disabled",
		},
		{
			name:     "number",
			question: setup.Question{Key: "max", Type: setup.TypeNumber},
			answers:  setup.Answers{"max": int64(5)},
			want:     "5",
		},
		{
			name:     "empty role list",
			question: setup.Question{Key: "roles", Type: setup.TypeRoles},
			answers:  setup.Answers{"roles": []string{}},
			want:     "None",
		},
		{
			name:     "role list",
			question: setup.Question{Key: "roles", Type: setup.TypeRoles},
			answers:  setup.Answers{"roles": []string{"1", "2"}},
			want:     "<@&1> <@&2>",
		},
		{
			name:     "group",
			question: setup.Question{Key: "response", Type: setup.TypeGroup},
			answers:  setup.Answers{"response": setup.Answers{"title": "hi"}},
			want:     "Configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAnswer(tt.question, tt.answers))
		})
	}
}

func TestQuestionEmbed(t *testing.T) {
	q := setup.Question{Label: "Prize", Description: "What the winners get"}

	embed := questionEmbed(q, "")
	assert.Equal(t, "Prize", embed.Title)
	assert.Equal(t, "What the winners get", embed.Description)

	embed = questionEmbed(q, "Nitro")
	assert.Contains(t, embed.Description, "Current value: **Nitro**")
}

func TestPrompterCustomIDsAreUnique(t *testing.T) {
	p := &wizardPrompter{}
	first := p.customID("summary")
	second := p.customID("summary")
	assert.NotEqual(t, first, second)
}
