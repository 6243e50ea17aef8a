package giveaways

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krypton/models"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "minutes", input: "30m", want: 30 * time.Minute},
		{name: "hours", input: "12h", want: 12 * time.Hour},
		{name: "days", input: "2d", want: 48 * time.Hour},
		{name: "fractional days", input: "1.5d", want: 36 * time.Hour},
		{name: "combined", input: "1h30m", want: 90 * time.Minute},
		{name: "whitespace", input: " 45m ", want: 45 * time.Minute},
		{name: "zero", input: "0m", wantErr: true},
		{name: "negative", input: "-1h", wantErr: true},
		{name: "negative days", input: "-2d", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMentionList(t *testing.T) {
	assert.Equal(t, "None", mentionList(nil))
	assert.Equal(t, "<@42>", mentionList([]int64{42}))
	assert.Equal(t, "<@1>, <@2>", mentionList([]int64{1, 2}))
}

func TestGiveawayVars(t *testing.T) {
	end := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := &models.Giveaway{
		Prize:       "Nitro",
		Description: "monthly drop",
		HostedBy:    7,
		WinnerCount: 2,
		EndDate:     end,
		Entries:     []int64{1, 2, 3},
		Winners:     []int64{2},
	}

	vars := giveawayVars(g)
	assert.Equal(t, "Nitro", vars["prize"])
	assert.Equal(t, "monthly drop", vars["description"])
	assert.Equal(t, "<@7>", vars["hosted-by"])
	assert.Equal(t, "3", vars["entries-count"])
	assert.Equal(t, "2", vars["winners-count"])
	assert.Equal(t, "<@2>", vars["winners"])
	assert.Contains(t, vars["end-date"], "<t:")
}
