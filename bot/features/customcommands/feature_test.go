package customcommands

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestCooldownRemaining(t *testing.T) {
	f := NewFeature(nil, nil, nil)

	// First use is always allowed and stamps the clock
	assert.Zero(t, f.cooldownRemaining("g", "ping", "u", time.Minute))

	// Immediately after, the cooldown applies
	remaining := f.cooldownRemaining("g", "ping", "u", time.Minute)
	assert.Greater(t, remaining, 50*time.Second)

	// Other users and commands are tracked independently
	assert.Zero(t, f.cooldownRemaining("g", "ping", "other", time.Minute))
	assert.Zero(t, f.cooldownRemaining("g", "pong", "u", time.Minute))

	// Zero cooldown never throttles
	assert.Zero(t, f.cooldownRemaining("g", "free", "u", 0))
	assert.Zero(t, f.cooldownRemaining("g", "free", "u", 0))
}

func TestAllowed(t *testing.T) {
	f := NewFeature(nil, nil, nil)

	member := &discordgo.Member{Roles: []string{"100", "200"}}

	// Empty permission list means everyone may run it
	assert.True(t, f.allowed(member, nil))
	assert.True(t, f.allowed(nil, nil))

	assert.True(t, f.allowed(member, []string{"200"}))
	assert.False(t, f.allowed(member, []string{"300"}))
	assert.False(t, f.allowed(nil, []string{"300"}))
}
