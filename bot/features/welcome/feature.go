package welcome

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"krypton/messages"
	"krypton/service"
)

// Feature greets new members in the configured welcome channel
type Feature struct {
	session         *discordgo.Session
	settingsService service.GuildSettingsService
	store           *messages.Store
}

// NewFeature creates a new welcome feature instance
func NewFeature(session *discordgo.Session, settingsService service.GuildSettingsService, store *messages.Store) *Feature {
	return &Feature{
		session:         session,
		settingsService: settingsService,
		store:           store,
	}
}

// HandleJoin posts the welcome message when a member joins
func (f *Feature) HandleJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}

	guildID, err := strconv.ParseInt(m.GuildID, 10, 64)
	if err != nil {
		log.Errorf("Error parsing guild ID %s: %v", m.GuildID, err)
		return
	}

	settings, err := f.settingsService.GetOrCreateSettings(context.Background(), guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		return
	}
	if !settings.Welcome.Enabled || settings.Welcome.Channel == "" {
		return
	}

	guildName := m.GuildID
	memberCount := 0
	if guild, err := s.State.Guild(m.GuildID); err == nil {
		guildName = guild.Name
		memberCount = guild.MemberCount
	}

	embed, err := f.store.Render("welcome", map[string]string{
		"user":         fmt.Sprintf("<@%s>", m.User.ID),
		"guild-name":   guildName,
		"member-count": strconv.Itoa(memberCount),
	})
	if err != nil {
		log.Errorf("Error rendering welcome message: %v", err)
		return
	}

	if _, err := s.ChannelMessageSendEmbed(settings.Welcome.Channel, embed); err != nil {
		log.Errorf("Error sending welcome message in guild %d: %v", guildID, err)
	}
}
