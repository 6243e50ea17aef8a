package models

import (
	"fmt"
	"strconv"
	"time"
)

// ButtonStyle mirrors the Discord button style enum. Values match the wire
// representation so the bot layer can convert directly.
type ButtonStyle int

const (
	ButtonStylePrimary   ButtonStyle = 1
	ButtonStyleSecondary ButtonStyle = 2
	ButtonStyleSuccess   ButtonStyle = 3
	ButtonStyleDanger    ButtonStyle = 4
)

// String returns the display name of the button style
func (b ButtonStyle) String() string {
	switch b {
	case ButtonStylePrimary:
		return "Primary"
	case ButtonStyleSecondary:
		return "Secondary"
	case ButtonStyleSuccess:
		return "Success"
	case ButtonStyleDanger:
		return "Danger"
	default:
		return "Primary"
	}
}

// ParseButtonStyle parses a display name back into a button style
func ParseButtonStyle(s string) ButtonStyle {
	switch s {
	case "Secondary":
		return ButtonStyleSecondary
	case "Success":
		return ButtonStyleSuccess
	case "Danger":
		return ButtonStyleDanger
	default:
		return ButtonStylePrimary
	}
}

// WelcomeSettings controls the member-join welcome message
type WelcomeSettings struct {
	Enabled bool   `json:"enabled"`
	Channel string `json:"channel"`
}

// TicketSettings controls the ticket support system
type TicketSettings struct {
	Enabled                bool   `json:"enabled"`
	TranscriptChannel      string `json:"transcriptChannel"`
	MaxTicketsPerUser      int    `json:"maxTicketsPerUser"`
	TranscriptOnClose      bool   `json:"transcriptOnClose"`
	TranscriptType         string `json:"transcriptType"`
	SaveImagesInTranscript bool   `json:"saveImagesInTranscript"`
}

// EconomySettings controls per-guild economy amounts
type EconomySettings struct {
	CoinSymbol      string `json:"coinSymbol"`
	MinWorkEarnings int64  `json:"minWorkEarnings"`
	MaxWorkEarnings int64  `json:"maxWorkEarnings"`
	DailyReward     int64  `json:"dailyReward"`
	WeeklyReward    int64  `json:"weeklyReward"`
}

// TicketCategory defines one ticket kind offered on a ticket panel.
// The ID is immutable once created; open tickets reference it.
type TicketCategory struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Emoji       string      `json:"emoji"`
	CategoryID  string      `json:"categoryId"`
	ButtonStyle ButtonStyle `json:"buttonStyle"`
	Roles       []string    `json:"roles"`
}

// CustomCommand is an admin-defined command answered with a templated embed
type CustomCommand struct {
	Enabled     bool          `json:"enabled"`
	Description string        `json:"description"`
	Permissions []string      `json:"permissions"`
	Cooldown    time.Duration `json:"cooldown"`
	Response    CustomEmbed   `json:"response"`
}

// CustomEmbed is the embed payload of a custom command response
type CustomEmbed struct {
	Title       string `json:"title"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// GuildSettings is the per-guild configuration document. It is persisted
// as a single JSONB column and lazily created with defaults on first
// access.
type GuildSettings struct {
	LogsChannelID    string                   `json:"logsChannelId"`
	Welcome          WelcomeSettings          `json:"welcomeSettings"`
	Tickets          TicketSettings           `json:"ticketSettings"`
	Economy          EconomySettings          `json:"economySettings"`
	TicketCategories []TicketCategory         `json:"ticketCategories"`
	CustomCommands   map[string]CustomCommand `json:"customCommands"`
}

// Guild pairs a guild id with its settings document
type Guild struct {
	GuildID   int64          `db:"guild_id"`
	Settings  *GuildSettings `db:"settings"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// DefaultGuildSettings returns the documented defaults applied when a
// guild is first seen.
func DefaultGuildSettings() *GuildSettings {
	return &GuildSettings{
		Tickets: TicketSettings{
			MaxTicketsPerUser: 1,
			TranscriptType:    "channel",
		},
		Economy: EconomySettings{
			CoinSymbol:      "💰",
			MinWorkEarnings: 10,
			MaxWorkEarnings: 100,
			DailyReward:     100,
			WeeklyReward:    500,
		},
		CustomCommands: map[string]CustomCommand{},
	}
}

// settingsPath binds one dot-path key to a typed leaf of GuildSettings.
// The table replaces runtime string-splitting reflection: every
// addressable leaf is enumerated here, so a path either resolves to
// exactly one leaf or does not exist.
type settingsPath struct {
	get func(*GuildSettings) any
	set func(*GuildSettings, any) error
}

var settingsPaths = map[string]settingsPath{
	"logsChannelId": {
		get: func(s *GuildSettings) any { return s.LogsChannelID },
		set: func(s *GuildSettings, v any) error { return assignString(&s.LogsChannelID, v) },
	},
	"welcomeSettings.enabled": {
		get: func(s *GuildSettings) any { return s.Welcome.Enabled },
		set: func(s *GuildSettings, v any) error { return assignBool(&s.Welcome.Enabled, v) },
	},
	"welcomeSettings.channel": {
		get: func(s *GuildSettings) any { return s.Welcome.Channel },
		set: func(s *GuildSettings, v any) error { return assignString(&s.Welcome.Channel, v) },
	},
	"ticketSettings.enabled": {
		get: func(s *GuildSettings) any { return s.Tickets.Enabled },
		set: func(s *GuildSettings, v any) error { return assignBool(&s.Tickets.Enabled, v) },
	},
	"ticketSettings.transcriptChannel": {
		get: func(s *GuildSettings) any { return s.Tickets.TranscriptChannel },
		set: func(s *GuildSettings, v any) error { return assignString(&s.Tickets.TranscriptChannel, v) },
	},
	"ticketSettings.maxTicketsPerUser": {
		get: func(s *GuildSettings) any { return s.Tickets.MaxTicketsPerUser },
		set: func(s *GuildSettings, v any) error { return assignInt(&s.Tickets.MaxTicketsPerUser, v) },
	},
	"ticketSettings.transcriptOnClose": {
		get: func(s *GuildSettings) any { return s.Tickets.TranscriptOnClose },
		set: func(s *GuildSettings, v any) error { return assignBool(&s.Tickets.TranscriptOnClose, v) },
	},
	"ticketSettings.transcriptType": {
		get: func(s *GuildSettings) any { return s.Tickets.TranscriptType },
		set: func(s *GuildSettings, v any) error { return assignString(&s.Tickets.TranscriptType, v) },
	},
	"ticketSettings.saveImagesInTranscript": {
		get: func(s *GuildSettings) any { return s.Tickets.SaveImagesInTranscript },
		set: func(s *GuildSettings, v any) error { return assignBool(&s.Tickets.SaveImagesInTranscript, v) },
	},
	"economySettings.coinSymbol": {
		get: func(s *GuildSettings) any { return s.Economy.CoinSymbol },
		set: func(s *GuildSettings, v any) error { return assignString(&s.Economy.CoinSymbol, v) },
	},
	"economySettings.minWorkEarnings": {
		get: func(s *GuildSettings) any { return s.Economy.MinWorkEarnings },
		set: func(s *GuildSettings, v any) error { return assignInt64(&s.Economy.MinWorkEarnings, v) },
	},
	"economySettings.maxWorkEarnings": {
		get: func(s *GuildSettings) any { return s.Economy.MaxWorkEarnings },
		set: func(s *GuildSettings, v any) error { return assignInt64(&s.Economy.MaxWorkEarnings, v) },
	},
	"economySettings.dailyReward": {
		get: func(s *GuildSettings) any { return s.Economy.DailyReward },
		set: func(s *GuildSettings, v any) error { return assignInt64(&s.Economy.DailyReward, v) },
	},
	"economySettings.weeklyReward": {
		get: func(s *GuildSettings) any { return s.Economy.WeeklyReward },
		set: func(s *GuildSettings, v any) error { return assignInt64(&s.Economy.WeeklyReward, v) },
	},
}

// SettingsPaths returns all addressable dot-path keys
func SettingsPaths() []string {
	keys := make([]string, 0, len(settingsPaths))
	for k := range settingsPaths {
		keys = append(keys, k)
	}
	return keys
}

// ValueByPath resolves a dot-path key to its leaf value. The second
// return is false when the path does not exist.
func (s *GuildSettings) ValueByPath(path string) (any, bool) {
	p, ok := settingsPaths[path]
	if !ok {
		return nil, false
	}
	return p.get(s), true
}

// SetByPath assigns a leaf value addressed by its dot-path key. Sibling
// fields are untouched. Fails with a ValidationError on unknown paths or
// incompatible value types.
func (s *GuildSettings) SetByPath(path string, v any) error {
	p, ok := settingsPaths[path]
	if !ok {
		return NewValidationError("path", fmt.Sprintf("unknown settings key %q", path))
	}
	return p.set(s, v)
}

// TicketCategoryByID finds a ticket category by its immutable id
func (s *GuildSettings) TicketCategoryByID(id string) *TicketCategory {
	for i := range s.TicketCategories {
		if s.TicketCategories[i].ID == id {
			return &s.TicketCategories[i]
		}
	}
	return nil
}

// UpsertTicketCategory adds the category, or replaces the existing one
// with the same id while keeping the id itself immutable.
func (s *GuildSettings) UpsertTicketCategory(category TicketCategory) {
	for i := range s.TicketCategories {
		if s.TicketCategories[i].ID == category.ID {
			s.TicketCategories[i] = category
			return
		}
	}
	s.TicketCategories = append(s.TicketCategories, category)
}

// RemoveTicketCategory deletes a category by id, reporting whether it existed
func (s *GuildSettings) RemoveTicketCategory(id string) bool {
	for i := range s.TicketCategories {
		if s.TicketCategories[i].ID == id {
			s.TicketCategories = append(s.TicketCategories[:i], s.TicketCategories[i+1:]...)
			return true
		}
	}
	return false
}

func assignString(dst *string, v any) error {
	s, ok := v.(string)
	if !ok {
		return NewValidationError("value", fmt.Sprintf("expected string, got %T", v))
	}
	*dst = s
	return nil
}

func assignBool(dst *bool, v any) error {
	b, ok := v.(bool)
	if !ok {
		return NewValidationError("value", fmt.Sprintf("expected boolean, got %T", v))
	}
	*dst = b
	return nil
}

func assignInt64(dst *int64, v any) error {
	n, err := coerceInt64(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func assignInt(dst *int, v any) error {
	n, err := coerceInt64(v)
	if err != nil {
		return err
	}
	*dst = int(n)
	return nil
}

func coerceInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, NewValidationError("value", fmt.Sprintf("%q is not a number", n))
		}
		return parsed, nil
	default:
		return 0, NewValidationError("value", fmt.Sprintf("expected number, got %T", v))
	}
}
