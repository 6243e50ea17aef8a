// Package messages holds the embed templates the bot renders. Templates
// ship as embedded YAML defaults and can be overridden per deployment
// with a template file; placeholders written as {token} are substituted
// at render time.
package messages

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "embed"

	"github.com/bwmarrin/discordgo"
	"gopkg.in/yaml.v3"

	"krypton/models"
)

//go:embed defaults.yaml
var defaultTemplates []byte

// DefaultColor is used when a template carries no color or an unparsable one
const DefaultColor = 0x5865f2

// Template is one renderable embed definition
type Template struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	Footer      string `yaml:"footer"`
}

// Store resolves template names to renderable embeds
type Store struct {
	templates map[string]Template
}

// NewStore loads the embedded default templates
func NewStore() (*Store, error) {
	templates := make(map[string]Template)
	if err := yaml.Unmarshal(defaultTemplates, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse default templates: %w", err)
	}
	return &Store{templates: templates}, nil
}

// NewStoreFromFile loads the defaults and overlays templates from the
// given YAML file. Templates present in the file replace the default of
// the same name; absent names keep their defaults.
func NewStoreFromFile(path string) (*Store, error) {
	store, err := NewStore()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	overrides := make(map[string]Template)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}
	for name, tmpl := range overrides {
		store.templates[name] = tmpl
	}
	return store, nil
}

// Render substitutes vars into the named template and returns the embed.
// Unknown template names fail with a NotFoundError.
func (s *Store) Render(name string, vars map[string]string) (*discordgo.MessageEmbed, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return nil, models.NewNotFoundError("message template", name)
	}

	embed := &discordgo.MessageEmbed{
		Title:       Substitute(tmpl.Title, vars),
		Description: Substitute(tmpl.Description, vars),
		Color:       ParseColor(tmpl.Color),
	}
	if tmpl.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: Substitute(tmpl.Footer, vars)}
	}
	return embed, nil
}

// Substitute replaces every {token} occurrence with its value from vars.
// Tokens without a value are left as-is so a missing var is visible
// rather than silently blanked.
func Substitute(text string, vars map[string]string) string {
	for token, value := range vars {
		text = strings.ReplaceAll(text, "{"+token+"}", value)
	}
	return text
}

// ParseColor converts a "#rrggbb" hex string into the integer color
// Discord expects, falling back to DefaultColor on bad input.
func ParseColor(color string) int {
	hex := strings.TrimPrefix(color, "#")
	if len(hex) != 6 {
		return DefaultColor
	}
	value, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return DefaultColor
	}
	return int(value)
}
