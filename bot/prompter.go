package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"krypton/bot/common"
	"krypton/messages"
	"krypton/setup"
)

// wizardPrompter renders wizard screens onto a single ephemeral panel
// message and collects answers through the component collector. It is
// bound to the slash command interaction that started the wizard and
// only reacts to the invoking user; everything it sends is visible to
// that user alone.
type wizardPrompter struct {
	session     *discordgo.Session
	collector   *Collector
	interaction *discordgo.Interaction
	userID      string
	panel       *discordgo.Message
	seq         int
}

// newWizardPrompter creates a prompter for a slash command interaction.
// The interaction must already be deferred ephemerally.
func newWizardPrompter(session *discordgo.Session, collector *Collector, i *discordgo.InteractionCreate) setup.Prompter {
	return &wizardPrompter{
		session:     session,
		collector:   collector,
		interaction: i.Interaction,
		userID:      common.InteractionUserID(i),
	}
}

// render draws a screen onto the panel, creating the panel message on
// the first call and editing it afterwards.
func (p *wizardPrompter) render(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	if p.panel == nil {
		msg, err := p.session.FollowupMessageCreate(p.interaction, true, &discordgo.WebhookParams{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		})
		if err != nil {
			return fmt.Errorf("failed to create wizard panel: %w", err)
		}
		p.panel = msg
		return nil
	}

	_, err := p.session.FollowupMessageEdit(p.interaction, p.panel.ID, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("failed to update wizard panel: %w", err)
	}
	return nil
}

// awaitClick renders a screen and waits for the invoking user to use one
// of its components. The click is acknowledged before returning.
func (p *wizardPrompter) awaitClick(ctx context.Context, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.InteractionCreate, error) {
	if err := p.render(embed, components); err != nil {
		return nil, err
	}

	click, err := p.collector.AwaitComponent(ctx, componentFilter(p.userID, p.panel.ID))
	if err != nil {
		return nil, err
	}
	return click, nil
}

// ack acknowledges a component click without changing the panel
func (p *wizardPrompter) ack(i *discordgo.InteractionCreate) {
	err := p.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Errorf("Failed to acknowledge wizard interaction: %v", err)
	}
}

func (p *wizardPrompter) customID(kind string) string {
	p.seq++
	return fmt.Sprintf("wizard:%s:%d", kind, p.seq)
}

func (p *wizardPrompter) ShowSummary(ctx context.Context, summary setup.Summary) (setup.Action, error) {
	var lines []string
	var options []discordgo.SelectMenuOption
	for _, q := range summary.Questions {
		lines = append(lines, fmt.Sprintf("**%s**: %s", q.Label, formatAnswer(q, summary.Answers)))
		if !q.ReadOnly {
			options = append(options, discordgo.SelectMenuOption{
				Label: q.Label,
				Value: q.Key,
			})
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       summary.Title,
		Description: strings.Join(lines, "\n"),
		Color:       messages.DefaultColor,
	}
	if !summary.CanSubmit {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Answer all required fields to submit"}
	}

	selectID := p.customID("summary")
	one := 1
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    selectID,
				Placeholder: "Choose a field to edit",
				MinValues:   &one,
				MaxValues:   1,
				Options:     options,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Submit", Style: discordgo.SuccessButton, CustomID: "wizard:submit"},
			discordgo.Button{Label: "Cancel", Style: discordgo.DangerButton, CustomID: "wizard:cancel"},
		}},
	}

	click, err := p.awaitClick(ctx, embed, components)
	if err != nil {
		return setup.Action{}, err
	}
	p.ack(click)

	data := click.MessageComponentData()
	switch data.CustomID {
	case "wizard:submit":
		return setup.Action{Type: setup.ActionSubmit}, nil
	case "wizard:cancel":
		return setup.Action{Type: setup.ActionCancel}, nil
	case selectID:
		if len(data.Values) == 0 {
			return setup.Action{Type: setup.ActionCancel}, nil
		}
		return setup.Action{Type: setup.ActionEdit, Key: data.Values[0]}, nil
	default:
		return setup.Action{Type: setup.ActionCancel}, nil
	}
}

func (p *wizardPrompter) AskText(ctx context.Context, question setup.Question, current string) (string, error) {
	openID := p.customID("open")
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Enter Value", Style: discordgo.PrimaryButton, CustomID: openID},
			discordgo.Button{Label: "Keep Current", Style: discordgo.SecondaryButton, CustomID: "wizard:keep"},
		}},
	}

	click, err := p.awaitClick(ctx, questionEmbed(question, current), components)
	if err != nil {
		return "", err
	}

	if click.MessageComponentData().CustomID != openID {
		p.ack(click)
		return current, nil
	}

	maxLength := question.MaxLength
	if maxLength == 0 {
		maxLength = setup.DefaultMaxLength
	}
	modalID := p.customID("modal")
	err = p.session.InteractionRespond(click.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: modalID,
			Title:    question.Label,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "value",
						Label:     question.Label,
						Style:     discordgo.TextInputShort,
						Value:     current,
						Required:  question.Required,
						MaxLength: maxLength,
					},
				}},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to open input modal: %w", err)
	}

	submit, err := p.collector.AwaitModal(ctx, modalFilter(p.userID, modalID))
	if err != nil {
		return "", err
	}
	p.ack(submit)

	return modalTextValue(submit, "value"), nil
}

func (p *wizardPrompter) AskBoolean(ctx context.Context, question setup.Question, current bool) (bool, error) {
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Enabled", Style: discordgo.SuccessButton, CustomID: "wizard:true"},
			discordgo.Button{Label: "Disabled", Style: discordgo.SecondaryButton, CustomID: "wizard:false"},
		}},
	}

	click, err := p.awaitClick(ctx, questionEmbed(question, strconv.FormatBool(current)), components)
	if err != nil {
		return current, err
	}
	p.ack(click)

	return click.MessageComponentData().CustomID == "wizard:true", nil
}

func (p *wizardPrompter) AskChannel(ctx context.Context, question setup.Question, category bool) (string, error) {
	channelTypes := []discordgo.ChannelType{discordgo.ChannelTypeGuildText}
	if category {
		channelTypes = []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory}
	}

	one := 1
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:     discordgo.ChannelSelectMenu,
				CustomID:     p.customID("channel"),
				Placeholder:  "Choose a channel",
				MinValues:    &one,
				MaxValues:    1,
				ChannelTypes: channelTypes,
			},
		}},
	}

	click, err := p.awaitClick(ctx, questionEmbed(question, ""), components)
	if err != nil {
		return "", err
	}
	p.ack(click)

	values := click.MessageComponentData().Values
	if len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

func (p *wizardPrompter) AskRole(ctx context.Context, question setup.Question) (string, error) {
	one := 1
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.RoleSelectMenu,
				CustomID:    p.customID("role"),
				Placeholder: "Choose a role",
				MinValues:   &one,
				MaxValues:   1,
			},
		}},
	}

	click, err := p.awaitClick(ctx, questionEmbed(question, ""), components)
	if err != nil {
		return "", err
	}
	p.ack(click)

	values := click.MessageComponentData().Values
	if len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

func (p *wizardPrompter) AskRoles(ctx context.Context, question setup.Question, current []string) ([]string, error) {
	zero := 0
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.RoleSelectMenu,
				CustomID:    p.customID("roles"),
				Placeholder: "Choose roles",
				MinValues:   &zero,
				MaxValues:   25,
			},
		}},
	}

	click, err := p.awaitClick(ctx, questionEmbed(question, strings.Join(current, ", ")), components)
	if err != nil {
		return current, err
	}
	p.ack(click)

	return click.MessageComponentData().Values, nil
}

func (p *wizardPrompter) AskSelect(ctx context.Context, question setup.Question, multi bool, current []string) ([]string, error) {
	selected := make(map[string]bool, len(current))
	for _, v := range current {
		selected[v] = true
	}

	options := make([]discordgo.SelectMenuOption, 0, len(question.Options))
	for _, opt := range question.Options {
		options = append(options, discordgo.SelectMenuOption{
			Label:   opt.Label,
			Value:   opt.Value,
			Default: selected[opt.Value],
		})
	}

	maxValues := 1
	if multi {
		maxValues = len(options)
	}
	one := 1
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    p.customID("select"),
				Placeholder: "Choose an option",
				MinValues:   &one,
				MaxValues:   maxValues,
				Options:     options,
			},
		}},
	}

	click, err := p.awaitClick(ctx, questionEmbed(question, ""), components)
	if err != nil {
		return current, err
	}
	p.ack(click)

	return click.MessageComponentData().Values, nil
}

func (p *wizardPrompter) AskButtonStyle(ctx context.Context, question setup.Question, current string) (string, error) {
	styled := question
	styled.Options = []setup.Option{
		{Label: "Primary", Value: "Primary"},
		{Label: "Secondary", Value: "Secondary"},
		{Label: "Success", Value: "Success"},
		{Label: "Danger", Value: "Danger"},
	}

	var selected []string
	if current != "" {
		selected = []string{current}
	}
	values, err := p.AskSelect(ctx, styled, false, selected)
	if err != nil {
		return current, err
	}
	if len(values) == 0 {
		return current, nil
	}
	return values[0], nil
}

func (p *wizardPrompter) Reject(ctx context.Context, reason string) error {
	_, err := p.session.FollowupMessageCreate(p.interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("❌ %s", reason),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		return fmt.Errorf("failed to send rejection: %w", err)
	}
	return nil
}

// questionEmbed renders a single prompt screen
func questionEmbed(question setup.Question, current string) *discordgo.MessageEmbed {
	description := question.Description
	if current != "" {
		if description != "" {
			description += "\n"
		}
		description += fmt.Sprintf("Current value: **%s**", current)
	}
	return &discordgo.MessageEmbed{
		Title:       question.Label,
		Description: description,
		Color:       messages.DefaultColor,
	}
}

// formatAnswer renders one answer for the summary screen
func formatAnswer(q setup.Question, answers setup.Answers) string {
	if !setup.IsAnswered(q, answers) {
		return "Not Set"
	}

	switch v := answers[q.Key].(type) {
	case string:
		switch q.Type {
		case setup.TypeChannel, setup.TypeCategory:
			return fmt.Sprintf("<#%s>", v)
		case setup.TypeRole:
			return fmt.Sprintf("<@&%s>", v)
		default:
			return v
		}
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		if v {
			return "Enabled"
		}
		return "Disabled"
	case []string:
		if len(v) == 0 {
			return "None"
		}
		if q.Type == setup.TypeRoles {
			mentions := make([]string, len(v))
			for i, id := range v {
				mentions[i] = fmt.Sprintf("<@&%s>", id)
			}
			return strings.Join(mentions, " ")
		}
		return strings.Join(v, ", ")
	case setup.Answers:
		return "Configured"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// modalTextValue extracts a text input value from a modal submission
func modalTextValue(i *discordgo.InteractionCreate, customID string) string {
	for _, row := range i.ModalSubmitData().Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			input, ok := component.(*discordgo.TextInput)
			if ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}
