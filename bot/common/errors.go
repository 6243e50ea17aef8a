package common

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"krypton/models"
)

// RespondWithError sends an ephemeral error message
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "❌ " + message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

// FollowUpWithError sends an ephemeral error message as a follow-up to a
// deferred interaction
func FollowUpWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: "❌ " + message,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error sending follow-up error message: %v", err)
	}
}

// RespondWithUserError reports a service error to the user. Validation,
// not-found and insufficient-funds errors carry a safe user-facing
// message; anything else is logged and replaced with the fallback.
func RespondWithUserError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, fallback string) {
	RespondWithError(s, i, userMessage(err, fallback))
}

// FollowUpWithUserError is RespondWithUserError for deferred interactions
func FollowUpWithUserError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, fallback string) {
	FollowUpWithError(s, i, userMessage(err, fallback))
}

func userMessage(err error, fallback string) string {
	if models.IsValidation(err) || models.IsNotFound(err) || models.IsInsufficientFunds(err) {
		return err.Error()
	}
	log.Errorf("Unexpected error handling interaction: %v", err)
	return fallback
}

// IsAdmin reports whether the interaction comes from a member with
// administrator permissions
func IsAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}
