package economy

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"krypton/bot/common"
	"krypton/events"
	"krypton/messages"
	"krypton/models"
	"krypton/service"
)

// Feature handles the per-guild economy commands
type Feature struct {
	session         *discordgo.Session
	economyService  service.EconomyService
	settingsService service.GuildSettingsService
	store           *messages.Store
}

// NewFeature creates a new economy feature instance
func NewFeature(session *discordgo.Session, economyService service.EconomyService, settingsService service.GuildSettingsService, store *messages.Store) *Feature {
	return &Feature{
		session:         session,
		economyService:  economyService,
		settingsService: settingsService,
		store:           store,
	}
}

// HandleCommand routes economy commands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "balance":
		f.handleBalance(s, i)
	case "daily":
		f.handleReward(s, i, "daily")
	case "weekly":
		f.handleReward(s, i, "weekly")
	case "work":
		f.handleWork(s, i)
	case "deposit":
		f.handleMove(s, i, true)
	case "withdraw":
		f.handleMove(s, i, false)
	case "messages":
		f.handleMessages(s, i)
	}
}

// HandleBalanceChange writes an audit trail entry for every committed
// balance movement
func (f *Feature) HandleBalanceChange(ctx context.Context, event events.BalanceChangeEvent) {
	log.WithFields(log.Fields{
		"guildID":   event.GuildID,
		"userID":    event.UserID,
		"oldWallet": event.OldWallet,
		"newWallet": event.NewWallet,
		"oldBank":   event.OldBank,
		"newBank":   event.NewBank,
		"reason":    event.Reason,
	}).Info("Balance changed")
}

// RecordMessage bumps the author's message counter. Called from the
// gateway message handler for every non-bot guild message.
func (f *Feature) RecordMessage(guildID, userID int64) {
	if err := f.economyService.RecordMessage(context.Background(), guildID, userID); err != nil {
		log.Errorf("Error recording message for user %d in guild %d: %v", userID, guildID, err)
	}
}

func (f *Feature) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	target := targetUser(s, i)
	userID, _ := strconv.ParseInt(target.ID, 10, 64)

	member, err := f.economyService.GetProfile(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Error loading profile for user %d in guild %d: %v", userID, guildID, err)
		common.RespondWithError(s, i, "Unable to retrieve the balance. Please try again.")
		return
	}

	symbol := f.coinSymbol(ctx, guildID)
	embed, err := f.store.Render("economy_balance", map[string]string{
		"user-name":   target.Username,
		"coin-symbol": symbol,
		"wallet":      common.FormatBalance(member.Wallet),
		"bank":        common.FormatBalance(member.Bank),
		"total":       common.FormatBalance(member.Total()),
	})
	if err != nil {
		log.Errorf("Error rendering balance embed: %v", err)
		common.RespondWithError(s, i, "Unable to render the balance. Please try again.")
		return
	}

	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.Errorf("Error responding to balance command: %v", err)
	}
}

func (f *Feature) handleReward(s *discordgo.Session, i *discordgo.InteractionCreate, kind string) {
	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)
	userID, _ := strconv.ParseInt(common.InteractionUserID(i), 10, 64)

	var amount int64
	var err error
	if kind == "daily" {
		amount, err = f.economyService.ClaimDaily(ctx, guildID, userID)
	} else {
		amount, err = f.economyService.ClaimWeekly(ctx, guildID, userID)
	}
	if err != nil {
		common.RespondWithUserError(s, i, err, "Unable to claim the reward. Please try again.")
		return
	}

	f.respondReward(s, i, guildID, userID, amount)
}

func (f *Feature) handleWork(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)
	userID, _ := strconv.ParseInt(common.InteractionUserID(i), 10, 64)

	amount, err := f.economyService.Work(ctx, guildID, userID)
	if err != nil {
		common.RespondWithUserError(s, i, err, "Unable to work right now. Please try again.")
		return
	}

	f.respondReward(s, i, guildID, userID, amount)
}

func (f *Feature) handleMove(s *discordgo.Session, i *discordgo.InteractionCreate, toBank bool) {
	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)
	userID, _ := strconv.ParseInt(common.InteractionUserID(i), 10, 64)

	// Absent amount moves everything
	var amount int64
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "amount" {
			amount = opt.IntValue()
		}
	}

	var member *models.Member
	var verb string
	var err error
	if toBank {
		member, err = f.economyService.Deposit(ctx, guildID, userID, amount)
		verb = "deposited into the bank"
	} else {
		member, err = f.economyService.Withdraw(ctx, guildID, userID, amount)
		verb = "withdrawn to your wallet"
	}
	if err != nil {
		common.RespondWithUserError(s, i, err, "Unable to move the funds. Please try again.")
		return
	}

	symbol := f.coinSymbol(ctx, guildID)
	common.RespondWithSuccess(s, i, fmt.Sprintf("Funds %s. Wallet: %s, Bank: %s",
		verb, common.FormatCoins(symbol, member.Wallet), common.FormatCoins(symbol, member.Bank)), true)
}

func (f *Feature) handleMessages(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	guildID, _ := strconv.ParseInt(i.GuildID, 10, 64)

	target := targetUser(s, i)
	userID, _ := strconv.ParseInt(target.ID, 10, 64)

	member, err := f.economyService.GetProfile(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Error loading profile for user %d in guild %d: %v", userID, guildID, err)
		common.RespondWithError(s, i, "Unable to retrieve the message count. Please try again.")
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("**%s** has sent **%s** messages.",
		target.Username, common.FormatBalance(member.MessageCount)), false)
}

func (f *Feature) respondReward(s *discordgo.Session, i *discordgo.InteractionCreate, guildID, userID, amount int64) {
	symbol := f.coinSymbol(context.Background(), guildID)

	embed, err := f.store.Render("economy_reward", map[string]string{
		"user":        fmt.Sprintf("<@%d>", userID),
		"coin-symbol": symbol,
		"amount":      common.FormatBalance(amount),
	})
	if err != nil {
		log.Errorf("Error rendering reward embed: %v", err)
		common.RespondWithSuccess(s, i, fmt.Sprintf("You received %s!", common.FormatCoins(symbol, amount)), false)
		return
	}

	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.Errorf("Error responding with reward: %v", err)
	}
}

func (f *Feature) coinSymbol(ctx context.Context, guildID int64) string {
	settings, err := f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		return "💰"
	}
	return settings.Economy.CoinSymbol
}

// targetUser resolves the optional user option, defaulting to the caller
func targetUser(s *discordgo.Session, i *discordgo.InteractionCreate) *discordgo.User {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "user" {
			return opt.UserValue(s)
		}
	}
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}
