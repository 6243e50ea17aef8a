package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"krypton/bot/common"
	"krypton/models"
)

// Collector awaits component and modal interactions on a session. Each
// await registers a temporary gateway handler, hands back the first
// interaction the filter accepts and unregisters itself. Interactions
// the filter rejects are left for other handlers, so another user
// clicking through someone else's prompt is simply ignored and the
// prompt stays open.
type Collector struct {
	session *discordgo.Session
	window  time.Duration
}

// NewCollector creates a collector with the given response window
func NewCollector(session *discordgo.Session, window time.Duration) *Collector {
	return &Collector{session: session, window: window}
}

// AwaitComponent blocks until a message component interaction passes the
// filter or the response window elapses
func (c *Collector) AwaitComponent(ctx context.Context, filter func(*discordgo.InteractionCreate) bool) (*discordgo.InteractionCreate, error) {
	return c.await(ctx, discordgo.InteractionMessageComponent, filter)
}

// AwaitModal blocks until a modal submission passes the filter or the
// response window elapses
func (c *Collector) AwaitModal(ctx context.Context, filter func(*discordgo.InteractionCreate) bool) (*discordgo.InteractionCreate, error) {
	return c.await(ctx, discordgo.InteractionModalSubmit, filter)
}

func (c *Collector) await(ctx context.Context, kind discordgo.InteractionType, filter func(*discordgo.InteractionCreate) bool) (*discordgo.InteractionCreate, error) {
	matched := make(chan *discordgo.InteractionCreate, 1)

	remove := c.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != kind || !filter(i) {
			return
		}
		select {
		case matched <- i:
		default:
		}
	})
	defer remove()

	timer := time.NewTimer(c.window)
	defer timer.Stop()

	select {
	case i := <-matched:
		return i, nil
	case <-timer.C:
		return nil, models.ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// componentFilter accepts component clicks by the given user on the given message
func componentFilter(userID, messageID string) func(*discordgo.InteractionCreate) bool {
	return func(i *discordgo.InteractionCreate) bool {
		return common.InteractionUserID(i) == userID && i.Message != nil && i.Message.ID == messageID
	}
}

// modalFilter accepts the submission of one specific modal by the given user
func modalFilter(userID, customID string) func(*discordgo.InteractionCreate) bool {
	return func(i *discordgo.InteractionCreate) bool {
		return common.InteractionUserID(i) == userID && i.ModalSubmitData().CustomID == customID
	}
}
