package bot

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// StartGiveawaySweepWorker starts the background worker that finalizes
// expired giveaways. Returns a cleanup function to stop the worker
// gracefully.
func (b *Bot) StartGiveawaySweepWorker(ctx context.Context, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	stopChan := make(chan struct{})

	sweep := func() {
		if err := b.giveawayService.FinalizeExpired(context.Background()); err != nil {
			log.Errorf("Error finalizing expired giveaways: %v", err)
		}
	}

	go func() {
		log.Info("Giveaway sweep worker started")

		// Run immediately on startup
		sweep()

		for {
			select {
			case <-ctx.Done():
				log.Info("Giveaway sweep worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Giveaway sweep worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
	}
}
