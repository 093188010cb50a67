package sweeper

import (
	"context"
	"time"

	"auction-marketplace/internal/clock"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"
)

// DefaultInterval is how often the closing sweep runs unless configured
// otherwise. The interval is a tunable, not a correctness requirement.
const DefaultInterval = time.Minute

// Sweeper periodically closes auctions whose end time has passed. Each
// closure is a conditional status update, so a sweep racing another sweep
// or a delayed bid acceptance can never double-close an auction.
type Sweeper struct {
	store    repository.AuctionStore
	clock    clock.Clock
	interval time.Duration
}

// NewSweeper creates a Sweeper over the given store and clock. A
// non-positive interval falls back to DefaultInterval.
func NewSweeper(store repository.AuctionStore, clk clock.Clock, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		store:    store,
		clock:    clk,
		interval: interval,
	}
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
// The sweeper never fails fatally; individual errors are logged and
// retried on the next scheduled run.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce()
	for {
		select {
		case <-ctx.Done():
			utils.Info("sweeper: stopped", map[string]any{"reason": ctx.Err().Error()})
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce closes every open auction whose end time has passed and
// returns how many auctions it transitioned. A failure to close one
// auction does not block closing the others; already-closed auctions are
// skipped without error.
func (s *Sweeper) SweepOnce() int {
	now := s.clock.Now()

	due, err := s.store.ListOpenEndedBefore(now)
	if err != nil {
		utils.Error("sweeper: failed to list due auctions", map[string]any{"error": err.Error()})
		return 0
	}

	closed := 0
	for _, a := range due {
		ok, err := s.store.CompareAndSetStatus(a.AuctionID, model.StatusOpen, model.StatusClosed)
		if err != nil {
			utils.Warn("sweeper: failed to close auction, will retry next sweep", map[string]any{
				"auction_id": a.AuctionID,
				"error":      err.Error(),
			})
			continue
		}
		if !ok {
			// Already closed by a concurrent sweep; nothing to do.
			continue
		}

		closed++
		fields := map[string]any{
			"auction_id":  a.AuctionID,
			"item_name":   a.ItemName,
			"highest_bid": a.HighestBid.String(),
		}
		if a.HighestBidderID != "" {
			fields["winner_id"] = a.HighestBidderID
		}
		utils.Info("sweeper: auction closed", fields)
	}
	return closed
}
