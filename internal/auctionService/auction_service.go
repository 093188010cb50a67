package auction

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"auction-marketplace/internal/auctionerrors"
	"auction-marketplace/internal/clock"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"

	"github.com/shopspring/decimal"
)

// maxPlaceBidAttempts bounds the optimistic retry loop when a bid loses a
// compare-and-set race against a concurrent higher bid.
const maxPlaceBidAttempts = 5

// AuctionService defines the business logic for the auction lifecycle:
// bid acceptance, auction creation, and the read accessors.
type AuctionService struct {
	store repository.AuctionStore
	clock clock.Clock
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(store repository.AuctionStore, clk clock.Clock) *AuctionService {
	return &AuctionService{
		store: store,
		clock: clk,
	}
}

// PlaceBid validates and atomically applies a user's bid on an auction.
// Acceptance is serialized per auction through the store's conditional
// update: when two bids race, the one that commits first wins and the
// loser is re-evaluated against the fresh highest bid.
func (s *AuctionService) PlaceBid(auctionID, bidderID string, amount decimal.Decimal) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}

	for attempt := 0; attempt < maxPlaceBidAttempts; attempt++ {
		a, err := s.store.GetAuction(auctionID)
		if err != nil {
			return model.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
		}

		now := s.clock.Now()
		if !a.AcceptsBidsAt(now) {
			return model.Bid{}, fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrAuctionClosed)
		}
		if !amount.IsPositive() {
			return model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidAmount)
		}
		if amount.LessThanOrEqual(a.HighestBid) {
			return model.Bid{}, fmt.Errorf("service: %w - current highest bid is %s", auctionerrors.ErrBidTooLow, a.HighestBid.String())
		}

		bid := model.Bid{
			BidID:     utils.GenerateID(),
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    amount,
			PlacedAt:  now,
		}

		ok, err := s.store.CompareAndSetHighestBid(auctionID, a.HighestBid, bid)
		if err != nil {
			return model.Bid{}, fmt.Errorf("service: failed to record bid on auction %s by user %s: %w", auctionID, bidderID, err)
		}
		if ok {
			return bid, nil
		}
		// Lost the race to a concurrent bid or close; re-read and retry.
	}

	return model.Bid{}, fmt.Errorf("service: bid on auction %s by user %s not committed after %d attempts: %w",
		auctionID, bidderID, maxPlaceBidAttempts, auctionerrors.ErrStoreUnavailable)
}

// CreateAuction validates and stores a new auction owned by ownerID. The
// highest bid starts at the starting bid and the auction opens immediately.
func (s *AuctionService) CreateAuction(ownerID, itemName, description string, startingBid decimal.Decimal, endTime time.Time) (model.Auction, error) {
	if ownerID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing ownerID", auctionerrors.ErrInvalidAuction)
	}
	if itemName == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing item name", auctionerrors.ErrInvalidAuction)
	}
	if !startingBid.IsPositive() {
		return model.Auction{}, fmt.Errorf("service: %w - starting bid must be positive", auctionerrors.ErrInvalidAuction)
	}
	if !endTime.After(s.clock.Now()) {
		return model.Auction{}, fmt.Errorf("service: %w - end time must be in the future", auctionerrors.ErrInvalidAuction)
	}

	a := model.Auction{
		AuctionID:    utils.GenerateID(),
		ItemName:     itemName,
		Description:  description,
		StartingBid:  startingBid,
		HighestBid:   startingBid,
		EndTime:      endTime.UTC(),
		Status:       model.StatusOpen,
		AuctioneerID: ownerID,
	}

	if err := s.store.CreateAuction(a); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction for user %s: %w", ownerID, err)
	}
	return a, nil
}

// GetAuction returns a single auction by id
func (s *AuctionService) GetAuction(auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}

	a, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}

	// A highest bid below the starting bid can never be produced by the
	// acceptor; treat it as store corruption and raise a consistency alarm.
	if a.HighestBid.LessThan(a.StartingBid) {
		utils.Error("consistency alarm: highest bid below starting bid", map[string]any{
			"auction_id":   a.AuctionID,
			"starting_bid": a.StartingBid.String(),
			"highest_bid":  a.HighestBid.String(),
		})
	}

	return a, nil
}

// GetBidsForAuction returns the bid ledger for a specific auction
func (s *AuctionService) GetBidsForAuction(auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}

	bids, err := s.store.ListBidsForAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetActiveAuctions returns all auctions still marked open. The status
// flag is authoritative for reporting only; bid acceptance re-checks the
// end time.
func (s *AuctionService) GetActiveAuctions() ([]model.Auction, error) {
	auctions, err := s.store.ListActiveAuctions()
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active auctions: %w", err)
	}
	return auctions, nil
}

// GetAuctionsByOwner returns all auctions created by the given user
func (s *AuctionService) GetAuctionsByOwner(ownerID string) ([]model.Auction, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("service: %w - empty owner ID", auctionerrors.ErrInvalidAuction)
	}

	auctions, err := s.store.ListAuctionsByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions for owner %s: %w", ownerID, err)
	}
	return auctions, nil
}

// ListBiddersByOwner returns the distinct user IDs that have bid on any
// auction owned by ownerID, sorted for stable output.
func (s *AuctionService) ListBiddersByOwner(ownerID string) ([]string, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("service: %w - empty owner ID", auctionerrors.ErrInvalidAuction)
	}

	auctions, err := s.store.ListAuctionsByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions for owner %s: %w", ownerID, err)
	}

	seen := make(map[string]struct{})
	for _, a := range auctions {
		bids, err := s.store.ListBidsForAuction(a.AuctionID)
		if err != nil {
			if errors.Is(err, auctionerrors.ErrNoBids) {
				continue
			}
			return nil, fmt.Errorf("service: failed to list bids for auction %s: %w", a.AuctionID, err)
		}
		for _, b := range bids {
			seen[b.BidderID] = struct{}{}
		}
	}

	bidders := make([]string, 0, len(seen))
	for id := range seen {
		bidders = append(bidders, id)
	}
	sort.Strings(bidders)
	return bidders, nil
}

// DeleteAuction removes an auction and its ledger. Admin-only; the
// caller's privileges are checked at the transport layer.
func (s *AuctionService) DeleteAuction(auctionID string) error {
	if auctionID == "" {
		return fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}

	if err := s.store.DeleteAuction(auctionID); err != nil {
		return fmt.Errorf("service: failed to delete auction %s: %w", auctionID, err)
	}
	return nil
}
