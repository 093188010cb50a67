package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-marketplace/internal/auctionerrors"
	model "auction-marketplace/internal/models"

	"github.com/shopspring/decimal"
)

// AuctionStore defines the auction and bid storage interface. The two
// compare-and-set operations are the load-bearing contract: every
// lifecycle invariant reduces to "a writer only succeeds if the value it
// observed still holds at write time".
type AuctionStore interface {
	CreateAuction(a model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)

	// CompareAndSetHighestBid succeeds only if the stored highest bid
	// still equals expected and the auction is still open. On success it
	// updates the highest bid and bidder and appends the bid to the
	// ledger as one atomic unit. A false return means the caller must
	// re-read and re-evaluate.
	CompareAndSetHighestBid(auctionID string, expected decimal.Decimal, bid model.Bid) (bool, error)

	// CompareAndSetStatus transitions the auction status only if it still
	// equals expected. Returns false without effect on mismatch.
	CompareAndSetStatus(auctionID string, expected, next model.AuctionStatus) (bool, error)

	ListOpenEndedBefore(t time.Time) ([]model.Auction, error)
	ListBidsForAuction(auctionID string) ([]model.Bid, error)
	ListActiveAuctions() ([]model.Auction, error)
	ListAuctionsByOwner(ownerID string) ([]model.Auction, error)
	DeleteAuction(auctionID string) error
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction // key: auctionID
	bids     map[string][]model.Bid   // key: auctionID -> append-ordered ledger
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string][]model.Bid),
	}
}

// CreateAuction adds a new auction to the store
func (s *MemoryStore) CreateAuction(a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.AuctionID]; ok {
		return fmt.Errorf("create auction %s: %w - duplicate id", a.AuctionID, auctionerrors.ErrInvalidAuction)
	}
	s.auctions[a.AuctionID] = a
	return nil
}

// GetAuction returns the auction with the given id
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// CompareAndSetHighestBid atomically applies an accepted bid. The highest
// bid update and the ledger append happen under one lock so no other bid
// or close transition can interleave between them.
func (s *MemoryStore) CompareAndSetHighestBid(auctionID string, expected decimal.Decimal, bid model.Bid) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return false, fmt.Errorf("cas highest bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status != model.StatusOpen {
		return false, nil
	}
	if !a.HighestBid.Equal(expected) {
		return false, nil
	}

	a.HighestBid = bid.Amount
	a.HighestBidderID = bid.BidderID
	s.auctions[auctionID] = a
	s.bids[auctionID] = append(s.bids[auctionID], bid)
	return true, nil
}

// CompareAndSetStatus conditionally transitions the auction lifecycle
func (s *MemoryStore) CompareAndSetStatus(auctionID string, expected, next model.AuctionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return false, fmt.Errorf("cas status for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status != expected {
		return false, nil
	}

	a.Status = next
	s.auctions[auctionID] = a
	return true, nil
}

// ListOpenEndedBefore returns open auctions whose end time is at or
// before t. Used by the closing sweeper.
func (s *MemoryStore) ListOpenEndedBefore(t time.Time) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []model.Auction
	for _, a := range s.auctions {
		if a.Status == model.StatusOpen && !a.EndTime.After(t) {
			due = append(due, a)
		}
	}
	return due, nil
}

// ListBidsForAuction returns the append-ordered bid ledger for an auction
func (s *MemoryStore) ListBidsForAuction(auctionID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("list bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	bids, ok := s.bids[auctionID]
	if !ok || len(bids) == 0 {
		return nil, fmt.Errorf("list bids for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), bids...), nil
}

// ListActiveAuctions returns all auctions still marked open, soonest
// ending first
func (s *MemoryStore) ListActiveAuctions() ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []model.Auction
	for _, a := range s.auctions {
		if a.Status == model.StatusOpen {
			active = append(active, a)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].EndTime.Before(active[j].EndTime) })
	return active, nil
}

// ListAuctionsByOwner returns all auctions created by the given user,
// soonest ending first
func (s *MemoryStore) ListAuctionsByOwner(ownerID string) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []model.Auction
	for _, a := range s.auctions {
		if a.AuctioneerID == ownerID {
			owned = append(owned, a)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].EndTime.Before(owned[j].EndTime) })
	return owned, nil
}

// DeleteAuction removes an auction and its bid ledger
func (s *MemoryStore) DeleteAuction(auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	delete(s.auctions, auctionID)
	delete(s.bids, auctionID)
	return nil
}
