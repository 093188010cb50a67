package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction. The only legal
// transition is Open -> Closed, performed at most once.
type AuctionStatus string

const (
	StatusOpen   AuctionStatus = "open"
	StatusClosed AuctionStatus = "closed"
)

// User represents a registered participant in the marketplace
type User struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"-"`
	Admin        bool   `json:"admin"`
}

// Auction represents a timed sale of a single item. HighestBid starts at
// StartingBid and only ever increases while the auction is open.
type Auction struct {
	AuctionID       string          `json:"auction_id"`
	ItemName        string          `json:"item_name"`
	Description     string          `json:"description"`
	StartingBid     decimal.Decimal `json:"starting_bid"`
	HighestBid      decimal.Decimal `json:"highest_bid"`
	HighestBidderID string          `json:"highest_bidder_id,omitempty"`
	EndTime         time.Time       `json:"end_time"`
	Status          AuctionStatus   `json:"status"`
	AuctioneerID    string          `json:"auctioneer_id"`
}

// AcceptsBidsAt reports whether the auction can still accept bids at t.
// The end time is authoritative: an overdue auction rejects bids even if
// the closing sweep has not flipped its status yet.
func (a Auction) AcceptsBidsAt(t time.Time) bool {
	return a.Status == StatusOpen && t.Before(a.EndTime)
}

// Bid represents an accepted bid on an auction. Bids are immutable once
// recorded.
type Bid struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
}
