package helpers

import (
	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateAuctionRequest struct {
	ItemName    string          `json:"item_name" binding:"required"`
	Description string          `json:"description"`
	StartingBid decimal.Decimal `json:"starting_bid" binding:"required"`
	EndTime     string          `json:"end_time" binding:"required"` // RFC 3339
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type TokenResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

type UserResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
	PlacedAt  string `json:"placed_at"`
}

type AuctionResponse struct {
	AuctionID       string `json:"auction_id"`
	ItemName        string `json:"item_name"`
	Description     string `json:"description"`
	StartingBid     string `json:"starting_bid"`
	HighestBid      string `json:"highest_bid"`
	HighestBidderID string `json:"highest_bidder_id,omitempty"`
	EndTime         string `json:"end_time"`
	Status          string `json:"status"`
	AuctioneerID    string `json:"auctioneer_id"`
}
