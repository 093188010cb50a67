package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-marketplace/internal/auctionerrors"
	"auction-marketplace/internal/identity"
	model "auction-marketplace/internal/models"
	"auction-marketplace/services/auction/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// contextUserID mirrors the key set by the server auth middleware.
const contextUserID = "user_id"

type AuctionServiceInterface interface {
	PlaceBid(auctionID, bidderID string, amount decimal.Decimal) (model.Bid, error)
	CreateAuction(ownerID, itemName, description string, startingBid decimal.Decimal, endTime time.Time) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	GetBidsForAuction(auctionID string) ([]model.Bid, error)
	GetActiveAuctions() ([]model.Auction, error)
	GetAuctionsByOwner(ownerID string) ([]model.Auction, error)
	ListBiddersByOwner(ownerID string) ([]string, error)
	DeleteAuction(auctionID string) error
}

type IdentityInterface interface {
	Register(username, password, email string) (model.User, error)
	Authenticate(username, password string) (string, error)
	GetUser(userID string) (model.User, error)
	DeleteUser(userID string) error
}

type AuctionHandler struct {
	service  AuctionServiceInterface
	registry IdentityInterface
	tokens   *identity.TokenManager
}

func NewAuctionHandler(service AuctionServiceInterface, registry IdentityInterface, tokens *identity.TokenManager) *AuctionHandler {
	return &AuctionHandler{service: service, registry: registry, tokens: tokens}
}

// RegisterHandler handles POST /auth/register
func (h *AuctionHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.registry.Register(req.Username, req.Password, req.Email)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("RegisterHandler: registration failed", map[string]any{"username": req.Username, "error": err.Error()})
		return
	}

	resp := helpers.UserResponse{UserID: user.UserID, Username: user.Username, Email: user.Email}
	utils.JSONResponse(c, http.StatusCreated, resp, "user registered successfully")
	helpers.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{
		"user_id":  user.UserID,
		"username": user.Username,
	})
}

// LoginHandler handles POST /auth/login
func (h *AuctionHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	userID, err := h.registry.Authenticate(req.Username, req.Password)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("LoginHandler: authentication failed", map[string]any{"username": req.Username})
		return
	}

	token, err := h.tokens.Issue(userID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err, "failed to issue token")
		utils.Error("LoginHandler: token issue failed", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.TokenResponse{UserID: userID, Token: token}, "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"user_id": userID})
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", fmt.Errorf("end_time must be RFC 3339: %w", err))
		return
	}

	ownerID := c.GetString(contextUserID)
	auction, err := h.service.CreateAuction(ownerID, req.ItemName, req.Description, req.StartingBid, endTime)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"owner_id":  ownerID,
			"item_name": req.ItemName,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(auction), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"owner_id":   ownerID,
		"end_time":   auction.EndTime,
	})
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	auctionID := c.Param("auction_id")
	bidderID := c.GetString(contextUserID)

	bid, err := h.service.PlaceBid(auctionID, bidderID, req.Amount)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to place bid", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  bidderID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
		"bidder_id":  bidderID,
		"amount":     bid.Amount.String(),
	})
}

// ListActiveAuctionsHandler handles GET /auctions
func (h *AuctionHandler) ListActiveAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.GetActiveAuctions()
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListActiveAuctionsHandler: error retrieving auctions", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(auctions), "active auctions retrieved successfully")
	helpers.LogSuccess("ListActiveAuctionsHandler", "active auctions retrieved successfully", map[string]any{
		"count": len(auctions),
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction retrieved successfully")
	helpers.LogSuccess("GetAuctionHandler", "auction retrieved successfully", map[string]any{"auction_id": auctionID})
}

// GetAuctionBidsHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetAuctionBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidsForAuction(auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionBidsHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, bid := range bids {
		resp = append(resp, helpers.NewBidResponse(bid))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetAuctionBidsHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// MyAuctionsHandler handles GET /users/me/auctions
func (h *AuctionHandler) MyAuctionsHandler(c *gin.Context) {
	ownerID := c.GetString(contextUserID)
	auctions, err := h.service.GetAuctionsByOwner(ownerID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("MyAuctionsHandler: error retrieving auctions", map[string]any{"owner_id": ownerID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(auctions), "auctions retrieved successfully")
	helpers.LogSuccess("MyAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"owner_id": ownerID,
		"count":    len(auctions),
	})
}

// ListBiddersHandler handles GET /admin/bidders. It returns every user
// that has bid on one of the caller's auctions.
func (h *AuctionHandler) ListBiddersHandler(c *gin.Context) {
	ownerID := c.GetString(contextUserID)
	bidderIDs, err := h.service.ListBiddersByOwner(ownerID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListBiddersHandler: error listing bidders", map[string]any{"owner_id": ownerID, "error": err.Error()})
		return
	}

	users := make([]helpers.UserResponse, 0, len(bidderIDs))
	for _, id := range bidderIDs {
		user, err := h.registry.GetUser(id)
		if err != nil {
			// Bidder account deleted since the bid was placed; skip it.
			continue
		}
		users = append(users, helpers.UserResponse{UserID: user.UserID, Username: user.Username, Email: user.Email})
	}

	utils.JSONResponse(c, http.StatusOK, users, "bidders retrieved successfully")
	helpers.LogSuccess("ListBiddersHandler", "bidders retrieved successfully", map[string]any{
		"owner_id": ownerID,
		"count":    len(users),
	})
}

// DeleteAuctionHandler handles DELETE /admin/auctions/:auction_id
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if err := h.service.DeleteAuction(auctionID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("DeleteAuctionHandler: error deleting auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "auction deleted successfully")
	helpers.LogSuccess("DeleteAuctionHandler", "auction deleted successfully", map[string]any{"auction_id": auctionID})
}

// DeleteUserHandler handles DELETE /admin/users/:user_id
func (h *AuctionHandler) DeleteUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	if err := h.registry.DeleteUser(userID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("DeleteUserHandler: error deleting user", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "user deleted successfully")
	helpers.LogSuccess("DeleteUserHandler", "user deleted successfully", map[string]any{"user_id": userID})
}
