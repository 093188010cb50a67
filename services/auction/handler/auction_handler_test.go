package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-marketplace/internal/auctionerrors"
	"auction-marketplace/internal/identity"
	model "auction-marketplace/internal/models"
	"auction-marketplace/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var handlerTestNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// asCaller sets the authenticated user ID the way the auth middleware does
func asCaller(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextUserID, userID)
		c.Next()
	}
}

func performRequest(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return resp, w
}

// Test PlaceBidHandler
func TestPlaceBidHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	mockRegistry := NewMockIdentityInterface(ctrl)
	h := NewAuctionHandler(mockService, mockRegistry, identity.NewTokenManager([]byte("test-secret"), time.Hour))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions/:auction_id/bids", asCaller("user1"), h.PlaceBidHandler)

	tests := []struct {
		name           string
		url            string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:        "success_valid_bid",
			url:         "/auctions/auction1/bids",
			requestBody: helpers.PlaceBidRequest{Amount: decimal.NewFromInt(15)},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("auction1", "user1", decimal.NewFromInt(15)).
					Return(model.Bid{
						BidID:     uuid.NewString(),
						AuctionID: "auction1",
						BidderID:  "user1",
						Amount:    decimal.NewFromInt(15),
						PlacedAt:  handlerTestNow,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid placed successfully",
			validateData: func(t *testing.T, data map[string]any) {
				bidID := data["bid_id"].(string)
				_, parseErr := uuid.Parse(bidID)
				require.NoError(t, parseErr, "BidID should be a valid UUID")
				require.Equal(t, "auction1", data["auction_id"])
				require.Equal(t, "user1", data["bidder_id"])
				require.Equal(t, "15", data["amount"])
			},
		},
		{
			name:           "invalid_json",
			url:            "/auctions/auction1/bids",
			requestBody:    `{invalid json}`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_amount",
			url:            "/auctions/auction1/bids",
			requestBody:    map[string]any{},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "service_bid_too_low",
			url:         "/auctions/auction1/bids",
			requestBody: helpers.PlaceBidRequest{Amount: decimal.NewFromInt(12)},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("auction1", "user1", decimal.NewFromInt(12)).
					Return(model.Bid{}, fmt.Errorf("service: %w - current highest bid is 15", auctionerrors.ErrBidTooLow))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid amount too low",
		},
		{
			name:        "service_auction_closed",
			url:         "/auctions/auction1/bids",
			requestBody: helpers.PlaceBidRequest{Amount: decimal.NewFromInt(20)},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("auction1", "user1", decimal.NewFromInt(20)).
					Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionClosed))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is closed",
		},
		{
			name:        "service_auction_not_found",
			url:         "/auctions/missing/bids",
			requestBody: helpers.PlaceBidRequest{Amount: decimal.NewFromInt(20)},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("missing", "user1", decimal.NewFromInt(20)).
					Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:        "service_store_unavailable",
			url:         "/auctions/auction1/bids",
			requestBody: helpers.PlaceBidRequest{Amount: decimal.NewFromInt(20)},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("auction1", "user1", decimal.NewFromInt(20)).
					Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrStoreUnavailable))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "store unavailable, retry the request",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			resp, w := performRequest(t, router, http.MethodPost, tc.url, tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Equal(t, tc.expectedMsg, resp["message"])

			if tc.validateData != nil {
				data, ok := resp["data"].(map[string]any)
				require.True(t, ok, "expected data object in response")
				tc.validateData(t, data)
			}
		})
	}
}

// Test CreateAuctionHandler
func TestCreateAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	mockRegistry := NewMockIdentityInterface(ctrl)
	h := NewAuctionHandler(mockService, mockRegistry, identity.NewTokenManager([]byte("test-secret"), time.Hour))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", asCaller("owner1"), h.CreateAuctionHandler)

	endTime := handlerTestNow.Add(time.Hour)

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "success",
			requestBody: helpers.CreateAuctionRequest{
				ItemName:    "vintage radio",
				Description: "still works",
				StartingBid: decimal.NewFromInt(10),
				EndTime:     endTime.Format(time.RFC3339),
			},
			mockSetup: func() {
				mockService.EXPECT().
					CreateAuction("owner1", "vintage radio", "still works", decimal.NewFromInt(10), endTime).
					Return(model.Auction{
						AuctionID:    uuid.NewString(),
						ItemName:     "vintage radio",
						Description:  "still works",
						StartingBid:  decimal.NewFromInt(10),
						HighestBid:   decimal.NewFromInt(10),
						EndTime:      endTime,
						Status:       model.StatusOpen,
						AuctioneerID: "owner1",
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name: "malformed_end_time",
			requestBody: helpers.CreateAuctionRequest{
				ItemName:    "vintage radio",
				StartingBid: decimal.NewFromInt(10),
				EndTime:     "tomorrow at noon",
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_item_name",
			requestBody:    map[string]any{"starting_bid": "10", "end_time": endTime.Format(time.RFC3339)},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "service_rejects_past_end_time",
			requestBody: helpers.CreateAuctionRequest{
				ItemName:    "vintage radio",
				StartingBid: decimal.NewFromInt(10),
				EndTime:     endTime.Format(time.RFC3339),
			},
			mockSetup: func() {
				mockService.EXPECT().
					CreateAuction("owner1", "vintage radio", "", decimal.NewFromInt(10), endTime).
					Return(model.Auction{}, fmt.Errorf("service: %w - end time must be in the future", auctionerrors.ErrInvalidAuction))
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid auction details",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			resp, w := performRequest(t, router, http.MethodPost, "/auctions", tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Equal(t, tc.expectedMsg, resp["message"])
		})
	}
}

// Test RegisterHandler and LoginHandler
func TestAuthHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	mockRegistry := NewMockIdentityInterface(ctrl)
	tokens := identity.NewTokenManager([]byte("test-secret"), time.Hour)
	h := NewAuctionHandler(mockService, mockRegistry, tokens)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/register", h.RegisterHandler)
	router.POST("/auth/login", h.LoginHandler)

	t.Run("register_success", func(t *testing.T) {
		mockRegistry.EXPECT().
			Register("alice", "s3cret", "alice@example.com").
			Return(model.User{UserID: "user1", Username: "alice", Email: "alice@example.com"}, nil)

		resp, w := performRequest(t, router, http.MethodPost, "/auth/register",
			helpers.RegisterRequest{Username: "alice", Password: "s3cret", Email: "alice@example.com"})
		require.Equal(t, http.StatusCreated, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, "user1", data["user_id"])
		require.Equal(t, "alice", data["username"])
	})

	t.Run("register_duplicate_username", func(t *testing.T) {
		mockRegistry.EXPECT().
			Register("alice", "s3cret", "alice@example.com").
			Return(model.User{}, fmt.Errorf("identity: %w", auctionerrors.ErrUsernameTaken))

		resp, w := performRequest(t, router, http.MethodPost, "/auth/register",
			helpers.RegisterRequest{Username: "alice", Password: "s3cret", Email: "alice@example.com"})
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, "username already taken", resp["message"])
	})

	t.Run("login_success_issues_verifiable_token", func(t *testing.T) {
		mockRegistry.EXPECT().Authenticate("alice", "s3cret").Return("user1", nil)

		resp, w := performRequest(t, router, http.MethodPost, "/auth/login",
			helpers.LoginRequest{Username: "alice", Password: "s3cret"})
		require.Equal(t, http.StatusOK, w.Code)

		data := resp["data"].(map[string]any)
		require.Equal(t, "user1", data["user_id"])

		userID, err := tokens.Verify(data["token"].(string))
		require.NoError(t, err)
		require.Equal(t, "user1", userID)
	})

	t.Run("login_bad_credentials", func(t *testing.T) {
		mockRegistry.EXPECT().
			Authenticate("alice", "wrong").
			Return("", fmt.Errorf("identity: %w", auctionerrors.ErrInvalidCredentials))

		resp, w := performRequest(t, router, http.MethodPost, "/auth/login",
			helpers.LoginRequest{Username: "alice", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "invalid credentials", resp["message"])
	})
}

// Test GetAuctionBidsHandler
func TestGetAuctionBidsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	mockRegistry := NewMockIdentityInterface(ctrl)
	h := NewAuctionHandler(mockService, mockRegistry, identity.NewTokenManager([]byte("test-secret"), time.Hour))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auctions/:auction_id/bids", h.GetAuctionBidsHandler)

	t.Run("ledger_with_bids", func(t *testing.T) {
		mockService.EXPECT().GetBidsForAuction("auction1").Return([]model.Bid{
			{BidID: "bid1", AuctionID: "auction1", BidderID: "user1", Amount: decimal.NewFromInt(15), PlacedAt: handlerTestNow},
			{BidID: "bid2", AuctionID: "auction1", BidderID: "user2", Amount: decimal.NewFromInt(20), PlacedAt: handlerTestNow.Add(time.Second)},
		}, nil)

		resp, w := performRequest(t, router, http.MethodGet, "/auctions/auction1/bids", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].([]any)
		require.Len(t, data, 2)
	})

	t.Run("empty_ledger_returns_empty_list", func(t *testing.T) {
		mockService.EXPECT().GetBidsForAuction("auction1").
			Return(nil, fmt.Errorf("service: %w", auctionerrors.ErrNoBids))

		resp, w := performRequest(t, router, http.MethodGet, "/auctions/auction1/bids", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].([]any)
		require.Empty(t, data)
	})

	t.Run("unknown_auction", func(t *testing.T) {
		mockService.EXPECT().GetBidsForAuction("missing").
			Return(nil, fmt.Errorf("service: %w", auctionerrors.ErrAuctionNotFound))

		resp, w := performRequest(t, router, http.MethodGet, "/auctions/missing/bids", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "auction not found", resp["message"])
	})
}

// Test admin handlers
func TestAdminHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	mockRegistry := NewMockIdentityInterface(ctrl)
	h := NewAuctionHandler(mockService, mockRegistry, identity.NewTokenManager([]byte("test-secret"), time.Hour))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin/bidders", asCaller("admin1"), h.ListBiddersHandler)
	router.DELETE("/admin/auctions/:auction_id", asCaller("admin1"), h.DeleteAuctionHandler)
	router.DELETE("/admin/users/:user_id", asCaller("admin1"), h.DeleteUserHandler)

	t.Run("list_bidders_skips_deleted_accounts", func(t *testing.T) {
		mockService.EXPECT().ListBiddersByOwner("admin1").Return([]string{"user1", "user2"}, nil)
		mockRegistry.EXPECT().GetUser("user1").
			Return(model.User{UserID: "user1", Username: "alice", Email: "alice@example.com"}, nil)
		mockRegistry.EXPECT().GetUser("user2").
			Return(model.User{}, fmt.Errorf("identity: %w", auctionerrors.ErrUserNotFound))

		resp, w := performRequest(t, router, http.MethodGet, "/admin/bidders", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].([]any)
		require.Len(t, data, 1)
		require.Equal(t, "alice", data[0].(map[string]any)["username"])
	})

	t.Run("delete_auction", func(t *testing.T) {
		mockService.EXPECT().DeleteAuction("auction1").Return(nil)

		resp, w := performRequest(t, router, http.MethodDelete, "/admin/auctions/auction1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "auction deleted successfully", resp["message"])
	})

	t.Run("delete_missing_user", func(t *testing.T) {
		mockRegistry.EXPECT().DeleteUser("missing").
			Return(fmt.Errorf("identity: %w", auctionerrors.ErrUserNotFound))

		resp, w := performRequest(t, router, http.MethodDelete, "/admin/users/missing", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "user not found", resp["message"])
	})
}
