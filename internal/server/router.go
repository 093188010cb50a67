package server

import (
	auction "auction-marketplace/internal/auctionService"
	"auction-marketplace/internal/identity"
	handler "auction-marketplace/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService *auction.AuctionService, registry *identity.Registry, tokens *identity.TokenManager) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService, registry, tokens)
	authRequired := AuthMiddleware(tokens)

	auth := router.Group("/auth")
	{
		auth.POST("/register", auctionHandler.RegisterHandler)
		auth.POST("/login", auctionHandler.LoginHandler)
	}

	auctions := router.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListActiveAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetAuctionBidsHandler)
		auctions.POST("", authRequired, auctionHandler.CreateAuctionHandler)
		auctions.POST("/:auction_id/bids", authRequired, auctionHandler.PlaceBidHandler)
	}

	users := router.Group("/users", authRequired)
	{
		users.GET("/me/auctions", auctionHandler.MyAuctionsHandler)
	}

	admin := router.Group("/admin", authRequired, RequireAdmin(registry))
	{
		admin.GET("/bidders", auctionHandler.ListBiddersHandler)
		admin.DELETE("/auctions/:auction_id", auctionHandler.DeleteAuctionHandler)
		admin.DELETE("/users/:user_id", auctionHandler.DeleteUserHandler)
	}

	return router
}
