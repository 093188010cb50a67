package main

import (
	"context"
	"fmt"
	"os"
	"time"

	auction "auction-marketplace/internal/auctionService"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/identity"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/internal/sweeper"
	"auction-marketplace/utils"
)

func main() {
	store := repository.NewMemoryStore()
	clk := clock.SystemClock{}
	registry := identity.NewRegistry()
	tokens := identity.NewTokenManager(getJWTSecret(), 24*time.Hour)

	seedAdmin(registry)

	auctionSvc := auction.NewAuctionService(store, clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closingSweeper := sweeper.NewSweeper(store, clk, getSweepInterval())
	go closingSweeper.Run(ctx)

	router := server.SetupRouter(auctionSvc, registry, tokens)

	port := getPort()
	fmt.Printf("Starting auction server on %s...\n", port)
	if err := router.Run(port); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// seedAdmin registers the initial admin account from env credentials
func seedAdmin(registry *identity.Registry) {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		utils.Warn("no admin account seeded, set ADMIN_USERNAME and ADMIN_PASSWORD", nil)
		return
	}

	admin, err := registry.Register(username, password, getSeedEmail())
	if err != nil {
		utils.Fatal("failed to seed admin account", map[string]any{"error": err.Error()})
	}
	if err := registry.SetAdmin(admin.UserID, true); err != nil {
		utils.Fatal("failed to grant admin privileges", map[string]any{"error": err.Error()})
	}
	utils.Info("admin account seeded", map[string]any{"user_id": admin.UserID, "username": username})
}

// getSeedEmail returns the seeded admin's email from env. The fallback is
// a fixed valid address so an unusual admin username can never make the
// seed registration fail.
func getSeedEmail() string {
	if e := os.Getenv("ADMIN_EMAIL"); e != "" {
		return e
	}
	return "admin@localhost"
}

// getPort returns the server port from env or defaults to ":8080"
func getPort() string {
	if p := os.Getenv("PORT"); p != "" {
		return fmt.Sprintf(":%s", p)
	}
	return ":8080"
}

// getSweepInterval returns the closing sweep period from env or the default
func getSweepInterval() time.Duration {
	raw := os.Getenv("SWEEP_INTERVAL")
	if raw == "" {
		return sweeper.DefaultInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		utils.Warn("invalid SWEEP_INTERVAL, using default", map[string]any{"value": raw})
		return sweeper.DefaultInterval
	}
	return d
}

// getJWTSecret returns the token signing secret from env, falling back to
// a development-only value
func getJWTSecret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	utils.Warn("JWT_SECRET not set, using insecure development secret", nil)
	return []byte("dev-secret-do-not-use-in-production")
}
