package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-marketplace/internal/auctionService"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/identity"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/internal/sweeper"

	"github.com/gin-gonic/gin"
)

var integrationNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TestEnv bundles the full stack wired the way main does, with a fake
// clock so tests can drive auction end times deterministically.
type TestEnv struct {
	Router   *gin.Engine
	Store    *repository.MemoryStore
	Clock    *clock.FakeClock
	Registry *identity.Registry
	Sweeper  *sweeper.Sweeper
}

// SetupTestEnv initializes the router with the in-memory store for
// integration testing.
func SetupTestEnv() *TestEnv {
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	clk := clock.NewFakeClock(integrationNow)
	registry := identity.NewRegistry()
	tokens := identity.NewTokenManager([]byte("integration-test-secret"), time.Hour)
	service := auction.NewAuctionService(store, clk)

	return &TestEnv{
		Router:   server.SetupRouter(service, registry, tokens),
		Store:    store,
		Clock:    clk,
		Registry: registry,
		Sweeper:  sweeper.NewSweeper(store, clk, time.Minute),
	}
}

// ExecuteRequest executes an HTTP request and returns the parsed response
// envelope along with the recorder. An empty token skips the
// Authorization header.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// RegisterAndLogin creates a user through the API and returns its id and
// bearer token.
func RegisterAndLogin(t *testing.T, env *TestEnv, username, password string) (userID, token string) {
	t.Helper()

	resp, w := ExecuteRequest(t, env.Router, "POST", "/auth/register", "", map[string]any{
		"username": username,
		"password": password,
		"email":    username + "@example.com",
	})
	if w.Code != 201 {
		t.Fatalf("register %s failed with status %d: %v", username, w.Code, resp)
	}

	resp, w = ExecuteRequest(t, env.Router, "POST", "/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	})
	if w.Code != 200 {
		t.Fatalf("login %s failed with status %d: %v", username, w.Code, resp)
	}

	data := resp["data"].(map[string]any)
	return data["user_id"].(string), data["token"].(string)
}
