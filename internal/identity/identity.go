package identity

import (
	"fmt"
	"regexp"
	"sync"

	"auction-marketplace/internal/auctionerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/utils"

	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

// Registry is a concurrency-safe in-memory identity provider. The auction
// core only consumes the identifiers it hands out; identity is always an
// explicit parameter, never process-wide session state.
type Registry struct {
	mu         sync.RWMutex
	byID       map[string]model.User // key: userID
	byUsername map[string]string     // key: username -> userID
}

// NewRegistry creates an empty identity registry
func NewRegistry() *Registry {
	return &Registry{
		byID:       make(map[string]model.User),
		byUsername: make(map[string]string),
	}
}

// Register creates a new user with a bcrypt-hashed password
func (r *Registry) Register(username, password, email string) (model.User, error) {
	if username == "" || password == "" {
		return model.User{}, fmt.Errorf("identity: %w - missing username or password", auctionerrors.ErrInvalidCredentials)
	}
	if !emailPattern.MatchString(email) {
		return model.User{}, fmt.Errorf("identity: %w - invalid email format", auctionerrors.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("identity: failed to hash password: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[username]; taken {
		return model.User{}, fmt.Errorf("identity: register %s: %w", username, auctionerrors.ErrUsernameTaken)
	}

	user := model.User{
		UserID:       utils.GenerateID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	r.byID[user.UserID] = user
	r.byUsername[username] = user.UserID
	return user, nil
}

// Authenticate verifies a username/password pair and returns the user ID
func (r *Registry) Authenticate(username, password string) (string, error) {
	r.mu.RLock()
	userID, ok := r.byUsername[username]
	var user model.User
	if ok {
		user = r.byID[userID]
	}
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("identity: authenticate %s: %w", username, auctionerrors.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", fmt.Errorf("identity: authenticate %s: %w", username, auctionerrors.ErrInvalidCredentials)
	}
	return user.UserID, nil
}

// IsAdmin reports whether the given user has admin privileges. Unknown
// users are never admins.
func (r *Registry) IsAdmin(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[userID]
	return ok && user.Admin
}

// GetUser returns the user with the given id
func (r *Registry) GetUser(userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[userID]
	if !ok {
		return model.User{}, fmt.Errorf("identity: get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

// SetAdmin grants or revokes admin privileges
func (r *Registry) SetAdmin(userID string, admin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[userID]
	if !ok {
		return fmt.Errorf("identity: set admin for user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	user.Admin = admin
	r.byID[userID] = user
	return nil
}

// DeleteUser removes a user from the registry
func (r *Registry) DeleteUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[userID]
	if !ok {
		return fmt.Errorf("identity: delete user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	delete(r.byID, userID)
	delete(r.byUsername, user.Username)
	return nil
}
