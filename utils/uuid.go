package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier. Auction, bid, and user
// account IDs all come from here.
func GenerateID() string {
	return uuid.New().String()
}
