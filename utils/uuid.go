package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new time-ordered (v7) identifier string, so ids sort by creation
func GenerateID() string {
	return uuid.Must(uuid.NewV7()).String()
}
