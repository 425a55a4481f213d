package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateState returns an unguessable value for the OAuth state parameter.
func GenerateState() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}
