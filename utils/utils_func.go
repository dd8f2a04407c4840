package utils

import (
	"os"

	"github.com/joy095/ledger/logger"
)

// GetJWTSecret returns the HMAC key used to validate access tokens.
func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.WarnLogger.Warn("JWT_SECRET environment variable not set.")
		return []byte("default-insecure-secret-only-for-development")
	}
	return []byte(secret)
}
