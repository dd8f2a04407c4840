package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/ledger/logger"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

const (
	RoleWorker   = "worker"
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one the ledger knows about.
func ValidRole(role string) bool {
	return role == RoleWorker || role == RoleCustomer || role == RoleAdmin
}

// GetUserIDFromContext extracts the authenticated user id. The middleware stores it as a
// string under "user_id".
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, ErrUserIDNotFound
	}

	userIDStr, ok := raw.(string)
	if !ok {
		logger.ErrorLogger.Errorf("User ID in context is not a string, actual type: %T", raw)
		return uuid.Nil, fmt.Errorf("%w: invalid user ID format in context", ErrUnauthorized)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to parse user ID string '%s' to UUID: %v", userIDStr, err)
		return uuid.Nil, fmt.Errorf("%w: invalid user ID format", ErrUnauthorized)
	}
	return userID, nil
}

func GetRoleFromContext(c *gin.Context) string {
	return c.GetString(ContextRole)
}
