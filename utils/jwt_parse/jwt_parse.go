package jwt_parse

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/utils"
)

// Claims is the part of the access token the ledger relies on.
type Claims struct {
	UserID string
	Role   string
}

// BearerToken extracts the token from a "Bearer <token>" header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	if len(header) > 7 && strings.ToLower(header[:7]) == "bearer " {
		return header[7:], nil
	}
	return "", errors.New("invalid authorization format")
}

// ParseToken validates an HS256 token and reads its user id ("user_id", falling back
// to "sub") and role.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	out := &Claims{}
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		out.UserID = userID
	} else if sub, err := claims.GetSubject(); err == nil && sub != "" {
		out.UserID = sub
	} else {
		return nil, errors.New("no user identifier found in token")
	}
	out.Role, _ = claims["role"].(string)
	return out, nil
}

// Authenticate validates the bearer token and sets user_id and role in the context.
// On failure it aborts the request and returns false.
func Authenticate(c *gin.Context, secret []byte) bool {
	tokenString, err := BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		logger.WarnLogger.Warnf("Rejected request to %s: %v", c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return false
	}

	claims, err := ParseToken(tokenString, secret)
	if err != nil {
		logger.WarnLogger.Warnf("Invalid JWT token: %v", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return false
	}

	c.Set(utils.ContextUserID, claims.UserID)
	c.Set(utils.ContextRole, claims.Role)
	return true
}

