package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joy095/ledger/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func sign(t *testing.T, claims jwt.MapClaims, key []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		id, _ := utils.GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.String(), "role": utils.GetRoleFromContext(c)})
	})
	r.GET("/admin", AuthMiddleware(secret), RequireRole(utils.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	t.Run("ValidToken", func(t *testing.T) {
		w := do(r, "/me", sign(t, jwt.MapClaims{"user_id": userID.String(), "role": "worker", "exp": exp}, secret))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("SubjectFallback", func(t *testing.T) {
		w := do(r, "/me", sign(t, jwt.MapClaims{"sub": userID.String(), "role": "customer", "exp": exp}, secret))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingToken", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	})

	t.Run("WrongKey", func(t *testing.T) {
		w := do(r, "/me", sign(t, jwt.MapClaims{"user_id": userID.String(), "role": "worker", "exp": exp}, []byte("other")))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Expired", func(t *testing.T) {
		w := do(r, "/me", sign(t, jwt.MapClaims{"user_id": userID.String(), "role": "worker", "exp": time.Now().Add(-time.Minute).Unix()}, secret))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("NonUUIDSubject", func(t *testing.T) {
		w := do(r, "/me", sign(t, jwt.MapClaims{"user_id": "alice", "role": "worker", "exp": exp}, secret))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		w := do(r, "/me", sign(t, jwt.MapClaims{"user_id": userID.String(), "role": "root", "exp": exp}, secret))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("RequireRole", func(t *testing.T) {
		worker := sign(t, jwt.MapClaims{"user_id": userID.String(), "role": "worker", "exp": exp}, secret)
		admin := sign(t, jwt.MapClaims{"user_id": userID.String(), "role": "admin", "exp": exp}, secret)
		assert.Equal(t, http.StatusForbidden, do(r, "/admin", worker).Code)
		assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
	})
}
