package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuthMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMissingTokenRejected(t *testing.T) {
	w := doRequest(newProtectedRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMalformedHeaderRejected(t *testing.T) {
	w := doRequest(newProtectedRouter(), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	w := doRequest(newProtectedRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidTokenAccepted(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	w := doRequest(newProtectedRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}
