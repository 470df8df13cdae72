package testutil

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dlehman/mechanic-shop-api/middleware"
	"github.com/dlehman/mechanic-shop-api/services"
)

// TestJWTSecret is the signing secret used throughout the test suite
const TestJWTSecret = "test-secret-do-not-use-in-production"

// NewTestTokenService creates a token service with the test secret and a
// 24 hour validity window
func NewTestTokenService() *services.TokenService {
	return services.NewTokenService(TestJWTSecret, 24*time.Hour)
}

// MintToken issues a real signed token for a test principal
func MintToken(t *testing.T, tokens *services.TokenService, subjectID uint, role string) string {
	t.Helper()

	token, err := tokens.IssueToken(subjectID, role)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// MockAuthMiddleware seeds the gin context exactly as the real guard does
// on success, letting handler tests bypass token validation
func MockAuthMiddleware(principalID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextPrincipalID, principalID)
		c.Set(middleware.ContextPrincipalRole, role)
		c.Next()
	}
}
