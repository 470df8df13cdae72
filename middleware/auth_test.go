package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dlehman/mechanic-shop-api/config"
	"github.com/dlehman/mechanic-shop-api/middleware"
	"github.com/dlehman/mechanic-shop-api/models"
	"github.com/dlehman/mechanic-shop-api/services"
	"github.com/dlehman/mechanic-shop-api/tests/testutil"
)

func setupGuardRouter(t *testing.T) (*gin.Engine, *services.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	config.SetDB(db)

	customer := models.Customer{
		FirstName:    "Dana",
		LastName:     "Rivera",
		Email:        "dana@example.com",
		PhoneNumber:  "555-0001",
		PasswordHash: "not-checked-here",
	}
	assert.NoError(t, db.Create(&customer).Error)

	mechanic := models.Mechanic{
		Name:  "Pat Okafor",
		Email: "pat@example.com",
		Phone: "555-0002",
	}
	assert.NoError(t, db.Create(&mechanic).Error)

	tokens := testutil.NewTestTokenService()
	guard := middleware.NewAuthGuard(tokens)

	router := gin.New()
	router.GET("/customer-only", guard.RequireCustomer(), func(c *gin.Context) {
		id, _ := middleware.GetPrincipalID(c)
		role, _ := middleware.GetPrincipalRole(c)
		c.JSON(http.StatusOK, gin.H{"principal_id": id, "role": role})
	})
	router.GET("/mechanic-only", guard.RequireMechanic(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	router.PUT("/customers/:id", guard.RequireSelf("id"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	return router, tokens
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	assert.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Error.Code
}

func TestGuardRejectsMissingOrMalformedHeader(t *testing.T) {
	router, tokens := setupGuardRouter(t)
	token := testutil.MintToken(t, tokens, 1, services.RoleCustomer)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Token " + token},
		{name: "bare token without scheme", header: token},
		{name: "empty bearer", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/customer-only", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "MISSING_TOKEN", errorCode(t, w.Body.Bytes()))
		})
	}
}

func TestGuardRejectsInvalidToken(t *testing.T) {
	router, _ := setupGuardRouter(t)

	req := httptest.NewRequest("GET", "/customer-only", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w.Body.Bytes()))
}

func TestGuardRejectsExpiredToken(t *testing.T) {
	router, _ := setupGuardRouter(t)

	expiredIssuer := services.NewTokenService(testutil.TestJWTSecret, -time.Hour)
	token, err := expiredIssuer.IssueToken(1, services.RoleCustomer)
	assert.NoError(t, err)

	req := httptest.NewRequest("GET", "/customer-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, w.Body.Bytes()))
}

func TestGuardRejectsWrongRole(t *testing.T) {
	router, tokens := setupGuardRouter(t)
	customerToken := testutil.MintToken(t, tokens, 1, services.RoleCustomer)

	req := httptest.NewRequest("GET", "/mechanic-only", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w.Body.Bytes()))
}

func TestGuardRejectsDeletedPrincipal(t *testing.T) {
	router, tokens := setupGuardRouter(t)
	token := testutil.MintToken(t, tokens, 999, services.RoleCustomer)

	req := httptest.NewRequest("GET", "/customer-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNKNOWN_PRINCIPAL", errorCode(t, w.Body.Bytes()))
}

func TestGuardSeedsPrincipalContext(t *testing.T) {
	router, tokens := setupGuardRouter(t)
	token := testutil.MintToken(t, tokens, 1, services.RoleCustomer)

	req := httptest.NewRequest("GET", "/customer-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		PrincipalID uint   `json:"principal_id"`
		Role        string `json:"role"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint(1), body.PrincipalID)
	assert.Equal(t, services.RoleCustomer, body.Role)
}

func TestRequireSelfEnforcesOwnership(t *testing.T) {
	router, tokens := setupGuardRouter(t)
	token := testutil.MintToken(t, tokens, 1, services.RoleCustomer)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "own account passes", path: "/customers/1", wantStatus: http.StatusOK},
		{name: "other account forbidden", path: "/customers/2", wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN"},
		{name: "non numeric id rejected", path: "/customers/abc", wantStatus: http.StatusBadRequest, wantCode: "INVALID_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w.Body.Bytes()))
			}
		})
	}
}

func TestRequireSelfRejectsMechanicToken(t *testing.T) {
	router, tokens := setupGuardRouter(t)
	mechanicToken := testutil.MintToken(t, tokens, 1, services.RoleMechanic)

	req := httptest.NewRequest("PUT", "/customers/1", nil)
	req.Header.Set("Authorization", "Bearer "+mechanicToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
