package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dlehman/mechanic-shop-api/config"
	"github.com/dlehman/mechanic-shop-api/models"
	"github.com/dlehman/mechanic-shop-api/services"
)

// Context keys set by the guard on successful authentication
const (
	ContextPrincipalID   = "principal_id"
	ContextPrincipalRole = "principal_role"
)

// AuthGuard authenticates requests and enforces role/ownership rules.
// It extracts a bearer token, validates it, resolves the principal row
// behind the claim, and makes the principal available to handlers.
type AuthGuard struct {
	tokens *services.TokenService
}

// NewAuthGuard creates a guard backed by the given token service
func NewAuthGuard(tokens *services.TokenService) *AuthGuard {
	return &AuthGuard{tokens: tokens}
}

// extractToken pulls the raw token out of the Authorization header.
// Only the exact "Bearer <token>" shape is accepted.
func extractToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}

// authenticate runs extraction, validation and principal resolution.
// It writes the 401 response itself and returns false on any failure.
func (g *AuthGuard) authenticate(c *gin.Context, requiredRole string) bool {
	token, ok := extractToken(c)
	if !ok {
		unauthorized(c, "MISSING_TOKEN", "Authorization header must be of the form: Bearer <token>")
		return false
	}

	claims, err := g.tokens.ValidateToken(token)
	if err != nil {
		switch err {
		case services.ErrTokenExpired:
			unauthorized(c, "TOKEN_EXPIRED", "Token has expired")
		default:
			unauthorized(c, "INVALID_TOKEN", "Token is invalid")
		}
		return false
	}

	// Role-gated routes reject tokens of the wrong kind before touching
	// the database
	if requiredRole != "" && claims.Role != requiredRole {
		forbidden(c, "FORBIDDEN", requiredRole+" access required")
		return false
	}

	principalID, err := claims.SubjectID()
	if err != nil {
		unauthorized(c, "INVALID_TOKEN", "Token subject is not a valid id")
		return false
	}

	// Tokens for deleted principals are rejected
	if !principalExists(config.GetDB(), claims.Role, principalID) {
		unauthorized(c, "UNKNOWN_PRINCIPAL", "Account associated with token no longer exists")
		return false
	}

	c.Set(ContextPrincipalID, principalID)
	c.Set(ContextPrincipalRole, claims.Role)
	return true
}

func principalExists(db *gorm.DB, role string, id uint) bool {
	var count int64
	switch role {
	case services.RoleCustomer:
		db.Model(&models.Customer{}).Where("id = ?", id).Count(&count)
	case services.RoleMechanic:
		db.Model(&models.Mechanic{}).Where("id = ?", id).Count(&count)
	}
	return count > 0
}

// RequireCustomer gates a route to authenticated customers
func (g *AuthGuard) RequireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.authenticate(c, services.RoleCustomer) {
			return
		}
		c.Next()
	}
}

// RequireMechanic gates a route to authenticated mechanics
func (g *AuthGuard) RequireMechanic() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.authenticate(c, services.RoleMechanic) {
			return
		}
		c.Next()
	}
}

// RequireSelf gates a customer route to the resource owner: the
// authenticated customer's id must equal the id in the named path
// parameter. Responds 403 for a valid token belonging to someone else.
func (g *AuthGuard) RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.authenticate(c, services.RoleCustomer) {
			return
		}

		pathID, err := strconv.ParseUint(c.Param(param), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ID",
					"message": "Path id must be a positive integer",
				},
			})
			c.Abort()
			return
		}

		principalID, _ := GetPrincipalID(c)
		if principalID != uint(pathID) {
			forbidden(c, "FORBIDDEN", "You may only modify your own account")
			return
		}

		c.Next()
	}
}

// GetPrincipalID extracts the authenticated principal's id from the context
func GetPrincipalID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextPrincipalID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetPrincipalRole extracts the authenticated principal's role from the context
func GetPrincipalRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextPrincipalRole)
	if !exists {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}

func unauthorized(c *gin.Context, code, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
	c.Abort()
}

func forbidden(c *gin.Context, code, message string) {
	c.JSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
	c.Abort()
}
