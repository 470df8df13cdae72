package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// errorJSON writes the standard error envelope
func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// validationJSON writes a 400 with the full per-field violation map
func validationJSON(c *gin.Context, status int, violations map[string]string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": violations,
		},
	})
}

// isDuplicateKeyErr checks a database error for a uniqueness violation
// (works with both PostgreSQL and SQLite)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}
