// Package respond maps service-layer errors onto HTTP responses so every
// handler reports the same status code for the same failure.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/fest-dev/fest/internal/services"
)

// uniqueViolation is the Postgres error code for a unique-constraint breach.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err wraps a Postgres unique-constraint
// violation, e.g. an update claiming an email another account already holds.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Error writes the JSON error response for a service error. Sentinel errors
// map to their documented status codes; anything unrecognized is logged and
// reported as a 500 without leaking the underlying message.
func Error(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrAlreadyVerified):
		c.JSON(http.StatusForbidden, gin.H{"error": "Email already verified"})
	case errors.Is(err, services.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid confirmation code"})
	case errors.Is(err, services.ErrCodeExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Confirmation code expired"})
	case errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
	case errors.Is(err, services.ErrTokenMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token does not belong to this account"})
	case errors.Is(err, services.ErrConflict) || isUniqueViolation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already exists"})
	case errors.Is(err, services.ErrMailDelivery):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send email"})
	default:
		slog.Error("request failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
