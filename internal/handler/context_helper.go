package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecolenet/remplacement-api/internal/engine"
	"github.com/ecolenet/remplacement-api/internal/middleware"
	"github.com/ecolenet/remplacement-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	return page, size
}

// dateQuery parses an optional ISO date query param. ok is false when the
// param is present but malformed.
func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(engine.ISODate, raw)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
