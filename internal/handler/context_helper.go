package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edudata/completion-report-api/internal/middleware"
	"github.com/edudata/completion-report-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}
