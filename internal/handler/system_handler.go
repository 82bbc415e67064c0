package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gapt-portal/gapt-api/internal/middleware"
	"github.com/gapt-portal/gapt-api/internal/service"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
	"github.com/gapt-portal/gapt-api/pkg/response"
)

// SystemHandler exposes the destructive registry operations.
type SystemHandler struct {
	registry *service.RegistryService
}

// NewSystemHandler constructs SystemHandler.
func NewSystemHandler(registry *service.RegistryService) *SystemHandler {
	return &SystemHandler{registry: registry}
}

type purgeRequest struct {
	Confirmation string `json:"confirmation" binding:"required"`
}

// Purge godoc
// @Summary Erase the institution registry except the acting administrator
// @Tags System
// @Accept json
// @Produce json
// @Param payload body purgeRequest true "Confirmation phrase"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /system/purge [post]
func (h *SystemHandler) Purge(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req purgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "confirmation phrase is required"))
		return
	}
	if err := h.registry.Purge(c.Request.Context(), claims.UserID, req.Confirmation); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
