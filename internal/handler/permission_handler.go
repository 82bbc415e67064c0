package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gapt-portal/gapt-api/internal/middleware"
	"github.com/gapt-portal/gapt-api/internal/models"
	"github.com/gapt-portal/gapt-api/internal/service"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
	"github.com/gapt-portal/gapt-api/pkg/response"
)

// PermissionHandler exposes the access matrix endpoints.
type PermissionHandler struct {
	permissions *service.PermissionService
}

// NewPermissionHandler constructs PermissionHandler.
func NewPermissionHandler(permissions *service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissions: permissions}
}

// Matrix godoc
// @Summary Full access matrix
// @Tags Permissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /permissions [get]
func (h *PermissionHandler) Matrix(c *gin.Context) {
	matrix, err := h.permissions.Matrix(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix, nil)
}

// Resolve godoc
// @Summary Resolve one (role, feature) grant
// @Tags Permissions
// @Produce json
// @Param role query string true "Role"
// @Param feature query string true "Feature"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /permissions/resolve [get]
func (h *PermissionHandler) Resolve(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	feature := models.Feature(c.Query("feature"))
	if role == "" || feature == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "role and feature are required"))
		return
	}
	level, err := h.permissions.Resolve(c.Request.Context(), role, middleware.CurrentView(c), feature)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"role": role, "feature": feature, "level": level}, nil)
}

type setLevelRequest struct {
	Role    models.UserRole    `json:"role" binding:"required"`
	Feature models.Feature     `json:"feature" binding:"required"`
	Level   models.AccessLevel `json:"level" binding:"required"`
}

// SetLevel godoc
// @Summary Update one matrix cell
// @Tags Permissions
// @Accept json
// @Produce json
// @Param payload body setLevelRequest true "Matrix cell"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /permissions [put]
func (h *PermissionHandler) SetLevel(c *gin.Context) {
	var req setLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid permission payload"))
		return
	}
	if err := h.permissions.SetLevel(c.Request.Context(), req.Role, req.Feature, req.Level); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"role": req.Role, "feature": req.Feature, "level": req.Level}, nil)
}
