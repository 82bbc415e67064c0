package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gapt-portal/gapt-api/internal/service"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
	"github.com/gapt-portal/gapt-api/pkg/response"
)

// IdentityHandler exposes the provisioning endpoints.
type IdentityHandler struct {
	identities *service.IdentityService
}

// NewIdentityHandler constructs IdentityHandler.
func NewIdentityHandler(identities *service.IdentityService) *IdentityHandler {
	return &IdentityHandler{identities: identities}
}

// Propose godoc
// @Summary Derive an identity without writing it
// @Tags Identities
// @Accept json
// @Produce json
// @Param payload body service.NewIdentityRequest true "Identity payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /identities/propose [post]
func (h *IdentityHandler) Propose(c *gin.Context) {
	var req service.NewIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid identity payload"))
		return
	}
	preview, err := h.identities.Propose(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Create godoc
// @Summary Provision a single account
// @Tags Identities
// @Accept json
// @Produce json
// @Param payload body service.NewIdentityRequest true "Identity payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /identities [post]
func (h *IdentityHandler) Create(c *gin.Context) {
	var req service.NewIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid identity payload"))
		return
	}
	user, err := h.identities.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// CreateBulk godoc
// @Summary Provision many accounts, skipping conflicts
// @Tags Identities
// @Accept json
// @Produce json
// @Param payload body []service.NewIdentityRequest true "Identity payloads"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /identities/bulk [post]
func (h *IdentityHandler) CreateBulk(c *gin.Context) {
	var reqs []service.NewIdentityRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid identity payload"))
		return
	}
	if len(reqs) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "no identities supplied"))
		return
	}
	result, err := h.identities.CreateBulk(c.Request.Context(), reqs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
