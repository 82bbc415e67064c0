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

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth      *service.AuthService
	approvals *service.ApprovalService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService, approvals *service.ApprovalService) *AuthHandler {
	return &AuthHandler{auth: auth, approvals: approvals}
}

// Login godoc
// @Summary Authenticate and obtain an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid login payload"))
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Register godoc
// @Summary File a self-registration
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid registration payload"))
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

type revealPetitionRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RevealPetition godoc
// @Summary File or follow a credential reveal petition
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body revealPetitionRequest true "Account email"
// @Success 200 {object} response.Envelope
// @Router /auth/reveal-petition [post]
func (h *AuthHandler) RevealPetition(c *gin.Context) {
	var req revealPetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "a valid email is required"))
		return
	}
	state, err := h.approvals.PetitionCredentialReveal(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Me godoc
// @Summary Current account profile
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.auth.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
