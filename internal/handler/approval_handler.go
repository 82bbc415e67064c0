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

// ApprovalHandler exposes the four governance workflows.
type ApprovalHandler struct {
	approvals *service.ApprovalService
	registry  *service.RegistryService
	metrics   *service.MetricsService
}

// NewApprovalHandler constructs ApprovalHandler.
func NewApprovalHandler(approvals *service.ApprovalService, registry *service.RegistryService, metrics *service.MetricsService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals, registry: registry, metrics: metrics}
}

type decisionRequest struct {
	Approve bool `json:"approve"`
}

func (h *ApprovalHandler) countDecision(workflow string, approve bool) {
	if h.metrics == nil {
		return
	}
	outcome := "rejected"
	if approve {
		outcome = "approved"
	}
	h.metrics.CountApproval(workflow, outcome)
}

// ListOnboarding godoc
// @Summary Accounts awaiting the onboarding decision
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/onboarding [get]
func (h *ApprovalHandler) ListOnboarding(c *gin.Context) {
	users, err := h.approvals.ListPendingOnboarding(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// DecideOnboarding godoc
// @Summary Approve or reject a pending account
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param payload body decisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/onboarding/{id} [post]
func (h *ApprovalHandler) DecideOnboarding(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	user, err := h.approvals.DecideOnboarding(c.Request.Context(), c.Param("id"), req.Approve)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.countDecision("onboarding", req.Approve)
	response.JSON(c, http.StatusOK, user, nil)
}

type unlockRequest struct {
	DeptID    string `json:"dept_id" binding:"required"`
	DeptName  string `json:"dept_name" binding:"required"`
	BatchID   string `json:"batch_id" binding:"required"`
	BatchName string `json:"batch_name" binding:"required"`
}

// RequestUnlock godoc
// @Summary File a curriculum unlock petition
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body unlockRequest true "Unlock petition"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/curriculum [post]
func (h *ApprovalHandler) RequestUnlock(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid unlock payload"))
		return
	}
	hod, err := h.registry.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	petition := &models.CurriculumUnlockRequest{
		HODID:     claims.UserID,
		HODName:   hod.FullName,
		DeptID:    req.DeptID,
		DeptName:  req.DeptName,
		BatchID:   req.BatchID,
		BatchName: req.BatchName,
	}
	if err := h.approvals.RequestCurriculumUnlock(c.Request.Context(), petition); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, petition)
}

// ListUnlocks godoc
// @Summary List curriculum unlock petitions
// @Tags Approvals
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/curriculum [get]
func (h *ApprovalHandler) ListUnlocks(c *gin.Context) {
	var status *models.RequestStatus
	if raw := c.Query("status"); raw != "" {
		value := models.RequestStatus(raw)
		status = &value
	}
	reqs, err := h.approvals.ListCurriculumUnlocks(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reqs, nil)
}

// DecideUnlock godoc
// @Summary Decide a curriculum unlock petition
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body decisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/curriculum/{id} [post]
func (h *ApprovalHandler) DecideUnlock(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	petition, err := h.approvals.DecideCurriculumUnlock(c.Request.Context(), c.Param("id"), req.Approve)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.countDecision("curriculum_unlock", req.Approve)
	response.JSON(c, http.StatusOK, petition, nil)
}

// CurriculumStatus godoc
// @Summary Curriculum status for one (batch, department) pair
// @Tags Approvals
// @Produce json
// @Param batch_id query string true "Batch ID"
// @Param dept_id query string true "Department ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /curriculum/status [get]
func (h *ApprovalHandler) CurriculumStatus(c *gin.Context) {
	batchID := c.Query("batch_id")
	deptID := c.Query("dept_id")
	if batchID == "" || deptID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "batch_id and dept_id are required"))
		return
	}
	status, err := h.approvals.CurriculumStatus(c.Request.Context(), batchID, deptID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"batch_id": batchID, "dept_id": deptID, "status": status}, nil)
}

type attendanceAuthorityRequest struct {
	DeptName string `json:"dept_name" binding:"required"`
	Date     string `json:"date" binding:"required"`
}

// RequestAttendance godoc
// @Summary File an attendance edit-authority petition
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body attendanceAuthorityRequest true "Authority petition"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/attendance [post]
func (h *ApprovalHandler) RequestAttendance(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req attendanceAuthorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid authority payload"))
		return
	}
	requester, err := h.registry.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	petition := &models.AttendanceEditRequest{
		RequesterID:   claims.UserID,
		RequesterName: requester.FullName,
		DeptName:      req.DeptName,
		Date:          req.Date,
	}
	result, err := h.approvals.RequestAttendanceAuthority(c.Request.Context(), petition)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListAttendance godoc
// @Summary Attendance authority petitions visible to the caller
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/attendance [get]
func (h *ApprovalHandler) ListAttendance(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	reqs, err := h.approvals.ListAttendanceAuthority(c.Request.Context(), claims.Role, claims.Department)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reqs, nil)
}

type authorityDecisionRequest struct {
	Approved bool `json:"approved"`
}

// DecideAttendance godoc
// @Summary Record one authority's flag on a petition
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body authorityDecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/attendance/{id} [post]
func (h *ApprovalHandler) DecideAttendance(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req authorityDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	updated, err := h.approvals.GrantAttendanceAuthority(c.Request.Context(), c.Param("id"), claims.Role, req.Approved)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.countDecision("attendance_authority", req.Approved)
	response.JSON(c, http.StatusOK, gin.H{
		"request":          updated,
		"fully_authorized": updated.FullyAuthorized(),
	}, nil)
}

// RequestReveal godoc
// @Summary File a credential reveal petition for the caller
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/reveal [post]
func (h *ApprovalHandler) RequestReveal(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.approvals.RequestCredentialReveal(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": models.RevealPending}, nil)
}

// ListReveals godoc
// @Summary Credential reveal queue
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/reveal [get]
func (h *ApprovalHandler) ListReveals(c *gin.Context) {
	users, err := h.approvals.ListPendingReveals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// DecideReveal godoc
// @Summary Decide a credential reveal petition
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param payload body decisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/reveal/{id} [post]
func (h *ApprovalHandler) DecideReveal(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	if err := h.approvals.DecideCredentialReveal(c.Request.Context(), c.Param("id"), req.Approve); err != nil {
		response.Error(c, err)
		return
	}
	h.countDecision("credential_reveal", req.Approve)
	response.NoContent(c)
}

// ShowCredential godoc
// @Summary Reveal the caller's credential after approval
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/reveal/me [get]
func (h *ApprovalHandler) ShowCredential(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	credential, err := h.approvals.RevealCredential(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"credential": credential}, nil)
}

type resetCredentialRequest struct {
	Credential string `json:"credential" binding:"required"`
}

// ResetCredential godoc
// @Summary Rotate the caller's credential
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body resetCredentialRequest true "New credential"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /approvals/reveal/me [post]
func (h *ApprovalHandler) ResetCredential(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req resetCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid credential payload"))
		return
	}
	if err := h.approvals.ResetCredential(c.Request.Context(), claims.UserID, req.Credential); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
