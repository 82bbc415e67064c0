package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gapt-portal/gapt-api/internal/middleware"
	"github.com/gapt-portal/gapt-api/internal/models"
	"github.com/gapt-portal/gapt-api/internal/service"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
	"github.com/gapt-portal/gapt-api/pkg/response"
)

// MarkHandler exposes the mark entry and attendance surfaces.
type MarkHandler struct {
	marks *service.MarkService
}

// NewMarkHandler constructs MarkHandler.
func NewMarkHandler(marks *service.MarkService) *MarkHandler {
	return &MarkHandler{marks: marks}
}

// ListBatches godoc
// @Summary List assessment batches
// @Tags Marks
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks/batches [get]
func (h *MarkHandler) ListBatches(c *gin.Context) {
	batches, err := h.marks.ListBatches(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, nil)
}

// CreateBatch godoc
// @Summary Open an assessment batch
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.CreateBatchRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /marks/batches [post]
func (h *MarkHandler) CreateBatch(c *gin.Context) {
	var req service.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid batch payload"))
		return
	}
	batch, err := h.marks.CreateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

type batchStatusRequest struct {
	Status models.BatchStatus `json:"status" binding:"required"`
}

// SetBatchStatus godoc
// @Summary Flip a batch between OPEN, FROZEN and BLOCKED
// @Tags Marks
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param payload body batchStatusRequest true "Status"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /marks/batches/{id} [put]
func (h *MarkHandler) SetBatchStatus(c *gin.Context) {
	var req batchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}
	if err := h.marks.SetBatchStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListBatchRecords godoc
// @Summary Scores inside one batch
// @Tags Marks
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks/batches/{id}/records [get]
func (h *MarkHandler) ListBatchRecords(c *gin.Context) {
	records, err := h.marks.ListBatchRecords(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// EnterMark godoc
// @Summary Record one subject score
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.EnterMarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /marks [post]
func (h *MarkHandler) EnterMark(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.EnterMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid mark payload"))
		return
	}
	record, err := h.marks.EnterMark(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

type attendanceEntryRequest struct {
	UserID    string                  `json:"user_id" binding:"required"`
	Date      string                  `json:"date" binding:"required"`
	IsPresent bool                    `json:"is_present"`
	Hours     []models.HourAttendance `json:"hours"`
}

// MarkAttendance godoc
// @Summary Record one day of a user's attendance ledger
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body attendanceEntryRequest true "Attendance payload"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /attendance [post]
func (h *MarkHandler) MarkAttendance(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req attendanceEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid attendance payload"))
		return
	}
	record := &models.AttendanceRecord{
		UserID:    req.UserID,
		Date:      req.Date,
		IsPresent: req.IsPresent,
	}
	if len(req.Hours) > 0 {
		raw, err := json.Marshal(req.Hours)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid hour breakdown"))
			return
		}
		record.Hours = raw
	}
	today := req.Date == time.Now().Format("2006-01-02")
	if err := h.marks.MarkAttendance(c.Request.Context(), claims.UserID, today, record); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
