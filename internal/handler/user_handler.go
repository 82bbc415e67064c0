package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gapt-portal/gapt-api/internal/models"
	"github.com/gapt-portal/gapt-api/internal/service"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
	"github.com/gapt-portal/gapt-api/pkg/export"
	"github.com/gapt-portal/gapt-api/pkg/response"
)

// UserHandler exposes the directory endpoints.
type UserHandler struct {
	registry *service.RegistryService
	csv      *export.CSVExporter
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(registry *service.RegistryService, csv *export.CSVExporter) *UserHandler {
	return &UserHandler{registry: registry, csv: csv}
}

// List godoc
// @Summary List directory entries
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role"
// @Param status query string false "Filter by status"
// @Param department query string false "Filter by department"
// @Param search query string false "Search by name, email or register number"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	if role := c.Query("role"); role != "" {
		value := models.UserRole(role)
		filter.Role = &value
	}
	if status := c.Query("status"); status != "" {
		value := models.UserStatus(status)
		filter.Status = &value
	}
	filter.Department = c.Query("department")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	users, pagination, err := h.registry.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Get godoc
// @Summary Get one directory entry
// @Tags Users
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

type updateUserRequest struct {
	FullName    string `json:"full_name"`
	Department  string `json:"department"`
	StudyYear   string `json:"study_year"`
	Designation string `json:"designation"`
	Experience  string `json:"experience"`
}

// Update godoc
// @Summary Update directory-editable fields
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param payload body updateUserRequest true "Editable fields"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid user payload"))
		return
	}
	user, err := h.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Department != "" {
		user.Department = req.Department
	}
	if req.StudyYear != "" {
		user.StudyYear = req.StudyYear
	}
	if req.Designation != "" {
		user.Designation = req.Designation
	}
	if req.Experience != "" {
		user.Experience = req.Experience
	}
	if err := h.registry.Update(c.Request.Context(), user); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

type assignMentorsRequest struct {
	StudentIDs []string `json:"student_ids" binding:"required"`
	MentorID   string   `json:"mentor_id" binding:"required"`
	Mentor2ID  string   `json:"mentor2_id"`
}

// AssignMentors godoc
// @Summary Link students to a mentor pair
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body assignMentorsRequest true "Assignment"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /users/mentors [post]
func (h *UserHandler) AssignMentors(c *gin.Context) {
	var req assignMentorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment payload"))
		return
	}
	if err := h.registry.AssignMentors(c.Request.Context(), req.StudentIDs, req.MentorID, req.Mentor2ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the directory as CSV
// @Tags Users
// @Produce text/csv
// @Param role query string false "Filter by role"
// @Param department query string false "Filter by department"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /users/export [get]
func (h *UserHandler) Export(c *gin.Context) {
	var filter models.UserFilter
	if role := c.Query("role"); role != "" {
		value := models.UserRole(role)
		filter.Role = &value
	}
	filter.Department = c.Query("department")
	filter.PageSize = 10000

	users, _, err := h.registry.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := export.Dataset{
		Headers: []string{"Name", "Email", "Role", "Department", "Register No", "Status"},
	}
	for _, u := range users {
		data.Rows = append(data.Rows, map[string]string{
			"Name":        u.FullName,
			"Email":       u.Email,
			"Role":        string(u.Role),
			"Department":  u.Department,
			"Register No": u.RegNo,
			"Status":      string(u.Status),
		})
	}
	csvBytes, err := h.csv.Render(data)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export directory"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="directory.csv"`)
	c.Data(http.StatusOK, "text/csv", csvBytes)
}

// Delete godoc
// @Summary Remove one account
// @Tags Users
// @Produce json
// @Param id path string true "Account ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.registry.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
