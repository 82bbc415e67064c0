package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gapt-portal/gapt-api/internal/service"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
	"github.com/gapt-portal/gapt-api/pkg/export"
	"github.com/gapt-portal/gapt-api/pkg/response"
)

// StudentHandler exposes the academic scoring and advisory endpoints.
type StudentHandler struct {
	scoring  *service.ScoringService
	advisor  *service.AdvisorService
	registry *service.RegistryService
	pdf      *export.PDFExporter
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(scoring *service.ScoringService, advisor *service.AdvisorService, registry *service.RegistryService, pdf *export.PDFExporter) *StudentHandler {
	return &StudentHandler{scoring: scoring, advisor: advisor, registry: registry, pdf: pdf}
}

func semesterParam(c *gin.Context) (int, error) {
	raw := c.DefaultQuery("semester", "1")
	sem, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "semester must be a number")
	}
	return sem, nil
}

// Academic godoc
// @Summary Derived academic scalars for one student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/academic [get]
func (h *StudentHandler) Academic(c *gin.Context) {
	data, err := h.scoring.AcademicData(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// SGPA godoc
// @Summary SGPA for one semester
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param semester query int true "Semester"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/sgpa [get]
func (h *StudentHandler) SGPA(c *gin.Context) {
	sem, err := semesterParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	sgpa, err := h.scoring.SGPA(c.Request.Context(), c.Param("id"), sem)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"semester": sem, "sgpa": sgpa}, nil)
}

// Trajectory godoc
// @Summary Cumulative CGPA series
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/trajectory [get]
func (h *StudentHandler) Trajectory(c *gin.Context) {
	series, err := h.scoring.CGPATrajectory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, series, nil)
}

// Breakdown godoc
// @Summary Per-subject score breakdown for one semester
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param semester query int true "Semester"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/breakdown [get]
func (h *StudentHandler) Breakdown(c *gin.Context) {
	sem, err := semesterParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	breakdown, err := h.scoring.Breakdown(c.Request.Context(), c.Param("id"), sem)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, breakdown, nil)
}

// GradeCard godoc
// @Summary Transcript PDF for one semester
// @Tags Students
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param semester query int true "Semester"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /students/{id}/gradecard [get]
func (h *StudentHandler) GradeCard(c *gin.Context) {
	sem, err := semesterParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID := c.Param("id")
	ctx := c.Request.Context()

	student, err := h.registry.Get(ctx, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	breakdown, err := h.scoring.Breakdown(ctx, studentID, sem)
	if err != nil {
		response.Error(c, err)
		return
	}
	sgpa, err := h.scoring.SGPA(ctx, studentID, sem)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.scoring.AcademicData(ctx, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	card := export.GradeCard{
		StudentName: student.FullName,
		RegNo:       student.RegNo,
		Department:  student.Department,
		Semester:    sem,
		SGPA:        sgpa,
		CGPA:        data.CGPA,
	}
	for _, row := range breakdown {
		card.Subjects = append(card.Subjects, export.GradeCardRow{
			Subject:   row.Subject,
			Internal1: row.Internal1,
			Internal2: row.Internal2,
			EndSem:    row.EndSem,
		})
	}

	pdf, err := h.pdf.RenderGradeCard(card)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render grade card"))
		return
	}
	filename := fmt.Sprintf("gradecard-%s-sem%d.pdf", student.RegNo, sem)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Advisory godoc
// @Summary Green-impact advisory analysis for one student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/advisory [post]
func (h *StudentHandler) Advisory(c *gin.Context) {
	studentID := c.Param("id")
	ctx := c.Request.Context()

	student, err := h.registry.Get(ctx, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.scoring.AcademicData(ctx, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.advisor.Analyze(ctx, studentID, service.AdvisoryInput{
		Attendance:  data.Attendance,
		CGPA:        data.CGPA,
		SGPA:        data.SGPA,
		Credits:     data.Credits,
		GreenPoints: data.GreenPoints,
		StudentName: student.FullName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
