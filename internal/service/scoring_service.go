package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/gapt-portal/gapt-api/internal/models"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
)

type scoringMarkRepository interface {
	ListBatches(ctx context.Context) ([]models.MarkBatch, error)
	ListRecordsByStudent(ctx context.Context, studentID string) ([]models.MarkRecord, error)
	ListAttendanceByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error)
}

const (
	maxSemesters = 8
	hoursPerDay  = 7
)

var semesterTag = regexp.MustCompile(`(?i)sem\s*(\d+)`)

// GradePoint converts a raw score to the 10-point scale. Tier lower bounds
// are inclusive; anything under 50% earns nothing.
func GradePoint(marks, maxMarks float64) float64 {
	if maxMarks <= 0 {
		return 0
	}
	pct := marks / maxMarks * 100
	switch {
	case pct >= 90:
		return 10
	case pct >= 80:
		return 9
	case pct >= 70:
		return 8
	case pct >= 60:
		return 7
	case pct >= 50:
		return 6
	default:
		return 0
	}
}

// SemesterOf extracts the semester number from a batch name. The name is
// the only linkage between a batch and its semester, so a missing tag is
// reported rather than guessed.
func SemesterOf(batchName string) (int, bool) {
	matches := semesterTag.FindAllStringSubmatch(batchName, -1)
	if len(matches) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func isEndSem(batchName string) bool {
	return strings.Contains(strings.ToLower(batchName), "end sem")
}

func isInternal(batchName string, n int) bool {
	return strings.Contains(strings.ToLower(batchName), fmt.Sprintf("internal %d", n))
}

// ScoringService derives grade points, SGPA, CGPA trajectories and subject
// breakdowns from a student's mark records. Pure computation; every call
// recomputes from the stored records.
type ScoringService struct {
	marks  scoringMarkRepository
	logger *zap.Logger
}

// NewScoringService constructs the scoring service.
func NewScoringService(marks scoringMarkRepository, logger *zap.Logger) *ScoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringService{marks: marks, logger: logger}
}

// endSemPoints returns the student's End-Sem grade points keyed by
// semester.
func (s *ScoringService) endSemPoints(ctx context.Context, studentID string) (map[int][]float64, error) {
	batches, err := s.marks.ListBatches(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
	}
	batchByID := make(map[string]models.MarkBatch, len(batches))
	for _, b := range batches {
		batchByID[b.ID] = b
	}

	records, err := s.marks.ListRecordsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mark records")
	}

	points := make(map[int][]float64)
	for _, rec := range records {
		batch, ok := batchByID[rec.BatchID]
		if !ok || !isEndSem(batch.Name) {
			continue
		}
		sem, ok := SemesterOf(batch.Name)
		if !ok {
			s.logger.Warn("batch name carries no semester tag", zap.String("batch", batch.Name))
			continue
		}
		points[sem] = append(points[sem], GradePoint(rec.Marks, rec.MaxMarks))
	}
	return points, nil
}

// SGPA returns the mean End-Sem grade point for one semester. A semester
// with no records scores zero.
func (s *ScoringService) SGPA(ctx context.Context, studentID string, semester int) (float64, error) {
	if semester < 1 || semester > maxSemesters {
		return 0, appErrors.Clone(appErrors.ErrValidation, "semester out of range")
	}
	points, err := s.endSemPoints(ctx, studentID)
	if err != nil {
		return 0, err
	}
	semPoints := points[semester]
	if len(semPoints) == 0 {
		return 0, nil
	}
	mean, err := stats.Mean(semPoints)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute sgpa")
	}
	return round2(mean), nil
}

// CGPATrajectory returns the cumulative CGPA series over semesters 1..8.
// Semesters whose cumulative value is still zero are dropped, except the
// first point, which anchors the series even at zero.
func (s *ScoringService) CGPATrajectory(ctx context.Context, studentID string) ([]models.TrajectoryPoint, error) {
	points, err := s.endSemPoints(ctx, studentID)
	if err != nil {
		return nil, err
	}
	series := make([]models.TrajectoryPoint, 0, maxSemesters)
	var cumulative []float64
	for sem := 1; sem <= maxSemesters; sem++ {
		cumulative = append(cumulative, points[sem]...)
		value := 0.0
		if len(cumulative) > 0 {
			mean, err := stats.Mean(cumulative)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute trajectory")
			}
			value = round2(mean)
		}
		if value == 0 && sem > 1 {
			continue
		}
		series = append(series, models.TrajectoryPoint{Name: fmt.Sprintf("Sem %d", sem), Value: value})
	}
	return series, nil
}

// Breakdown reconstructs the per-subject Internal-1 / Internal-2 / End-Sem
// raw scores for one semester from batch-name tags.
func (s *ScoringService) Breakdown(ctx context.Context, studentID string, semester int) ([]models.SubjectScores, error) {
	if semester < 1 || semester > maxSemesters {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester out of range")
	}
	batches, err := s.marks.ListBatches(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
	}
	batchByID := make(map[string]models.MarkBatch, len(batches))
	for _, b := range batches {
		batchByID[b.ID] = b
	}
	records, err := s.marks.ListRecordsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mark records")
	}

	bySubject := make(map[string]*models.SubjectScores)
	for _, rec := range records {
		batch, ok := batchByID[rec.BatchID]
		if !ok {
			continue
		}
		sem, ok := SemesterOf(batch.Name)
		if !ok || sem != semester {
			continue
		}
		entry, ok := bySubject[rec.Subject]
		if !ok {
			entry = &models.SubjectScores{Subject: rec.Subject}
			bySubject[rec.Subject] = entry
		}
		switch {
		case isInternal(batch.Name, 1):
			entry.Internal1 = rec.Marks
		case isInternal(batch.Name, 2):
			entry.Internal2 = rec.Marks
		case isEndSem(batch.Name):
			entry.EndSem = rec.Marks
		}
	}

	result := make([]models.SubjectScores, 0, len(bySubject))
	for _, entry := range bySubject {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Subject < result[j].Subject })
	return result, nil
}

// AcademicData derives the scalar summary for one student: attendance from
// the hour ledger, CGPA/SGPA over End-Sem grade points, credits and green
// points from the End-Sem record count.
func (s *ScoringService) AcademicData(ctx context.Context, studentID string) (*models.AcademicData, error) {
	points, err := s.endSemPoints(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var all []float64
	latestSem := 0
	endSemCount := 0
	for sem, semPoints := range points {
		all = append(all, semPoints...)
		endSemCount += len(semPoints)
		if sem > latestSem {
			latestSem = sem
		}
	}

	data := &models.AcademicData{}
	if len(all) > 0 {
		mean, err := stats.Mean(all)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute cgpa")
		}
		data.CGPA = round2(mean)
		latest, err := stats.Mean(points[latestSem])
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute sgpa")
		}
		data.SGPA = round2(latest)
	}

	attendance, err := s.attendancePercent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	data.Attendance = attendance
	data.Credits = 3 * endSemCount
	data.GreenPoints = 10*endSemCount + attendance
	return data, nil
}

// attendancePercent walks the hour ledger. Rows without an hour breakdown
// predate hourly tracking and count as a whole present or absent day.
func (s *ScoringService) attendancePercent(ctx context.Context, userID string) (int, error) {
	records, err := s.marks.ListAttendanceByUser(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if len(records) == 0 {
		return 0, nil
	}
	totalHours := 0
	presentHours := 0
	for _, rec := range records {
		if len(rec.Hours) == 0 {
			totalHours += hoursPerDay
			if rec.IsPresent {
				presentHours += hoursPerDay
			}
			continue
		}
		var hours []models.HourAttendance
		if err := json.Unmarshal(rec.Hours, &hours); err != nil {
			s.logger.Warn("unreadable hour breakdown", zap.String("record_id", rec.ID))
			totalHours += hoursPerDay
			if rec.IsPresent {
				presentHours += hoursPerDay
			}
			continue
		}
		// A tracked day weighs only the hours actually recorded.
		totalHours += len(hours)
		for _, h := range hours {
			if strings.EqualFold(h.Status, "present") {
				presentHours++
			}
		}
	}
	if totalHours == 0 {
		return 0, nil
	}
	return int(math.Round(float64(presentHours) / float64(totalHours) * 100)), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
