package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gapt-portal/gapt-api/internal/models"
)

type mockScoringRepo struct {
	batches    []models.MarkBatch
	records    []models.MarkRecord
	attendance []models.AttendanceRecord
}

func (m *mockScoringRepo) ListBatches(ctx context.Context) ([]models.MarkBatch, error) {
	return m.batches, nil
}

func (m *mockScoringRepo) ListRecordsByStudent(ctx context.Context, studentID string) ([]models.MarkRecord, error) {
	var result []models.MarkRecord
	for _, r := range m.records {
		if r.StudentID == studentID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockScoringRepo) ListAttendanceByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	var result []models.AttendanceRecord
	for _, r := range m.attendance {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	return result, nil
}

func TestGradePointTiers(t *testing.T) {
	cases := []struct {
		marks float64
		want  float64
	}{
		{95, 10},
		{90, 10},
		{85, 9},
		{80, 9},
		{75, 8},
		{65, 7},
		{55, 6},
		{50, 6},
		{49, 0},
		{0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GradePoint(tc.marks, 100), "marks %.0f/100", tc.marks)
	}
	assert.Equal(t, 9.0, GradePoint(40, 50), "percentage is relative to max marks")
	assert.Equal(t, 0.0, GradePoint(40, 0), "zero max marks must not divide")
}

func TestSemesterOf(t *testing.T) {
	cases := []struct {
		name string
		sem  int
		ok   bool
	}{
		{"End Sem Sem 3", 3, true},
		{"Internal 1 - Sem 5 (2026)", 5, true},
		{"sem2 internals", 2, true},
		{"Sem 1 End Sem", 1, true},
		{"Midterm Collection", 0, false},
		{"End Sem", 0, false},
	}
	for _, tc := range cases {
		sem, ok := SemesterOf(tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.sem, sem, tc.name)
	}
}

func scoringFixture() *mockScoringRepo {
	return &mockScoringRepo{
		batches: []models.MarkBatch{
			{ID: "b1", Name: "End Sem Sem 1"},
			{ID: "b2", Name: "End Sem Sem 2"},
			{ID: "b3", Name: "Internal 1 Sem 2"},
			{ID: "b4", Name: "Internal 2 Sem 2"},
		},
		records: []models.MarkRecord{
			{BatchID: "b1", StudentID: "s1", Subject: "Maths", Marks: 90, MaxMarks: 100},
			{BatchID: "b1", StudentID: "s1", Subject: "Physics", Marks: 80, MaxMarks: 100},
			{BatchID: "b2", StudentID: "s1", Subject: "Maths", Marks: 70, MaxMarks: 100},
			{BatchID: "b3", StudentID: "s1", Subject: "Maths", Marks: 42, MaxMarks: 50},
			{BatchID: "b4", StudentID: "s1", Subject: "Maths", Marks: 38, MaxMarks: 50},
		},
	}
}

func TestScoringServiceSGPA(t *testing.T) {
	svc := NewScoringService(scoringFixture(), zap.NewNop())

	sgpa, err := svc.SGPA(context.Background(), "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, 9.5, sgpa, "mean of grade points 10 and 9")

	sgpa, err = svc.SGPA(context.Background(), "s1", 2)
	require.NoError(t, err)
	assert.Equal(t, 8.0, sgpa, "internals never enter the sgpa")

	sgpa, err = svc.SGPA(context.Background(), "s1", 4)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sgpa, "an empty semester scores zero")

	_, err = svc.SGPA(context.Background(), "s1", 9)
	require.Error(t, err)
}

func TestScoringServiceCGPATrajectory(t *testing.T) {
	svc := NewScoringService(scoringFixture(), zap.NewNop())

	series, err := svc.CGPATrajectory(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, series, 8, "a positive cumulative mean carries forward to every later semester")
	assert.Equal(t, models.TrajectoryPoint{Name: "Sem 1", Value: 9.5}, series[0])
	assert.Equal(t, models.TrajectoryPoint{Name: "Sem 2", Value: 9.0}, series[1])
	for _, point := range series[2:] {
		assert.Equal(t, 9.0, point.Value, "%s carries the last cumulative mean", point.Name)
	}
}

func TestScoringServiceCGPATrajectoryAnchorsFirstPoint(t *testing.T) {
	svc := NewScoringService(&mockScoringRepo{}, zap.NewNop())

	series, err := svc.CGPATrajectory(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, series, 1, "only the first point survives with no records")
	assert.Equal(t, models.TrajectoryPoint{Name: "Sem 1", Value: 0}, series[0])
}

func TestScoringServiceBreakdown(t *testing.T) {
	svc := NewScoringService(scoringFixture(), zap.NewNop())

	breakdown, err := svc.Breakdown(context.Background(), "s1", 2)
	require.NoError(t, err)
	require.Len(t, breakdown, 1)
	assert.Equal(t, models.SubjectScores{Subject: "Maths", Internal1: 42, Internal2: 38, EndSem: 70}, breakdown[0])
}

func TestScoringServiceAcademicData(t *testing.T) {
	repo := scoringFixture()
	hours := func(present, tracked int) json.RawMessage {
		var slots []models.HourAttendance
		for i := 1; i <= tracked; i++ {
			status := "absent"
			if i <= present {
				status = "present"
			}
			slots = append(slots, models.HourAttendance{Hour: i, Status: status})
		}
		raw, _ := json.Marshal(slots)
		return raw
	}
	repo.attendance = []models.AttendanceRecord{
		{ID: "a1", UserID: "s1", Date: "2026-08-24", IsPresent: true, Hours: hours(7, 7)},
		// A short tracked day weighs only its recorded hours.
		{ID: "a2", UserID: "s1", Date: "2026-08-25", IsPresent: true, Hours: hours(4, 5)},
		// Legacy rows without an hour breakdown count as a whole day.
		{ID: "a3", UserID: "s1", Date: "2026-08-26", IsPresent: true},
		{ID: "a4", UserID: "s1", Date: "2026-08-27", IsPresent: false},
	}
	svc := NewScoringService(repo, zap.NewNop())

	data, err := svc.AcademicData(context.Background(), "s1")
	require.NoError(t, err)
	// 18 of 26 hours present rounds to 69%.
	assert.Equal(t, 69, data.Attendance)
	assert.Equal(t, 9.0, data.CGPA, "mean of 10, 9 and 8")
	assert.Equal(t, 8.0, data.SGPA, "latest semester with records")
	assert.Equal(t, 9, data.Credits, "three end sem records")
	assert.Equal(t, 99, data.GreenPoints)
}

func TestScoringServiceAcademicDataEmpty(t *testing.T) {
	svc := NewScoringService(&mockScoringRepo{}, zap.NewNop())

	data, err := svc.AcademicData(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, &models.AcademicData{}, data)
}
