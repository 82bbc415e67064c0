package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gapt-portal/gapt-api/internal/models"
)

type mockMarkRepo struct {
	batches    map[string]*models.MarkBatch
	records    []models.MarkRecord
	attendance []models.AttendanceRecord
}

func newMockMarkRepo() *mockMarkRepo {
	return &mockMarkRepo{batches: make(map[string]*models.MarkBatch)}
}

func (m *mockMarkRepo) CreateBatch(ctx context.Context, batch *models.MarkBatch) error {
	if batch.ID == "" {
		batch.ID = "batch-" + batch.Name
	}
	copied := *batch
	m.batches[batch.ID] = &copied
	return nil
}

func (m *mockMarkRepo) FindBatch(ctx context.Context, id string) (*models.MarkBatch, error) {
	if b, ok := m.batches[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMarkRepo) ListBatches(ctx context.Context) ([]models.MarkBatch, error) {
	var result []models.MarkBatch
	for _, b := range m.batches {
		result = append(result, *b)
	}
	return result, nil
}

func (m *mockMarkRepo) SetBatchStatus(ctx context.Context, id string, status models.BatchStatus) error {
	b, ok := m.batches[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Status = status
	return nil
}

func (m *mockMarkRepo) UpsertRecord(ctx context.Context, record *models.MarkRecord) error {
	m.records = append(m.records, *record)
	return nil
}

func (m *mockMarkRepo) ListRecordsByBatch(ctx context.Context, batchID string) ([]models.MarkRecord, error) {
	var result []models.MarkRecord
	for _, r := range m.records {
		if r.BatchID == batchID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockMarkRepo) UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error {
	m.attendance = append(m.attendance, *record)
	return nil
}

func TestMarkServiceCreateBatchRequiresSemesterTag(t *testing.T) {
	svc := NewMarkService(newMockMarkRepo(), nil, nil, zap.NewNop())

	_, err := svc.CreateBatch(context.Background(), CreateBatchRequest{
		Name: "Midterm Collection", AcademicYear: "2026-27", Subjects: []string{"Maths"},
	})
	require.Error(t, err)

	batch, err := svc.CreateBatch(context.Background(), CreateBatchRequest{
		Name: "Internal 1 Sem 3", AcademicYear: "2026-27", Subjects: []string{"Maths"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BatchOpen, batch.Status)
}

func TestMarkServiceEnterMarkClosedBatch(t *testing.T) {
	repo := newMockMarkRepo()
	svc := NewMarkService(repo, nil, nil, zap.NewNop())

	batch, err := svc.CreateBatch(context.Background(), CreateBatchRequest{
		Name: "End Sem Sem 1", AcademicYear: "2026-27", Subjects: []string{"Maths"},
	})
	require.NoError(t, err)
	require.NoError(t, svc.SetBatchStatus(context.Background(), batch.ID, models.BatchFrozen))

	_, err = svc.EnterMark(context.Background(), "staff1", EnterMarkRequest{
		BatchID: batch.ID, StudentID: "s1", Subject: "Maths", Marks: 80, MaxMarks: 100,
	})
	require.Error(t, err)
	assert.Empty(t, repo.records)
}

func TestMarkServiceEnterMarkBounds(t *testing.T) {
	repo := newMockMarkRepo()
	svc := NewMarkService(repo, nil, nil, zap.NewNop())

	batch, err := svc.CreateBatch(context.Background(), CreateBatchRequest{
		Name: "End Sem Sem 1", AcademicYear: "2026-27", Subjects: []string{"Maths"},
	})
	require.NoError(t, err)

	_, err = svc.EnterMark(context.Background(), "staff1", EnterMarkRequest{
		BatchID: batch.ID, StudentID: "s1", Subject: "Maths", Marks: 110, MaxMarks: 100,
	})
	require.Error(t, err)

	record, err := svc.EnterMark(context.Background(), "staff1", EnterMarkRequest{
		BatchID: batch.ID, StudentID: "s1", Subject: "Maths", Marks: 90, MaxMarks: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "staff1", record.UpdatedBy)
	assert.Len(t, repo.records, 1)
}

func TestMarkServiceSetBatchStatusUnknownBatch(t *testing.T) {
	svc := NewMarkService(newMockMarkRepo(), nil, nil, zap.NewNop())

	err := svc.SetBatchStatus(context.Background(), "missing", models.BatchBlocked)
	require.Error(t, err)
	err = svc.SetBatchStatus(context.Background(), "missing", models.BatchStatus("ARCHIVED"))
	require.Error(t, err)
}

func TestMarkServicePastAttendanceNeedsAuthority(t *testing.T) {
	repo := newMockMarkRepo()
	requests := newMockRequestRepo()
	approvals := NewApprovalService(&mockApprovalUserRepo{users: map[string]*models.User{}}, requests, nil, zap.NewNop())
	svc := NewMarkService(repo, approvals, nil, zap.NewNop())
	ctx := context.Background()

	record := &models.AttendanceRecord{UserID: "s1", Date: "2026-08-20", IsPresent: true}
	err := svc.MarkAttendance(ctx, "staff1", false, record)
	require.Error(t, err, "a past date without full authority is rejected")

	// Today always writes.
	require.NoError(t, svc.MarkAttendance(ctx, "staff1", true, record))

	petition, err := approvals.RequestAttendanceAuthority(ctx, &models.AttendanceEditRequest{
		RequesterID: "staff1", Date: "2026-08-20",
	})
	require.NoError(t, err)
	for _, authority := range []models.UserRole{models.RoleAdmin, models.RoleDean, models.RoleHOD} {
		_, err = approvals.GrantAttendanceAuthority(ctx, petition.ID, authority, true)
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAttendance(ctx, "staff1", false, record))
	assert.Equal(t, "staff1", repo.attendance[len(repo.attendance)-1].MarkedBy)
}
