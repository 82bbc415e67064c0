package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gapt-portal/gapt-api/internal/models"
	appErrors "github.com/gapt-portal/gapt-api/pkg/errors"
)

type markRepository interface {
	CreateBatch(ctx context.Context, batch *models.MarkBatch) error
	FindBatch(ctx context.Context, id string) (*models.MarkBatch, error)
	ListBatches(ctx context.Context) ([]models.MarkBatch, error)
	SetBatchStatus(ctx context.Context, id string, status models.BatchStatus) error
	UpsertRecord(ctx context.Context, record *models.MarkRecord) error
	ListRecordsByBatch(ctx context.Context, batchID string) ([]models.MarkRecord, error)
	UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error
}

// CreateBatchRequest holds the payload for opening an assessment batch.
type CreateBatchRequest struct {
	Name         string   `json:"name" validate:"required"`
	AcademicYear string   `json:"academic_year" validate:"required"`
	Subjects     []string `json:"subjects" validate:"required,min=1"`
}

// EnterMarkRequest holds the payload for one subject score.
type EnterMarkRequest struct {
	BatchID   string  `json:"batch_id" validate:"required"`
	StudentID string  `json:"student_id" validate:"required"`
	Subject   string  `json:"subject" validate:"required"`
	Marks     float64 `json:"marks" validate:"gte=0"`
	MaxMarks  float64 `json:"max_marks" validate:"gt=0"`
}

// MarkService manages assessment batches and score entry.
type MarkService struct {
	repo      markRepository
	approvals *ApprovalService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarkService constructs the mark service.
func NewMarkService(repo markRepository, approvals *ApprovalService, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{repo: repo, approvals: approvals, validator: validate, logger: logger}
}

// CreateBatch opens a new assessment batch. The name must carry a
// semester tag, since scoring resolves semesters by name alone.
func (s *MarkService) CreateBatch(ctx context.Context, req CreateBatchRequest) (*models.MarkBatch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if _, ok := SemesterOf(req.Name); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch name must carry a semester tag")
	}
	batch := &models.MarkBatch{
		Name:         req.Name,
		AcademicYear: req.AcademicYear,
		Status:       models.BatchOpen,
		Subjects:     req.Subjects,
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	s.logger.Info("assessment batch opened", zap.String("name", batch.Name))
	return batch, nil
}

// ListBatches returns all assessment batches.
func (s *MarkService) ListBatches(ctx context.Context) ([]models.MarkBatch, error) {
	batches, err := s.repo.ListBatches(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, nil
}

// SetBatchStatus flips a batch between OPEN, FROZEN and BLOCKED.
func (s *MarkService) SetBatchStatus(ctx context.Context, id string, status models.BatchStatus) error {
	switch status {
	case models.BatchOpen, models.BatchFrozen, models.BatchBlocked:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown batch status")
	}
	if err := s.repo.SetBatchStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update batch status")
	}
	return nil
}

// EnterMark records one subject score. Frozen and blocked batches reject
// entries.
func (s *MarkService) EnterMark(ctx context.Context, updatedBy string, req EnterMarkRequest) (*models.MarkRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark payload")
	}
	batch, err := s.repo.FindBatch(ctx, req.BatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	if batch.Status != models.BatchOpen {
		return nil, appErrors.Clone(appErrors.ErrConflict, "batch is not open for entry")
	}
	if req.Marks > req.MaxMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "marks exceed the maximum")
	}

	record := &models.MarkRecord{
		BatchID:   req.BatchID,
		StudentID: req.StudentID,
		Subject:   req.Subject,
		Marks:     req.Marks,
		MaxMarks:  req.MaxMarks,
		UpdatedBy: updatedBy,
	}
	if err := s.repo.UpsertRecord(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record mark")
	}
	return record, nil
}

// ListBatchRecords returns every score inside one batch.
func (s *MarkService) ListBatchRecords(ctx context.Context, batchID string) ([]models.MarkRecord, error) {
	records, err := s.repo.ListRecordsByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batch records")
	}
	return records, nil
}

// MarkAttendance writes one day of a user's attendance ledger. Editing a
// past day requires full edit authority for that date.
func (s *MarkService) MarkAttendance(ctx context.Context, markedBy string, today bool, record *models.AttendanceRecord) error {
	if !today && s.approvals != nil {
		authorized, err := s.approvals.AttendanceAuthorityFor(ctx, markedBy, record.Date)
		if err != nil {
			return err
		}
		if !authorized {
			return appErrors.Clone(appErrors.ErrForbidden, "attendance edit authority not granted for this date")
		}
	}
	record.MarkedBy = markedBy
	if err := s.repo.UpsertAttendance(ctx, record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return nil
}
