package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// BatchStatus controls whether a mark batch accepts entries.
type BatchStatus string

const (
	BatchOpen    BatchStatus = "OPEN"
	BatchFrozen  BatchStatus = "FROZEN"
	BatchBlocked BatchStatus = "BLOCKED"
)

// MarkBatch groups mark records under a named assessment. The name encodes
// the semester and exam type via substring tags ("Internal 1 Sem 3",
// "End Sem Sem 3"); that encoding is the only linkage between a batch and
// its semester semantics.
type MarkBatch struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	AcademicYear string         `db:"academic_year" json:"academic_year"`
	Status       BatchStatus    `db:"status" json:"status"`
	Subjects     pq.StringArray `db:"subjects" json:"subjects"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// MarkRecord is a single subject score inside a batch.
type MarkRecord struct {
	ID        string    `db:"id" json:"id"`
	BatchID   string    `db:"batch_id" json:"batch_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Subject   string    `db:"subject" json:"subject"`
	Marks     float64   `db:"marks" json:"marks"`
	MaxMarks  float64   `db:"max_marks" json:"max_marks"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord is one day of a user's attendance ledger. Hours carries
// the per-hour breakdown as stored JSON; legacy rows without it count as a
// whole day.
type AttendanceRecord struct {
	ID        string          `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Date      string          `db:"date" json:"date"`
	IsPresent bool            `db:"is_present" json:"is_present"`
	Hours     json.RawMessage `db:"hours" json:"hours,omitempty"`
	MarkedBy  string          `db:"marked_by" json:"marked_by"`
}

// HourAttendance is one hour slot within an attendance record.
type HourAttendance struct {
	Hour   int    `json:"hour"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// AcademicData is the derived scalar summary for one student. Never
// directly authored.
type AcademicData struct {
	Attendance  int     `json:"attendance"`
	CGPA        float64 `json:"cgpa"`
	SGPA        float64 `json:"sgpa"`
	Credits     int     `json:"credits"`
	GreenPoints int     `json:"greenPoints"`
}

// TrajectoryPoint is one point of the CGPA trajectory series.
type TrajectoryPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"val"`
}

// SubjectScores is the per-subject Internal-1 / Internal-2 / End-Sem
// breakdown for a semester.
type SubjectScores struct {
	Subject   string  `json:"subject"`
	Internal1 float64 `json:"i1"`
	Internal2 float64 `json:"i2"`
	EndSem    float64 `json:"es"`
}

// AdvisoryReport is the AI-advisory collaborator's output contract.
type AdvisoryReport struct {
	Summary           string   `json:"summary"`
	Suggestions       []string `json:"suggestions"`
	GreenImpactRating float64  `json:"greenImpactRating"`
}
