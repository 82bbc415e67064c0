package models

import "time"

// RequestStatus is the shared single-decision petition lifecycle.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// Terminal reports whether the petition has been decided.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// CurriculumStatus gates curriculum edits per (batch, department) pair.
type CurriculumStatus string

const (
	CurriculumEditable CurriculumStatus = "EDITABLE"
	CurriculumFrozen   CurriculumStatus = "FROZEN"
)

// CurriculumUnlockRequest is an HOD petition to unlock a curriculum
// registry for editing. One-shot: a decided request never flips again.
type CurriculumUnlockRequest struct {
	ID        string        `db:"id" json:"id"`
	HODID     string        `db:"hod_id" json:"hod_id"`
	HODName   string        `db:"hod_name" json:"hod_name"`
	DeptID    string        `db:"dept_id" json:"dept_id"`
	DeptName  string        `db:"dept_name" json:"dept_name"`
	BatchID   string        `db:"batch_id" json:"batch_id"`
	BatchName string        `db:"batch_name" json:"batch_name"`
	Status    RequestStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// AttendanceEditRequest is the multi-signoff petition for attendance-ledger
// edit authority. The three booleans are independent; each authority owns
// exactly one of them.
type AttendanceEditRequest struct {
	ID            string    `db:"id" json:"id"`
	RequesterID   string    `db:"requester_id" json:"requester_id"`
	RequesterName string    `db:"requester_name" json:"requester_name"`
	DeptName      string    `db:"dept_name" json:"dept_name"`
	Date          string    `db:"date" json:"date"`
	AdminApproved bool      `db:"admin_approved" json:"admin_approved"`
	DeanApproved  bool      `db:"dean_approved" json:"dean_approved"`
	HODApproved   bool      `db:"hod_approved" json:"hod_approved"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// FullyAuthorized is derived on every read, never persisted.
func (r AttendanceEditRequest) FullyAuthorized() bool {
	return r.AdminApproved && r.DeanApproved && r.HODApproved
}
