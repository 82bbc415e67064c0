package models

import "time"

// UserRole represents the closed set of portal roles.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleDean       UserRole = "DEAN"
	RoleHOD        UserRole = "HOD"
	RoleStaff      UserRole = "STAFF"
	RoleStudent    UserRole = "STUDENT"
	RoleAssocProf1 UserRole = "ASSOC_PROF_I"
	RoleAssocProf2 UserRole = "ASSOC_PROF_II"
	RoleAssocProf3 UserRole = "ASSOC_PROF_III"
)

// AllRoles lists every role with a permission row of its own.
var AllRoles = []UserRole{RoleAdmin, RoleDean, RoleHOD, RoleStaff, RoleStudent, RoleAssocProf1, RoleAssocProf2, RoleAssocProf3}

// IsStaffVariant reports whether the role is any of the staff-side roles.
func (r UserRole) IsStaffVariant() bool {
	switch r {
	case RoleDean, RoleHOD, RoleStaff, RoleAssocProf1, RoleAssocProf2, RoleAssocProf3:
		return true
	}
	return false
}

// UserStatus tracks the onboarding decision. PENDING is the only
// non-terminal state.
type UserStatus string

const (
	StatusPending  UserStatus = "PENDING"
	StatusApproved UserStatus = "APPROVED"
	StatusRejected UserStatus = "REJECTED"
)

// Terminal reports whether the onboarding decision has been made.
func (s UserStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// PasswordViewStatus is the credential-reveal petition state machine.
type PasswordViewStatus string

const (
	RevealNone     PasswordViewStatus = "NONE"
	RevealPending  PasswordViewStatus = "PENDING"
	RevealApproved PasswordViewStatus = "APPROVED"
	RevealRejected PasswordViewStatus = "REJECTED"
)

// User represents an institutional account.
//
// Credential holds the current password value; it stays readable so the
// credential-reveal workflow can expose it after approval. PasswordHash is
// what login verifies against.
type User struct {
	ID           string             `db:"id" json:"id"`
	Email        string             `db:"email" json:"email"`
	FullName     string             `db:"full_name" json:"full_name"`
	Credential   string             `db:"credential" json:"-"`
	PasswordHash string             `db:"password_hash" json:"-"`
	Role         UserRole           `db:"role" json:"role"`
	Status       UserStatus         `db:"status" json:"status"`
	Department   string             `db:"department" json:"department,omitempty"`
	StudyYear    string             `db:"study_year" json:"study_year,omitempty"`
	RegNo        string             `db:"reg_no" json:"reg_no,omitempty"`
	Designation  string             `db:"designation" json:"designation,omitempty"`
	Experience   string             `db:"experience" json:"experience,omitempty"`
	MentorID     *string            `db:"mentor_id" json:"mentor_id,omitempty"`
	Mentor2ID    *string            `db:"mentor2_id" json:"mentor2_id,omitempty"`
	RevealStatus PasswordViewStatus `db:"reveal_status" json:"password_view_request_status"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role       *UserRole
	Status     *UserStatus
	Department string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
