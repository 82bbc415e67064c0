package models

// Feature is an enumerated portal capability.
type Feature string

const (
	FeatureUserDirectory      Feature = "USER_DIRECTORY"
	FeatureStaffDirectory     Feature = "STAFF_DIRECTORY"
	FeatureStudentDirectory   Feature = "STUDENT_DIRECTORY"
	FeatureCohortRegistry     Feature = "COHORT_REGISTRY"
	FeatureAccessRequests     Feature = "ACCESS_REQUESTS"
	FeatureIdentityCreator    Feature = "IDENTITY_CREATOR"
	FeatureInterlinkControl   Feature = "INTERLINK_CONTROL"
	FeatureBrandingHub        Feature = "BRANDING_HUB"
	FeatureAccessMatrix       Feature = "ACCESS_MATRIX"
	FeatureMarkEntry          Feature = "MARK_ENTRY"
	FeatureAttendanceTracking Feature = "ATTENDANCE_TRACKING"
	FeatureStudyMaterials     Feature = "STUDY_MATERIALS"
	FeatureStaffAssignment    Feature = "STAFF_ASSIGNMENT"
	FeatureLeaveManagement    Feature = "LEAVE_MANAGEMENT"
	FeatureAssignments        Feature = "ASSIGNMENTS"
	FeatureAcademicAnalytics  Feature = "ACADEMIC_ANALYTICS"
	FeatureGreenInsights      Feature = "GREEN_INSIGHTS"
	FeatureMentorAssignment   Feature = "MENTOR_ASSIGNMENT"
)

// AllFeatures lists every feature the matrix governs.
var AllFeatures = []Feature{
	FeatureUserDirectory,
	FeatureStaffDirectory,
	FeatureStudentDirectory,
	FeatureCohortRegistry,
	FeatureAccessRequests,
	FeatureIdentityCreator,
	FeatureInterlinkControl,
	FeatureBrandingHub,
	FeatureAccessMatrix,
	FeatureMarkEntry,
	FeatureAttendanceTracking,
	FeatureStudyMaterials,
	FeatureStaffAssignment,
	FeatureLeaveManagement,
	FeatureAssignments,
	FeatureAcademicAnalytics,
	FeatureGreenInsights,
	FeatureMentorAssignment,
}

// AccessLevel is the permission grant for a feature. NoAccess is the only
// value that hides a feature entirely.
type AccessLevel string

const (
	NoAccess             AccessLevel = "NO_ACCESS"
	ViewAll              AccessLevel = "VIEW_ALL"
	EditStudents         AccessLevel = "EDIT_STUDENTS"
	EditStaff            AccessLevel = "EDIT_STAFF"
	EditHOD              AccessLevel = "EDIT_HOD"
	EditDean             AccessLevel = "EDIT_DEAN"
	EditStaffStudents    AccessLevel = "EDIT_STAFF_STUDENTS"
	EditHODStaff         AccessLevel = "EDIT_HOD_STAFF"
	EditHODStaffStudents AccessLevel = "EDIT_HOD_STAFF_STUDENTS"
	EditAll              AccessLevel = "EDIT_ALL"
)

// ValidAccessLevels is the closed set accepted by matrix updates.
var ValidAccessLevels = map[AccessLevel]struct{}{
	NoAccess:             {},
	ViewAll:              {},
	EditStudents:         {},
	EditStaff:            {},
	EditHOD:              {},
	EditDean:             {},
	EditStaffStudents:    {},
	EditHODStaff:         {},
	EditHODStaffStudents: {},
	EditAll:              {},
}

// PermissionMap maps features to grants for a single role.
type PermissionMap map[Feature]AccessLevel

// PermissionRow is a single matrix cell as stored.
type PermissionRow struct {
	Role    UserRole    `db:"role" json:"role"`
	Feature Feature     `db:"feature" json:"feature"`
	Level   AccessLevel `db:"level" json:"level"`
}

// DefaultPermissions returns the seed matrix. Roles absent from the map
// resolve everything to NO_ACCESS; the specialised professor roles inherit
// the plain staff map.
func DefaultPermissions() map[UserRole]PermissionMap {
	admin := make(PermissionMap, len(AllFeatures))
	for _, f := range AllFeatures {
		admin[f] = EditAll
	}

	staff := PermissionMap{
		FeatureUserDirectory:      EditStudents,
		FeatureStaffDirectory:     ViewAll,
		FeatureStudentDirectory:   ViewAll,
		FeatureCohortRegistry:     NoAccess,
		FeatureAccessRequests:     NoAccess,
		FeatureIdentityCreator:    NoAccess,
		FeatureInterlinkControl:   NoAccess,
		FeatureBrandingHub:        NoAccess,
		FeatureAccessMatrix:       NoAccess,
		FeatureMarkEntry:          NoAccess,
		FeatureAttendanceTracking: EditAll,
		FeatureStudyMaterials:     EditAll,
		FeatureStaffAssignment:    ViewAll,
		FeatureLeaveManagement:    EditAll,
		FeatureAssignments:        EditAll,
		FeatureAcademicAnalytics:  ViewAll,
		FeatureGreenInsights:      ViewAll,
		FeatureMentorAssignment:   NoAccess,
	}

	return map[UserRole]PermissionMap{
		RoleAdmin: admin,
		RoleDean: {
			FeatureUserDirectory:      EditHODStaffStudents,
			FeatureStaffDirectory:     ViewAll,
			FeatureStudentDirectory:   ViewAll,
			FeatureCohortRegistry:     ViewAll,
			FeatureAccessRequests:     NoAccess,
			FeatureIdentityCreator:    ViewAll,
			FeatureInterlinkControl:   ViewAll,
			FeatureBrandingHub:        ViewAll,
			FeatureAccessMatrix:       NoAccess,
			FeatureMarkEntry:          ViewAll,
			FeatureAttendanceTracking: ViewAll,
			FeatureStudyMaterials:     ViewAll,
			FeatureStaffAssignment:    ViewAll,
			FeatureLeaveManagement:    EditAll,
			FeatureAssignments:        ViewAll,
			FeatureAcademicAnalytics:  ViewAll,
			FeatureGreenInsights:      ViewAll,
			FeatureMentorAssignment:   ViewAll,
		},
		RoleHOD: {
			FeatureUserDirectory:      EditStaffStudents,
			FeatureStaffDirectory:     ViewAll,
			FeatureStudentDirectory:   ViewAll,
			FeatureCohortRegistry:     ViewAll,
			FeatureAccessRequests:     NoAccess,
			FeatureIdentityCreator:    NoAccess,
			FeatureInterlinkControl:   NoAccess,
			FeatureBrandingHub:        NoAccess,
			FeatureAccessMatrix:       NoAccess,
			FeatureMarkEntry:          EditAll,
			FeatureAttendanceTracking: EditAll,
			FeatureStudyMaterials:     EditAll,
			FeatureStaffAssignment:    EditAll,
			FeatureLeaveManagement:    EditAll,
			FeatureAssignments:        EditAll,
			FeatureAcademicAnalytics:  ViewAll,
			FeatureGreenInsights:      ViewAll,
			FeatureMentorAssignment:   EditAll,
		},
		RoleStaff:      staff,
		RoleAssocProf1: staff,
		RoleAssocProf2: staff,
		RoleAssocProf3: staff,
		RoleStudent: {
			FeatureUserDirectory:      ViewAll,
			FeatureStaffDirectory:     ViewAll,
			FeatureStudentDirectory:   ViewAll,
			FeatureCohortRegistry:     NoAccess,
			FeatureAccessRequests:     NoAccess,
			FeatureIdentityCreator:    NoAccess,
			FeatureInterlinkControl:   NoAccess,
			FeatureBrandingHub:        NoAccess,
			FeatureAccessMatrix:       NoAccess,
			FeatureMarkEntry:          NoAccess,
			FeatureAttendanceTracking: NoAccess,
			FeatureStudyMaterials:     ViewAll,
			FeatureStaffAssignment:    NoAccess,
			FeatureLeaveManagement:    EditAll,
			FeatureAssignments:        NoAccess,
			FeatureAcademicAnalytics:  ViewAll,
			FeatureGreenInsights:      ViewAll,
			FeatureMentorAssignment:   NoAccess,
		},
	}
}
