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

type mockApprovalUserRepo struct {
	users map[string]*models.User
}

func (m *mockApprovalUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApprovalUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockApprovalUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var result []models.User
	for _, u := range m.users {
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		result = append(result, *u)
	}
	return result, len(result), nil
}

func (m *mockApprovalUserRepo) ListPendingReveal(ctx context.Context) ([]models.User, error) {
	var result []models.User
	for _, u := range m.users {
		if u.RevealStatus == models.RevealPending {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockApprovalUserRepo) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	m.users[id].Status = status
	return nil
}

func (m *mockApprovalUserRepo) UpdateRevealStatus(ctx context.Context, id string, status models.PasswordViewStatus) error {
	m.users[id].RevealStatus = status
	return nil
}

func (m *mockApprovalUserRepo) UpdateCredential(ctx context.Context, id, credential, passwordHash string) error {
	m.users[id].Credential = credential
	m.users[id].PasswordHash = passwordHash
	return nil
}

type mockRequestRepo struct {
	unlocks    map[string]*models.CurriculumUnlockRequest
	curriculum map[string]models.CurriculumStatus
	attendance map[string]*models.AttendanceEditRequest
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{
		unlocks:    make(map[string]*models.CurriculumUnlockRequest),
		curriculum: make(map[string]models.CurriculumStatus),
		attendance: make(map[string]*models.AttendanceEditRequest),
	}
}

func (m *mockRequestRepo) CreateUnlockRequest(ctx context.Context, req *models.CurriculumUnlockRequest) error {
	if req.ID == "" {
		req.ID = "req-" + req.BatchID + "-" + req.DeptID
	}
	copied := *req
	m.unlocks[req.ID] = &copied
	return nil
}

func (m *mockRequestRepo) FindUnlockRequest(ctx context.Context, id string) (*models.CurriculumUnlockRequest, error) {
	if r, ok := m.unlocks[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestRepo) ListUnlockRequests(ctx context.Context, status *models.RequestStatus) ([]models.CurriculumUnlockRequest, error) {
	var result []models.CurriculumUnlockRequest
	for _, r := range m.unlocks {
		if status != nil && r.Status != *status {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockRequestRepo) DecideUnlockRequest(ctx context.Context, id string, status models.RequestStatus, batchID, deptID string, curriculum models.CurriculumStatus) error {
	m.unlocks[id].Status = status
	m.curriculum[batchID+"/"+deptID] = curriculum
	return nil
}

func (m *mockRequestRepo) CurriculumStatus(ctx context.Context, batchID, deptID string) (models.CurriculumStatus, error) {
	if s, ok := m.curriculum[batchID+"/"+deptID]; ok {
		return s, nil
	}
	return models.CurriculumFrozen, nil
}

func (m *mockRequestRepo) UpsertAttendanceRequest(ctx context.Context, req *models.AttendanceEditRequest) error {
	if req.ID == "" {
		req.ID = "att-" + req.RequesterID + "-" + req.Date
	}
	copied := *req
	m.attendance[req.ID] = &copied
	return nil
}

func (m *mockRequestRepo) FindAttendanceRequest(ctx context.Context, id string) (*models.AttendanceEditRequest, error) {
	if r, ok := m.attendance[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestRepo) GetAttendanceRequest(ctx context.Context, requesterID, date string) (*models.AttendanceEditRequest, error) {
	for _, r := range m.attendance {
		if r.RequesterID == requesterID && r.Date == date {
			copied := *r
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestRepo) ListAttendanceRequests(ctx context.Context) ([]models.AttendanceEditRequest, error) {
	var result []models.AttendanceEditRequest
	for _, r := range m.attendance {
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockRequestRepo) SetAuthorityFlag(ctx context.Context, id string, authority models.UserRole, approved bool) error {
	r, ok := m.attendance[id]
	if !ok {
		return sql.ErrNoRows
	}
	switch authority {
	case models.RoleAdmin:
		r.AdminApproved = approved
	case models.RoleDean:
		r.DeanApproved = approved
	case models.RoleHOD:
		r.HODApproved = approved
	}
	return nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID *string, message, notificationType string) {
	n.messages = append(n.messages, message)
}

func TestApprovalServiceOnboardingTerminalNoOp(t *testing.T) {
	users := &mockApprovalUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Status: models.StatusApproved},
	}}
	svc := NewApprovalService(users, newMockRequestRepo(), &recordingNotifier{}, zap.NewNop())

	_, err := svc.DecideOnboarding(context.Background(), "u1", false)
	require.Error(t, err)
	assert.Equal(t, models.StatusApproved, users.users["u1"].Status, "a decided account must never flip")
}

func TestApprovalServiceOnboardingMissingAccount(t *testing.T) {
	svc := NewApprovalService(&mockApprovalUserRepo{users: map[string]*models.User{}}, newMockRequestRepo(), nil, zap.NewNop())

	_, err := svc.DecideOnboarding(context.Background(), "ghost", true)
	require.Error(t, err)
}

func TestApprovalServiceOnboardingApproveNotifies(t *testing.T) {
	users := &mockApprovalUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Status: models.StatusPending},
	}}
	notifier := &recordingNotifier{}
	svc := NewApprovalService(users, newMockRequestRepo(), notifier, zap.NewNop())

	user, err := svc.DecideOnboarding(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, user.Status)
	assert.Len(t, notifier.messages, 1)
}

func TestApprovalServiceCurriculumUnlockPair(t *testing.T) {
	requests := newMockRequestRepo()
	users := &mockApprovalUserRepo{users: map[string]*models.User{}}
	svc := NewApprovalService(users, requests, &recordingNotifier{}, zap.NewNop())

	petition := &models.CurriculumUnlockRequest{HODID: "hod1", BatchID: "b1", DeptID: "d1", BatchName: "2028", DeptName: "Computer Science"}
	require.NoError(t, svc.RequestCurriculumUnlock(context.Background(), petition))

	// Approval flips exactly the petition's own registry.
	decided, err := svc.DecideCurriculumUnlock(context.Background(), petition.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, decided.Status)

	status, err := svc.CurriculumStatus(context.Background(), "b1", "d1")
	require.NoError(t, err)
	assert.Equal(t, models.CurriculumEditable, status)

	other, err := svc.CurriculumStatus(context.Background(), "b2", "d1")
	require.NoError(t, err)
	assert.Equal(t, models.CurriculumFrozen, other, "an unrelated registry must stay frozen")

	// Second decision on the same petition is a terminal no-op.
	_, err = svc.DecideCurriculumUnlock(context.Background(), petition.ID, false)
	require.Error(t, err)
	status, _ = svc.CurriculumStatus(context.Background(), "b1", "d1")
	assert.Equal(t, models.CurriculumEditable, status)
}

func TestApprovalServiceCurriculumRejectKeepsFrozen(t *testing.T) {
	requests := newMockRequestRepo()
	notifier := &recordingNotifier{}
	svc := NewApprovalService(&mockApprovalUserRepo{users: map[string]*models.User{}}, requests, notifier, zap.NewNop())

	petition := &models.CurriculumUnlockRequest{HODID: "hod1", BatchID: "b1", DeptID: "d1"}
	require.NoError(t, svc.RequestCurriculumUnlock(context.Background(), petition))
	_, err := svc.DecideCurriculumUnlock(context.Background(), petition.ID, false)
	require.NoError(t, err)

	status, err := svc.CurriculumStatus(context.Background(), "b1", "d1")
	require.NoError(t, err)
	assert.Equal(t, models.CurriculumFrozen, status)
	assert.Len(t, notifier.messages, 1, "the submitting HOD hears about either outcome")
}

func TestApprovalServiceDuplicatePendingUnlockRejected(t *testing.T) {
	requests := newMockRequestRepo()
	svc := NewApprovalService(&mockApprovalUserRepo{users: map[string]*models.User{}}, requests, nil, zap.NewNop())

	first := &models.CurriculumUnlockRequest{HODID: "hod1", BatchID: "b1", DeptID: "d1"}
	require.NoError(t, svc.RequestCurriculumUnlock(context.Background(), first))
	second := &models.CurriculumUnlockRequest{HODID: "hod1", BatchID: "b1", DeptID: "d1"}
	require.Error(t, svc.RequestCurriculumUnlock(context.Background(), second))
}

func TestApprovalServiceAttendanceCommutative(t *testing.T) {
	authorities := []models.UserRole{models.RoleAdmin, models.RoleDean, models.RoleHOD}
	permutations := [][]models.UserRole{
		{authorities[0], authorities[1], authorities[2]},
		{authorities[0], authorities[2], authorities[1]},
		{authorities[1], authorities[0], authorities[2]},
		{authorities[1], authorities[2], authorities[0]},
		{authorities[2], authorities[0], authorities[1]},
		{authorities[2], authorities[1], authorities[0]},
	}

	for _, order := range permutations {
		requests := newMockRequestRepo()
		svc := NewApprovalService(&mockApprovalUserRepo{users: map[string]*models.User{}}, requests, &recordingNotifier{}, zap.NewNop())

		petition, err := svc.RequestAttendanceAuthority(context.Background(), &models.AttendanceEditRequest{
			RequesterID: "staff1", RequesterName: "Staff One", DeptName: "Computer Science", Date: "2026-08-30",
		})
		require.NoError(t, err)

		var final *models.AttendanceEditRequest
		for _, authority := range order {
			final, err = svc.GrantAttendanceAuthority(context.Background(), petition.ID, authority, true)
			require.NoError(t, err)
		}
		assert.True(t, final.FullyAuthorized(), "order %v must reach full authority", order)

		authorized, err := svc.AttendanceAuthorityFor(context.Background(), "staff1", "2026-08-30")
		require.NoError(t, err)
		assert.True(t, authorized)
	}
}

func TestApprovalServicePartialAuthorityNotFull(t *testing.T) {
	requests := newMockRequestRepo()
	notifier := &recordingNotifier{}
	svc := NewApprovalService(&mockApprovalUserRepo{users: map[string]*models.User{}}, requests, notifier, zap.NewNop())

	petition, err := svc.RequestAttendanceAuthority(context.Background(), &models.AttendanceEditRequest{
		RequesterID: "staff1", Date: "2026-08-30",
	})
	require.NoError(t, err)

	updated, err := svc.GrantAttendanceAuthority(context.Background(), petition.ID, models.RoleAdmin, true)
	require.NoError(t, err)
	assert.False(t, updated.FullyAuthorized())
	assert.Len(t, notifier.messages, 1, "every positive decision reaches the requester")

	updated, err = svc.GrantAttendanceAuthority(context.Background(), petition.ID, models.RoleDean, true)
	require.NoError(t, err)
	assert.False(t, updated.FullyAuthorized())
	assert.True(t, updated.AdminApproved, "an earlier authority's flag must survive later decisions")
	assert.Len(t, notifier.messages, 2)

	_, err = svc.GrantAttendanceAuthority(context.Background(), petition.ID, models.RoleHOD, false)
	require.NoError(t, err)
	assert.Len(t, notifier.messages, 2, "a negative decision stays silent")
}

func TestApprovalServiceAttendanceAuthorityRoleGuard(t *testing.T) {
	requests := newMockRequestRepo()
	svc := NewApprovalService(&mockApprovalUserRepo{users: map[string]*models.User{}}, requests, nil, zap.NewNop())

	petition, err := svc.RequestAttendanceAuthority(context.Background(), &models.AttendanceEditRequest{
		RequesterID: "staff1", Date: "2026-08-30",
	})
	require.NoError(t, err)

	_, err = svc.GrantAttendanceAuthority(context.Background(), petition.ID, models.RoleStudent, true)
	require.Error(t, err)
}

func TestApprovalServiceHODQueueFilteredByDepartment(t *testing.T) {
	requests := newMockRequestRepo()
	svc := NewApprovalService(&mockApprovalUserRepo{users: map[string]*models.User{}}, requests, nil, zap.NewNop())

	for _, req := range []*models.AttendanceEditRequest{
		{RequesterID: "s1", DeptName: "Computer Science (B.Tech)", Date: "2026-08-30"},
		{RequesterID: "s2", DeptName: "Computer Science", Date: "2026-08-30"},
		{RequesterID: "s3", DeptName: "Mechanical Engineering", Date: "2026-08-30"},
	} {
		_, err := svc.RequestAttendanceAuthority(context.Background(), req)
		require.NoError(t, err)
	}

	queue, err := svc.ListAttendanceAuthority(context.Background(), models.RoleHOD, "Computer Science (M.Tech)")
	require.NoError(t, err)
	assert.Len(t, queue, 2, "degree-tagged variants of the same department share a queue")

	all, err := svc.ListAttendanceAuthority(context.Background(), models.RoleDean, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestApprovalServiceQueueDropsOwnSignedRequests(t *testing.T) {
	requests := newMockRequestRepo()
	svc := NewApprovalService(&mockApprovalUserRepo{users: map[string]*models.User{}}, requests, &recordingNotifier{}, zap.NewNop())
	ctx := context.Background()

	petition, err := svc.RequestAttendanceAuthority(ctx, &models.AttendanceEditRequest{
		RequesterID: "s1", DeptName: "Computer Science", Date: "2026-08-30",
	})
	require.NoError(t, err)

	_, err = svc.GrantAttendanceAuthority(ctx, petition.ID, models.RoleAdmin, true)
	require.NoError(t, err)

	adminQueue, err := svc.ListAttendanceAuthority(ctx, models.RoleAdmin, "")
	require.NoError(t, err)
	assert.Empty(t, adminQueue, "a signed petition leaves the signer's queue")

	deanQueue, err := svc.ListAttendanceAuthority(ctx, models.RoleDean, "")
	require.NoError(t, err)
	assert.Len(t, deanQueue, 1, "other authorities still owe their flag")

	hodQueue, err := svc.ListAttendanceAuthority(ctx, models.RoleHOD, "Computer Science")
	require.NoError(t, err)
	assert.Len(t, hodQueue, 1)
}

func TestApprovalServicePetitionCredentialRevealByEmail(t *testing.T) {
	users := &mockApprovalUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "jai.std.cs@bitsathy.ac.in", Credential: "stdbitsathy", RevealStatus: models.RevealNone},
	}}
	svc := NewApprovalService(users, newMockRequestRepo(), nil, zap.NewNop())
	ctx := context.Background()

	state, err := svc.PetitionCredentialReveal(ctx, "jai.std.cs@bitsathy.ac.in")
	require.NoError(t, err)
	assert.Equal(t, models.RevealPending, state.Status)
	assert.Empty(t, state.Credential)
	assert.Equal(t, models.RevealPending, users.users["u1"].RevealStatus)

	// Following up on a pending petition is idempotent.
	state, err = svc.PetitionCredentialReveal(ctx, "jai.std.cs@bitsathy.ac.in")
	require.NoError(t, err)
	assert.Equal(t, models.RevealPending, state.Status)

	require.NoError(t, svc.DecideCredentialReveal(ctx, "u1", true))
	state, err = svc.PetitionCredentialReveal(ctx, "jai.std.cs@bitsathy.ac.in")
	require.NoError(t, err)
	assert.Equal(t, models.RevealApproved, state.Status)
	assert.Equal(t, "stdbitsathy", state.Credential)

	_, err = svc.PetitionCredentialReveal(ctx, "ghost@bitsathy.ac.in")
	require.Error(t, err)
}

func TestApprovalServiceCredentialRevealFlow(t *testing.T) {
	users := &mockApprovalUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Credential: "secret-pass", RevealStatus: models.RevealNone},
	}}
	svc := NewApprovalService(users, newMockRequestRepo(), nil, zap.NewNop())
	ctx := context.Background()

	// Not yet approved.
	_, err := svc.RevealCredential(ctx, "u1")
	require.Error(t, err)

	require.NoError(t, svc.RequestCredentialReveal(ctx, "u1"))
	assert.Equal(t, models.RevealPending, users.users["u1"].RevealStatus)

	// A second petition while pending is a conflict.
	require.Error(t, svc.RequestCredentialReveal(ctx, "u1"))

	require.NoError(t, svc.DecideCredentialReveal(ctx, "u1", true))
	credential, err := svc.RevealCredential(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "secret-pass", credential)

	// Approval persists until the holder rotates the credential.
	credential, err = svc.RevealCredential(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "secret-pass", credential)

	require.NoError(t, svc.ResetCredential(ctx, "u1", "fresh-secret"))
	assert.Equal(t, models.RevealNone, users.users["u1"].RevealStatus)
	_, err = svc.RevealCredential(ctx, "u1")
	require.Error(t, err)
}

func TestApprovalServiceRevealDecisionRequiresPending(t *testing.T) {
	users := &mockApprovalUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", RevealStatus: models.RevealNone},
	}}
	svc := NewApprovalService(users, newMockRequestRepo(), nil, zap.NewNop())

	err := svc.DecideCredentialReveal(context.Background(), "u1", true)
	require.Error(t, err)
}
