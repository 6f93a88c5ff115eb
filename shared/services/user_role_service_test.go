package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms-backend/shared/database/models"
)

func TestAssignRoleToUserIsASet(t *testing.T) {
	f := newFixture(t)
	role := f.role("Auditor")
	user := f.user(f.org.ID, "u@acme.test")

	require.NoError(t, f.svc.UserRoles.AssignRoleToUser(f.ctx, f.scope, user.ID, role.ID))
	require.NoError(t, f.svc.UserRoles.AssignRoleToUser(f.ctx, f.scope, user.ID, role.ID))

	assert.EqualValues(t, 1, f.count(&models.UserRole{}, "user_id = ? AND role_id = ?", user.ID, role.ID))
}

func TestRemoveRoleFromUserIsIdempotent(t *testing.T) {
	f := newFixture(t)
	role := f.role("Auditor")
	user := f.user(f.org.ID, "u@acme.test")
	require.NoError(t, f.svc.UserRoles.AssignRoleToUser(f.ctx, f.scope, user.ID, role.ID))

	require.NoError(t, f.svc.UserRoles.RemoveRoleFromUser(f.ctx, f.scope, user.ID, role.ID))
	require.NoError(t, f.svc.UserRoles.RemoveRoleFromUser(f.ctx, f.scope, user.ID, role.ID))

	assert.Zero(t, f.count(&models.UserRole{}, "user_id = ? AND role_id = ?", user.ID, role.ID))
}

func TestAssignRoleRequiresSameOrganizationActiveUser(t *testing.T) {
	f := newFixture(t)
	role := f.role("Auditor")
	outsider := f.user(f.organization("globex").ID, "x@globex.test")

	err := f.svc.UserRoles.AssignRoleToUser(f.ctx, f.scope, outsider.ID, role.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	inactive := f.user(f.org.ID, "gone@acme.test")
	require.NoError(t, f.db.Model(&inactive).Update("status", models.UserStatusInactive).Error)

	err = f.svc.UserRoles.AssignRoleToUser(f.ctx, f.scope, inactive.ID, role.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "user_id", verr.Fields[0].Field)
}

func TestListUsersAndAvailableUsers(t *testing.T) {
	f := newFixture(t)
	role := f.role("Auditor")
	alice := f.user(f.org.ID, "alice@acme.test")
	bob := f.user(f.org.ID, "bob@acme.test")
	f.user(f.organization("globex").ID, "carol@globex.test")

	require.NoError(t, f.svc.UserRoles.AssignRoleToUser(f.ctx, f.scope, alice.ID, role.ID))

	members, err := f.svc.UserRoles.ListUsersForRole(f.ctx, f.scope, role.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, alice.ID, members[0].ID)

	available, err := f.svc.UserRoles.ListAvailableUsers(f.ctx, f.scope, role.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, bob.ID, available[0].ID)

	held, err := f.svc.UserRoles.ListRolesForUser(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, role.ID, held[0].ID)
}

func TestFindUserIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	own := f.user(f.org.ID, "own@acme.test")
	outsider := f.user(f.organization("globex").ID, "x@globex.test")

	got, err := f.svc.UserRoles.FindUser(f.ctx, f.scope, own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.Email, got.Email)

	_, err = f.svc.UserRoles.FindUser(f.ctx, f.scope, outsider.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.UserRoles.FindUser(f.ctx, Scope{AllOrganizations: true}, outsider.ID)
	assert.NoError(t, err)
}

func TestEmptyStatusCountsAsActiveEverywhere(t *testing.T) {
	f := newFixture(t)
	role := f.role("Night Shift")
	legacy := f.user(f.org.ID, "legacy@acme.test")
	require.NoError(t, f.db.Model(&legacy).Update("status", "").Error)

	available, err := f.svc.UserRoles.ListAvailableUsers(f.ctx, f.scope, role.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, legacy.ID, available[0].ID)

	require.NoError(t, f.svc.UserRoles.AssignRoleToUser(f.ctx, f.scope, legacy.ID, role.ID))
	available, err = f.svc.UserRoles.ListAvailableUsers(f.ctx, f.scope, role.ID)
	require.NoError(t, err)
	assert.Empty(t, available)
}
