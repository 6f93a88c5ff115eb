package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms-backend/shared/database/models"
)

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }
func intPtr(i int) *int { return &i }
func uuidPtr(u uuid.UUID) *uuid.UUID { return &u }

func TestCreateRoleAcceptsValidKey(t *testing.T) {
	f := newFixture(t)

	role, err := f.svc.Roles.CreateRole(f.ctx, f.scope, CreateRoleInput{
		RoleName: "Floor Supervisor",
		RoleKey:  "floor_supervisor",
	})
	require.NoError(t, err)
	assert.Equal(t, f.org.ID, role.OrganizationID)
	assert.Equal(t, "floor_supervisor", role.RoleKey)
	assert.True(t, role.IsActive)
	assert.False(t, role.IsSystemRole)
	assert.Equal(t, 1, role.Version)
}

func TestCreateRoleDerivesKeyFromName(t *testing.T) {
	f := newFixture(t)

	role := f.role("  Night Shift Lead ")
	assert.Equal(t, "Night Shift Lead", role.RoleName)
	assert.Equal(t, "night_shift_lead", role.RoleKey)
}

func TestCreateRoleRejectsMalformedKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Roles.CreateRole(f.ctx, f.scope, CreateRoleInput{
		RoleName: "Floor Supervisor",
		RoleKey:  "Floor-Supervisor",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "role_key", verr.Fields[0].Field)
	assert.Zero(t, f.count(&models.Role{}, "organization_id = ?", f.org.ID))
}

func TestCreateRoleListsEveryViolatedField(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Roles.CreateRole(f.ctx, f.scope, CreateRoleInput{RoleName: " ab ", RoleKey: "Bad Key"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := []string{}
	for _, fe := range verr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"role_name", "role_key"}, fields)
}

func TestCreateRoleDuplicateKeyConflicts(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Roles.CreateRole(f.ctx, f.scope, CreateRoleInput{RoleName: "Manager", RoleKey: "manager"})
	require.NoError(t, err)

	_, err = f.svc.Roles.CreateRole(f.ctx, f.scope, CreateRoleInput{RoleName: "Another Manager", RoleKey: "manager"})
	assert.ErrorIs(t, err, ErrConflict)

	// same key in another organization is fine
	other := f.organization("globex")
	_, err = f.svc.Roles.CreateRole(f.ctx, Scope{OrganizationID: other.ID}, CreateRoleInput{RoleName: "Manager", RoleKey: "manager"})
	assert.NoError(t, err)
}

func TestCreateRoleInactive(t *testing.T) {
	f := newFixture(t)

	role, err := f.svc.Roles.CreateRole(f.ctx, f.scope, CreateRoleInput{RoleName: "Dormant", IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, role.IsActive)

	stored, err := f.svc.Roles.GetRole(f.ctx, f.scope, role.ID, false)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.EqualValues(t, 0, f.count(&models.Role{}, "id = ? AND is_active = ?", role.ID, true))

	perm := f.permission("payroll.runs")
	_, err = f.svc.RolePermissions.AssignPermissions(f.ctx, f.scope, AssignPermissionsInput{
		RoleID: role.ID, Permissions: []PermissionGrant{GrantAll(perm.ID)},
	})
	require.NoError(t, err)
	u := f.user(f.org.ID, "dormant@acme.test")
	require.NoError(t, f.svc.UserRoles.AssignRoleToUser(f.ctx, f.scope, u.ID, role.ID))

	ok, err := f.svc.Capabilities.HasCapability(f.ctx, u.ID, "payroll", "read")
	require.NoError(t, err)
	assert.False(t, ok)

	active, err := f.svc.Roles.CreateRole(f.ctx, f.scope, CreateRoleInput{RoleName: "Awake", IsActive: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, active.IsActive)
}

func TestCreateRoleInForeignOrganization(t *testing.T) {
	f := newFixture(t)
	other := f.organization("globex")

	_, err := f.svc.Roles.CreateRole(f.ctx, f.scope, CreateRoleInput{OrganizationID: uuidPtr(other.ID), RoleName: "Spy"})
	assert.ErrorIs(t, err, ErrNotFound)

	role, err := f.svc.Roles.CreateRole(f.ctx, Scope{AllOrganizations: true}, CreateRoleInput{OrganizationID: uuidPtr(other.ID), RoleName: "Payroll Clerk"})
	require.NoError(t, err)
	assert.Equal(t, other.ID, role.OrganizationID)

	_, err = f.svc.Roles.CreateRole(f.ctx, Scope{AllOrganizations: true}, CreateRoleInput{OrganizationID: uuidPtr(uuid.New()), RoleName: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	role := f.role("Auditor")

	updated, err := f.svc.Roles.UpdateRole(f.ctx, f.scope, role.ID, UpdateRoleInput{
		RoleName:    strPtr("Senior Auditor"),
		Description: strPtr("reads everything"),
		IsActive:    boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Senior Auditor", updated.RoleName)
	assert.Equal(t, "auditor", updated.RoleKey, "role_key is immutable")
	assert.False(t, updated.IsActive)
	assert.Equal(t, 2, updated.Version)

	_, err = f.svc.Roles.UpdateRole(f.ctx, f.scope, role.ID, UpdateRoleInput{RoleName: strPtr("x")})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateRoleStaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	role := f.role("Auditor")

	_, err := f.svc.Roles.UpdateRole(f.ctx, f.scope, role.ID, UpdateRoleInput{Description: strPtr("v2"), Version: intPtr(1)})
	require.NoError(t, err)

	_, err = f.svc.Roles.UpdateRole(f.ctx, f.scope, role.ID, UpdateRoleInput{Description: strPtr("v3"), Version: intPtr(1)})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSystemRoleIsImmutable(t *testing.T) {
	f := newFixture(t)
	sys := f.systemRole("hr_admin")
	user := f.user(f.org.ID, "hana@acme.test")
	perm := f.permission("employees.records")
	require.NoError(t, f.db.Create(&models.RolePermission{RoleID: sys.ID, PermissionID: perm.ID, CanRead: true}).Error)
	require.NoError(t, f.db.Create(&models.UserRole{UserID: user.ID, RoleID: sys.ID}).Error)

	_, err := f.svc.Roles.UpdateRole(f.ctx, f.scope, sys.ID, UpdateRoleInput{RoleName: strPtr("Renamed")})
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.svc.Roles.DeleteRole(f.ctx, f.scope, sys.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	var stored models.Role
	require.NoError(t, f.db.First(&stored, "id = ?", sys.ID).Error)
	assert.Equal(t, "hr_admin", stored.RoleName)
	assert.EqualValues(t, 1, f.count(&models.RolePermission{}, "role_id = ?", sys.ID))
	assert.EqualValues(t, 1, f.count(&models.UserRole{}, "role_id = ?", sys.ID))
}

func TestDeleteRoleCascades(t *testing.T) {
	f := newFixture(t)
	role := f.role("Temp Staff")
	user := f.user(f.org.ID, "temp@acme.test")
	perm := f.permission("attendance.records")

	_, err := f.svc.RolePermissions.AssignPermissions(f.ctx, f.scope, AssignPermissionsInput{
		RoleID:      role.ID,
		Permissions: []PermissionGrant{{PermissionID: perm.ID, CanRead: true}},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.UserRoles.AssignRoleToUser(f.ctx, f.scope, user.ID, role.ID))

	require.NoError(t, f.svc.Roles.DeleteRole(f.ctx, f.scope, role.ID))

	assert.Zero(t, f.count(&models.Role{}, "id = ?", role.ID))
	assert.Zero(t, f.count(&models.RolePermission{}, "role_id = ?", role.ID))
	assert.Zero(t, f.count(&models.UserRole{}, "role_id = ?", role.ID))

	err = f.svc.Roles.DeleteRole(f.ctx, f.scope, role.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRolesOfOtherTenantsReadAsMissing(t *testing.T) {
	f := newFixture(t)
	role := f.role("Auditor")
	other := Scope{OrganizationID: f.organization("globex").ID}

	_, err := f.svc.Roles.GetRole(f.ctx, other, role.ID, false)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = f.svc.Roles.DeleteRole(f.ctx, other, role.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Roles.GetRole(f.ctx, Scope{AllOrganizations: true}, role.ID, false)
	assert.NoError(t, err)
}

func TestGetRoleWithCountsAndPermissions(t *testing.T) {
	f := newFixture(t)
	role := f.role("Auditor")
	perm := f.permission("payroll.runs")
	user := f.user(f.org.ID, "a@acme.test")

	_, err := f.svc.RolePermissions.AssignPermissions(f.ctx, f.scope, AssignPermissionsInput{
		RoleID:      role.ID,
		Permissions: []PermissionGrant{{PermissionID: perm.ID, CanRead: true, CanExport: true}},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.UserRoles.AssignRoleToUser(f.ctx, f.scope, user.ID, role.ID))

	detail, err := f.svc.Roles.GetRole(f.ctx, f.scope, role.ID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, detail.UserCount)
	assert.EqualValues(t, 1, detail.PermissionCount)
	require.Len(t, detail.Permissions, 1)
	assert.Equal(t, "payroll", detail.Permissions[0].ModuleKey)
	assert.True(t, detail.Permissions[0].CanExport)
}

func TestListRoles(t *testing.T) {
	f := newFixture(t)
	f.systemRole("employee")
	f.role("Auditor")
	f.role("Bookkeeper")
	_, err := f.svc.Roles.CreateRole(f.ctx, f.scope, CreateRoleInput{RoleName: "Archived", IsActive: boolPtr(false)})
	require.NoError(t, err)

	other := f.organization("globex")
	_, err = f.svc.Roles.CreateRole(f.ctx, Scope{OrganizationID: other.ID}, CreateRoleInput{RoleName: "Outsider"})
	require.NoError(t, err)

	roles, page, err := f.svc.Roles.ListRoles(f.ctx, f.scope, RoleFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	names := []string{}
	for _, r := range roles {
		names = append(names, r.RoleName)
	}
	assert.Equal(t, []string{"employee", "Archived", "Auditor", "Bookkeeper"}, names)

	roles, _, err = f.svc.Roles.ListRoles(f.ctx, f.scope, RoleFilter{IsActive: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "archived", roles[0].RoleKey)

	roles, page, err = f.svc.Roles.ListRoles(f.ctx, f.scope, RoleFilter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, roles, 1)
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)

	roles, _, err = f.svc.Roles.ListRoles(f.ctx, f.scope, RoleFilter{Search: "BOOK"})
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "bookkeeper", roles[0].RoleKey)

	roles, _, err = f.svc.Roles.ListRoles(f.ctx, f.scope, RoleFilter{OrganizationID: uuidPtr(other.ID)})
	require.NoError(t, err)
	assert.Empty(t, roles)

	roles, _, err = f.svc.Roles.ListRoles(f.ctx, Scope{AllOrganizations: true}, RoleFilter{OrganizationID: uuidPtr(other.ID)})
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "outsider", roles[0].RoleKey)
}
