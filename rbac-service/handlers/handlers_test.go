package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hrms-backend/shared/database"
	"hrms-backend/shared/database/dbtest"
	"hrms-backend/shared/database/models"
	"hrms-backend/shared/services"
	"hrms-backend/shared/utils/auth"
	"hrms-backend/shared/utils/cache"
	"hrms-backend/shared/utils/routeaccess"
	"hrms-backend/shared/utils/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiResponse struct {
	Success bool                    `json:"success"`
	Data    json.RawMessage         `json:"data"`
	Error   string                  `json:"error"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields"`
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	issuer *auth.TokenIssuer
	org    models.Organization
}

func newTestServer(t *testing.T, withCache bool) *testServer {
	t.Helper()

	db := dbtest.Open(t)
	require.NoError(t, database.Seed(db, true))

	var org models.Organization
	require.NoError(t, db.Where("slug = ?", "demo").First(&org).Error)

	deps := Deps{
		Issuer: auth.NewTokenIssuer("test-secret", time.Hour, "hrms-auth"),
		Routes: routeaccess.NewDefault(),
	}
	if withCache {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		deps.Cache = cache.NewCacheManager(client, time.Minute)
		deps.Services = services.New(db, deps.Cache)
	} else {
		deps.Services = services.New(db, nil)
	}

	return &testServer{
		t:      t,
		db:     db,
		router: SetupRouter(deps),
		issuer: deps.Issuer,
		org:    org,
	}
}

// tokenFor signs a token for a seeded user, looked up by email
func (s *testServer) tokenFor(email string) string {
	s.t.Helper()
	var u models.User
	require.NoError(s.t, s.db.Where("email = ?", email).First(&u).Error)
	token, err := s.issuer.GenerateJWT(u.ID, u.Email, u.OrganizationID, u.UserType)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) userID(email string) uuid.UUID {
	s.t.Helper()
	var u models.User
	require.NoError(s.t, s.db.Where("email = ?", email).First(&u).Error)
	return u.ID
}

func (s *testServer) do(method, path, token string, body interface{}) (int, apiResponse) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

const (
	hrAdmin   = "hr.admin@demo.local"
	employee  = "employee@demo.local"
	iotAdmin  = "iot.admin@demo.local"
	superUser = "superadmin@demo.local"
)

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t, false)
	code, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRoutesRequireAuthentication(t *testing.T) {
	s := newTestServer(t, false)

	code, resp := s.do(http.MethodGet, "/api/roles", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Authorization header is required", resp.Error)

	code, _ = s.do(http.MethodGet, "/api/roles", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestListRolesPutsSystemRolesFirst(t *testing.T) {
	s := newTestServer(t, true)
	token := s.tokenFor(hrAdmin)

	code, _ := s.do(http.MethodPost, "/api/roles", token, CreateRoleRequest{RoleName: "Auditor"})
	require.Equal(t, http.StatusCreated, code)

	code, resp := s.do(http.MethodGet, "/api/roles?pageSize=50", token, nil)
	require.Equal(t, http.StatusOK, code)

	page := decode[struct {
		Items      []services.RoleDetail `json:"items"`
		Pagination struct {
			Total    int64 `json:"total"`
			PageSize int   `json:"page_size"`
		} `json:"pagination"`
	}](t, resp.Data)

	require.Len(t, page.Items, 6)
	assert.EqualValues(t, 6, page.Pagination.Total)
	assert.Equal(t, 50, page.Pagination.PageSize)
	for _, r := range page.Items[:5] {
		assert.True(t, r.IsSystemRole, r.RoleKey)
	}
	assert.Equal(t, "auditor", page.Items[5].RoleKey)
	assert.False(t, page.Items[5].IsSystemRole)
}

func TestListRolesFilters(t *testing.T) {
	s := newTestServer(t, false)
	token := s.tokenFor(hrAdmin)
	s.do(http.MethodPost, "/api/roles", token, CreateRoleRequest{RoleName: "Auditor"})

	code, resp := s.do(http.MethodGet, "/api/roles?filters[is_system_role]=false", token, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[struct {
		Items []services.RoleDetail `json:"items"`
	}](t, resp.Data)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "auditor", page.Items[0].RoleKey)

	code, _ = s.do(http.MethodGet, "/api/roles?filters[organization_id]=nope", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEmployeeCannotManageRoles(t *testing.T) {
	s := newTestServer(t, true)
	token := s.tokenFor(employee)

	code, resp := s.do(http.MethodGet, "/api/roles", token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Insufficient permissions", resp.Error)

	code, _ = s.do(http.MethodPost, "/api/roles", token, CreateRoleRequest{RoleName: "Auditor"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCreateRoleValidationAndConflict(t *testing.T) {
	s := newTestServer(t, false)
	token := s.tokenFor(hrAdmin)

	code, resp := s.do(http.MethodPost, "/api/roles", token, CreateRoleRequest{RoleName: "Payroll Auditor"})
	require.Equal(t, http.StatusCreated, code)
	created := decode[services.RoleDetail](t, resp.Data)
	assert.Equal(t, "payroll_auditor", created.RoleKey)
	assert.Equal(t, s.org.ID, created.OrganizationID)
	assert.True(t, created.IsActive)
	assert.Equal(t, 1, created.Version)

	code, resp = s.do(http.MethodPost, "/api/roles", token, CreateRoleRequest{RoleName: "Payroll Auditor"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Conflict", resp.Error)

	code, resp = s.do(http.MethodPost, "/api/roles", token, CreateRoleRequest{RoleName: "ab", RoleKey: "Bad Key"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	fields := map[string]bool{}
	for _, f := range resp.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["role_name"])
	assert.True(t, fields["role_key"])

	req := httptest.NewRequest(http.MethodPost, "/api/roles", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSystemRolesAreReadOnly(t *testing.T) {
	s := newTestServer(t, false)
	token := s.tokenFor(hrAdmin)

	var role models.Role
	require.NoError(t, s.db.Where("role_key = ?", "employee").First(&role).Error)

	name := "Staff"
	code, _ := s.do(http.MethodPut, "/api/roles/"+role.ID.String(), token, UpdateRoleRequest{RoleName: &name})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodDelete, "/api/roles/"+role.ID.String(), token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPost, "/api/roles/assign-permissions", token, AssignPermissionsRequest{RoleID: role.ID})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestUpdateRoleRejectsStaleVersion(t *testing.T) {
	s := newTestServer(t, false)
	token := s.tokenFor(hrAdmin)

	_, resp := s.do(http.MethodPost, "/api/roles", token, CreateRoleRequest{RoleName: "Auditor"})
	role := decode[services.RoleDetail](t, resp.Data)

	name := "Senior Auditor"
	version := role.Version
	code, resp := s.do(http.MethodPut, "/api/roles/"+role.ID.String(), token, UpdateRoleRequest{RoleName: &name, Version: &version})
	require.Equal(t, http.StatusOK, code)
	updated := decode[services.RoleDetail](t, resp.Data)
	assert.Equal(t, "Senior Auditor", updated.RoleName)
	assert.Equal(t, "auditor", updated.RoleKey)
	assert.Equal(t, version+1, updated.Version)

	code, _ = s.do(http.MethodPut, "/api/roles/"+role.ID.String(), token, UpdateRoleRequest{RoleName: &name, Version: &version})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPut, "/api/roles/not-a-uuid", token, UpdateRoleRequest{RoleName: &name})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAuditorGrantsFlowIntoCapabilityChecks(t *testing.T) {
	s := newTestServer(t, true)
	admin := s.tokenFor(superUser)
	emp := s.tokenFor(employee)

	_, resp := s.do(http.MethodPost, "/api/roles", admin, CreateRoleRequest{RoleName: "Auditor"})
	role := decode[services.RoleDetail](t, resp.Data)

	var payrollRuns models.Permission
	require.NoError(t, s.db.Where("permission_key = ?", "payroll.runs").First(&payrollRuns).Error)

	check := func(module, action string) bool {
		t.Helper()
		code, resp := s.do(http.MethodPost, "/api/access/check", emp, map[string]string{"module": module, "action": action})
		require.Equal(t, http.StatusOK, code, resp.Message)
		return decode[struct {
			Allowed bool `json:"allowed"`
		}](t, resp.Data).Allowed
	}

	assert.False(t, check("payroll", "export"))

	code, resp := s.do(http.MethodPost, "/api/roles/assign-permissions", admin, AssignPermissionsRequest{
		RoleID: role.ID,
		Permissions: []services.PermissionGrant{
			{PermissionID: payrollRuns.ID, CanRead: true, CanExport: true},
		},
	})
	require.Equal(t, http.StatusOK, code, resp.Message)

	code, _ = s.do(http.MethodPost, "/api/roles/"+role.ID.String()+"/users", admin, AssignUserRequest{UserID: s.userID(employee)})
	require.Equal(t, http.StatusOK, code)

	assert.True(t, check("payroll", "read"))
	assert.True(t, check("payroll", "EXPORT"))
	assert.False(t, check("payroll", "delete"))
	assert.True(t, check("attendance", "create"))

	code, resp = s.do(http.MethodPost, "/api/access/batch-check", emp, map[string]interface{}{
		"checks": []map[string]string{
			{"module": "payroll", "action": "export"},
			{"module": "devices", "action": "read"},
		},
	})
	require.Equal(t, http.StatusOK, code)
	results := decode[struct {
		Results map[string]bool `json:"results"`
	}](t, resp.Data).Results
	assert.Equal(t, map[string]bool{"payroll:export": true, "devices:read": false}, results)

	// detaching the role revokes the grant immediately
	code, _ = s.do(http.MethodDelete, "/api/roles/"+role.ID.String()+"/users/"+s.userID(employee).String(), admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, check("payroll", "export"))
}

func TestAssignPermissionsUnknownPermission(t *testing.T) {
	s := newTestServer(t, false)
	token := s.tokenFor(hrAdmin)
	_, resp := s.do(http.MethodPost, "/api/roles", token, CreateRoleRequest{RoleName: "Auditor"})
	role := decode[services.RoleDetail](t, resp.Data)

	code, _ := s.do(http.MethodPost, "/api/roles/assign-permissions", token, AssignPermissionsRequest{
		RoleID:      role.ID,
		Permissions: []services.PermissionGrant{{PermissionID: uuid.New(), CanRead: true}},
	})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, "/api/roles/assign-permissions", token, map[string]interface{}{
		"role_id":     role.ID,
		"permissions": []map[string]interface{}{{"can_read": true}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCheckAccessValidatesAction(t *testing.T) {
	s := newTestServer(t, false)
	code, resp := s.do(http.MethodPost, "/api/access/check", s.tokenFor(employee), map[string]string{"module": "payroll", "action": "fly"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "action", resp.Fields[0].Field)
}

func TestCheckingOtherUsersNeedsRolesRead(t *testing.T) {
	s := newTestServer(t, false)
	body := func(target uuid.UUID) map[string]interface{} {
		return map[string]interface{}{"user_id": target, "module": "devices", "action": "read"}
	}

	code, _ := s.do(http.MethodPost, "/api/access/check", s.tokenFor(employee), body(s.userID(iotAdmin)))
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := s.do(http.MethodPost, "/api/access/check", s.tokenFor(hrAdmin), body(s.userID(iotAdmin)))
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[struct {
		Allowed bool `json:"allowed"`
	}](t, resp.Data).Allowed)

	code, _ = s.do(http.MethodPost, "/api/access/check", s.tokenFor(hrAdmin), body(uuid.New()))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRouteAccessFollowsUserType(t *testing.T) {
	s := newTestServer(t, false)

	allowed := func(email, path string) bool {
		code, resp := s.do(http.MethodGet, "/api/access/route?path="+path, s.tokenFor(email), nil)
		require.Equal(t, http.StatusOK, code)
		return decode[RouteAccessResponse](t, resp.Data).Allowed
	}

	assert.True(t, allowed(hrAdmin, "/hr/roles/123"))
	assert.False(t, allowed(employee, "/hr/roles"))
	assert.True(t, allowed(employee, "/attendance/check-in"))
	assert.True(t, allowed(iotAdmin, "/iot/devices"))
	assert.False(t, allowed(iotAdmin, ""))
}

func TestSessionListsRoutesRolesAndGrants(t *testing.T) {
	s := newTestServer(t, false)

	code, resp := s.do(http.MethodGet, "/api/access/session", s.tokenFor(employee), nil)
	require.Equal(t, http.StatusOK, code)

	got := decode[struct {
		Session       auth.SessionView          `json:"session"`
		AllowedRoutes []string                  `json:"allowed_routes"`
		Roles         []models.Role             `json:"roles"`
		Permissions   []services.EffectiveGrant `json:"permissions"`
	}](t, resp.Data)

	assert.Equal(t, models.UserTypeEmployee, got.Session.UserType)
	assert.Equal(t, s.org.ID, got.Session.OrganizationID)
	assert.Contains(t, got.AllowedRoutes, "/attendance/check-in")
	require.Len(t, got.Roles, 1)
	assert.Equal(t, "employee", got.Roles[0].RoleKey)
	assert.NotEmpty(t, got.Permissions)
}

func TestTenantIsolation(t *testing.T) {
	s := newTestServer(t, false)

	globex, err := database.SeedOrganization(s.db, "Globex", "globex")
	require.NoError(t, err)
	_, err = database.SeedSystemRoles(s.db, globex.ID)
	require.NoError(t, err)

	outsider := models.User{
		OrganizationID: globex.ID,
		Email:          "admin@globex.local",
		UserType:       models.UserTypeHRAdmin,
		Status:         models.UserStatusActive,
	}
	require.NoError(t, s.db.Create(&outsider).Error)
	var globexAdmin models.Role
	require.NoError(t, s.db.Where("organization_id = ? AND role_key = ?", globex.ID, "hr_admin").First(&globexAdmin).Error)
	require.NoError(t, s.db.Create(&models.UserRole{UserID: outsider.ID, RoleID: globexAdmin.ID}).Error)

	_, resp := s.do(http.MethodPost, "/api/roles", s.tokenFor(hrAdmin), CreateRoleRequest{RoleName: "Auditor"})
	demoRole := decode[services.RoleDetail](t, resp.Data)

	foreign := s.tokenFor(outsider.Email)
	code, _ := s.do(http.MethodGet, "/api/roles/"+demoRole.ID.String(), foreign, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodGet, "/api/users/"+s.userID(employee).String()+"/capabilities", foreign, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodGet, "/api/roles/"+demoRole.ID.String(), s.tokenFor(superUser), nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRoleMembershipListings(t *testing.T) {
	s := newTestServer(t, false)
	token := s.tokenFor(hrAdmin)
	_, resp := s.do(http.MethodPost, "/api/roles", token, CreateRoleRequest{RoleName: "Auditor"})
	role := decode[services.RoleDetail](t, resp.Data)
	base := "/api/roles/" + role.ID.String()

	code, resp := s.do(http.MethodGet, base+"/available-users", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.User](t, resp.Data), 5)

	s.do(http.MethodPost, base+"/users", token, AssignUserRequest{UserID: s.userID(employee)})
	s.do(http.MethodPost, base+"/users", token, AssignUserRequest{UserID: s.userID(employee)})

	code, resp = s.do(http.MethodGet, base+"/users", token, nil)
	require.Equal(t, http.StatusOK, code)
	members := decode[[]models.User](t, resp.Data)
	require.Len(t, members, 1)
	assert.Equal(t, employee, members[0].Email)

	_, resp = s.do(http.MethodGet, base+"/available-users", token, nil)
	assert.Len(t, decode[[]models.User](t, resp.Data), 4)

	code, resp = s.do(http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, decode[services.RoleDetail](t, resp.Data).UserCount)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t, false)
	token := s.tokenFor(hrAdmin)

	code, resp := s.do(http.MethodGet, "/api/roles/permissions/modules", token, nil)
	require.Equal(t, http.StatusOK, code)
	modules := decode[[]models.Module](t, resp.Data)
	require.Len(t, modules, len(database.DefaultCatalog))
	assert.Equal(t, "dashboard", modules[0].ModuleKey)
	assert.NotEmpty(t, modules[0].Permissions)

	code, resp = s.do(http.MethodGet, "/api/roles/permissions/all", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, decode[[]models.Permission](t, resp.Data))
}

func TestDeleteRole(t *testing.T) {
	s := newTestServer(t, false)
	token := s.tokenFor(hrAdmin)
	_, resp := s.do(http.MethodPost, "/api/roles", token, CreateRoleRequest{RoleName: "Auditor"})
	role := decode[services.RoleDetail](t, resp.Data)

	code, _ := s.do(http.MethodDelete, "/api/roles/"+role.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/roles/"+role.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCacheEndpoints(t *testing.T) {
	s := newTestServer(t, true)
	admin := s.tokenFor(superUser)

	s.do(http.MethodPost, "/api/access/check", s.tokenFor(employee), map[string]string{"module": "calendar", "action": "read"})

	code, resp := s.do(http.MethodGet, "/api/access/cache/stats", admin, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[struct {
		CacheStats map[string]interface{} `json:"cache_stats"`
	}](t, resp.Data)
	assert.NotZero(t, stats.CacheStats["total_capability_keys"])

	code, _ = s.do(http.MethodPost, "/api/access/cache/invalidate/user/"+s.userID(employee).String(), admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/access/cache/invalidate/all", admin, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/access/cache/stats", s.tokenFor(iotAdmin), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCacheEndpointsAreSuperAdminOnly(t *testing.T) {
	s := newTestServer(t, true)
	hr := s.tokenFor(hrAdmin)

	// HR admins hold roles:delete in their own organization
	code, resp := s.do(http.MethodPost, "/api/access/check", hr, map[string]string{"module": "roles", "action": "delete"})
	require.Equal(t, http.StatusOK, code)
	require.True(t, decode[struct {
		Allowed bool `json:"allowed"`
	}](t, resp.Data).Allowed)

	code, _ = s.do(http.MethodGet, "/api/access/cache/stats", hr, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodPost, "/api/access/cache/invalidate/all", hr, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodPost, "/api/access/cache/invalidate/user/"+s.userID(employee).String(), hr, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCacheEndpointsWithoutRedis(t *testing.T) {
	s := newTestServer(t, false)
	code, _ := s.do(http.MethodGet, "/api/access/cache/stats", s.tokenFor(superUser), nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
