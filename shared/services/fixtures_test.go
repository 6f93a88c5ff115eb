package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hrms-backend/shared/database"
	"hrms-backend/shared/database/dbtest"
	"hrms-backend/shared/database/models"
	"hrms-backend/shared/utils/cache"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	svc   *Services
	redis *miniredis.Miniredis
	org   models.Organization
	scope Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	require.NoError(t, database.Seed(db, false))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		db:    db,
		svc:   New(db, cache.NewCacheManager(client, time.Minute)),
		redis: mr,
	}
	f.org = f.organization("acme")
	f.scope = Scope{OrganizationID: f.org.ID}
	return f
}

func (f *fixture) organization(slug string) models.Organization {
	f.t.Helper()
	org, err := database.SeedOrganization(f.db, slug+" inc", slug)
	require.NoError(f.t, err)
	return org
}

func (f *fixture) user(orgID uuid.UUID, email string) models.User {
	f.t.Helper()
	u := models.User{
		OrganizationID: orgID,
		Email:          email,
		FirstName:      email,
		UserType:       models.UserTypeEmployee,
		Status:         models.UserStatusActive,
	}
	require.NoError(f.t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) role(name string) RoleDetail {
	f.t.Helper()
	r, err := f.svc.Roles.CreateRole(f.ctx, f.scope, CreateRoleInput{RoleName: name})
	require.NoError(f.t, err)
	return r
}

func (f *fixture) systemRole(key string) models.Role {
	f.t.Helper()
	r := models.Role{
		OrganizationID: f.org.ID,
		RoleName:       key,
		RoleKey:        key,
		IsActive:       true,
		IsSystemRole:   true,
	}
	require.NoError(f.t, f.db.Create(&r).Error)
	return r
}

func (f *fixture) permission(key string) models.Permission {
	f.t.Helper()
	var p models.Permission
	require.NoError(f.t, f.db.Where("permission_key = ?", key).First(&p).Error)
	return p
}

func (f *fixture) count(model interface{}, where string, args ...interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}
