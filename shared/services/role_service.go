package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/shared/database/models"
	"hrms-backend/shared/utils/query"
	"hrms-backend/shared/utils/validation"
)

// RoleDetail is a role enriched with its derived counts
type RoleDetail struct {
	models.Role
	UserCount       int64                `json:"user_count"`
	PermissionCount int64                `json:"permission_count"`
	Permissions     []RolePermissionView `json:"permissions,omitempty"`
}

type CreateRoleInput struct {
	OrganizationID *uuid.UUID
	RoleName       string
	RoleKey        string
	Description    string
	IsActive       *bool
}

// UpdateRoleInput only carries the mutable fields; nil means unchanged
type UpdateRoleInput struct {
	RoleName    *string
	Description *string
	IsActive    *bool
	Version     *int
}

type RoleFilter struct {
	OrganizationID *uuid.UUID
	IsActive       *bool
	IsSystemRole   *bool
	Search         string
	Sort           query.SortParams
	Page           int
	PageSize       int
}

type roleRules struct {
	RoleName string `json:"role_name" validate:"required,min=3,max=100"`
	RoleKey  string `json:"role_key" validate:"required,max=100,role_key"`
}

type roleNameRule struct {
	RoleName string `json:"role_name" validate:"required,min=3,max=100"`
}

var roleSortFields = map[string]string{
	"role_name":  "roles.role_name",
	"role_key":   "roles.role_key",
	"created_at": "roles.created_at",
	"updated_at": "roles.updated_at",
}

type RoleService struct {
	db    *gorm.DB
	cache CapabilityCache
}

func NewRoleService(db *gorm.DB, cache CapabilityCache) *RoleService {
	return &RoleService{db: db, cache: cache}
}

// CreateRole creates a custom role. The organization defaults to the caller's own.
func (s *RoleService) CreateRole(ctx context.Context, scope Scope, in CreateRoleInput) (RoleDetail, error) {
	orgID := scope.OrganizationID
	if in.OrganizationID != nil && *in.OrganizationID != uuid.Nil {
		orgID = *in.OrganizationID
	}
	if !scope.allows(orgID) {
		return RoleDetail{}, notFound("organization")
	}

	name := strings.TrimSpace(in.RoleName)
	key := strings.TrimSpace(in.RoleKey)
	if key == "" {
		key = DeriveRoleKey(name)
	}

	if fields := validation.Struct(roleRules{RoleName: name, RoleKey: key}); len(fields) > 0 {
		return RoleDetail{}, &ValidationError{Fields: fields}
	}

	db := s.db.WithContext(ctx)

	var org models.Organization
	if err := db.Select("id").Where("id = ?", orgID).First(&org).Error; err != nil {
		return RoleDetail{}, translate(err, "organization")
	}

	var existing int64
	if err := db.Model(&models.Role{}).
		Where("organization_id = ? AND role_key = ?", orgID, key).
		Count(&existing).Error; err != nil {
		return RoleDetail{}, err
	}
	if existing > 0 {
		return RoleDetail{}, fmt.Errorf("%w: role_key %q already exists in organization", ErrConflict, key)
	}

	role := models.Role{
		OrganizationID: orgID,
		RoleName:       name,
		RoleKey:        key,
		Description:    strings.TrimSpace(in.Description),
		IsActive:       true,
	}

	// is_active has a column default that gorm applies to a false value on insert,
	// so a dormant role is created active and switched off in the same transaction
	wantInactive := in.IsActive != nil && !*in.IsActive
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return translate(err, "role")
		}
		if !wantInactive {
			return nil
		}
		if err := tx.Model(&role).Update("is_active", false).Error; err != nil {
			return err
		}
		role.IsActive = false
		return nil
	})
	if err != nil {
		return RoleDetail{}, err
	}

	log.Printf("✅ Role created: %s (%s)", role.RoleKey, role.ID)
	return RoleDetail{Role: role}, nil
}

// UpdateRole changes name, description or the active flag of a custom role
func (s *RoleService) UpdateRole(ctx context.Context, scope Scope, roleID uuid.UUID, in UpdateRoleInput) (RoleDetail, error) {
	role, err := findRole(ctx, s.db, scope, roleID)
	if err != nil {
		return RoleDetail{}, err
	}
	if role.IsSystemRole {
		return RoleDetail{}, fmt.Errorf("%w: system roles cannot be modified", ErrForbidden)
	}
	if in.Version != nil && *in.Version != role.Version {
		return RoleDetail{}, fmt.Errorf("%w: role was modified (version %d, expected %d)", ErrConflict, role.Version, *in.Version)
	}

	updates := map[string]interface{}{}
	if in.RoleName != nil {
		name := strings.TrimSpace(*in.RoleName)
		if fields := validation.Struct(roleNameRule{RoleName: name}); len(fields) > 0 {
			return RoleDetail{}, &ValidationError{Fields: fields}
		}
		updates["role_name"] = name
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	if len(updates) > 0 {
		updates["version"] = gorm.Expr("version + 1")
		res := s.db.WithContext(ctx).Model(&models.Role{}).
			Where("id = ? AND version = ?", role.ID, role.Version).
			Updates(updates)
		if res.Error != nil {
			return RoleDetail{}, res.Error
		}
		if res.RowsAffected == 0 {
			return RoleDetail{}, fmt.Errorf("%w: role was modified concurrently", ErrConflict)
		}

		// toggling is_active changes what every member can do
		if in.IsActive != nil && *in.IsActive != role.IsActive {
			invalidateRoleMembers(ctx, s.db, s.cache, role.ID)
		}
	}

	return s.GetRole(ctx, scope, role.ID, false)
}

// DeleteRole removes a custom role with all of its grants and memberships in one transaction
func (s *RoleService) DeleteRole(ctx context.Context, scope Scope, roleID uuid.UUID) error {
	role, err := findRole(ctx, s.db, scope, roleID)
	if err != nil {
		return err
	}
	if role.IsSystemRole {
		return fmt.Errorf("%w: system roles cannot be deleted", ErrForbidden)
	}

	members, err := roleMemberIDs(ctx, s.db, role.ID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Role{}, "id = ?", role.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	invalidateUsers(ctx, s.cache, members)
	log.Printf("🗑️  Role deleted: %s (%s), %d members detached", role.RoleKey, role.ID, len(members))
	return nil
}

// GetRole returns one role with counts and, optionally, its grant list
func (s *RoleService) GetRole(ctx context.Context, scope Scope, roleID uuid.UUID, withPermissions bool) (RoleDetail, error) {
	role, err := findRole(ctx, s.db, scope, roleID)
	if err != nil {
		return RoleDetail{}, err
	}

	details, err := s.enrich(ctx, []models.Role{role})
	if err != nil {
		return RoleDetail{}, err
	}
	detail := details[0]

	if withPermissions {
		views, err := loadGrantViews(ctx, s.db, role.ID)
		if err != nil {
			return RoleDetail{}, err
		}
		detail.Permissions = views
	}
	return detail, nil
}

// ListRoles returns one page of roles visible to the caller, system roles first
func (s *RoleService) ListRoles(ctx context.Context, scope Scope, f RoleFilter) ([]RoleDetail, query.PaginationResponse, error) {
	page, pageSize := query.NormalizePage(f.Page, f.PageSize)
	q := s.db.WithContext(ctx).Model(&models.Role{})

	switch {
	case f.OrganizationID != nil && *f.OrganizationID != uuid.Nil:
		if !scope.allows(*f.OrganizationID) {
			return []RoleDetail{}, query.BuildPaginationResponse(page, pageSize, 0), nil
		}
		q = q.Where("roles.organization_id = ?", *f.OrganizationID)
	case !scope.AllOrganizations:
		q = q.Where("roles.organization_id = ?", scope.OrganizationID)
	}

	if f.IsActive != nil {
		q = q.Where("roles.is_active = ?", *f.IsActive)
	}
	if f.IsSystemRole != nil {
		q = q.Where("roles.is_system_role = ?", *f.IsSystemRole)
	}
	q = query.ApplySearch(q, f.Search, []string{"roles.role_name", "roles.role_key"})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, query.PaginationResponse{}, err
	}

	var roles []models.Role
	q = query.ApplySort(q, f.Sort, roleSortFields, "roles.is_system_role DESC, roles.role_name ASC")
	if err := query.ApplyPagination(q, page, pageSize).Find(&roles).Error; err != nil {
		return nil, query.PaginationResponse{}, err
	}

	details, err := s.enrich(ctx, roles)
	if err != nil {
		return nil, query.PaginationResponse{}, err
	}
	return details, query.BuildPaginationResponse(page, pageSize, total), nil
}

type roleCount struct {
	RoleID uuid.UUID
	Total  int64
}

func (s *RoleService) enrich(ctx context.Context, roles []models.Role) ([]RoleDetail, error) {
	details := make([]RoleDetail, len(roles))
	if len(roles) == 0 {
		return details, nil
	}

	ids := make([]uuid.UUID, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}

	var users, grants []roleCount
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.UserRole{}).
		Select("role_id, COUNT(*) AS total").
		Where("role_id IN ?", ids).
		Group("role_id").
		Scan(&users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.RolePermission{}).
		Select("role_id, COUNT(*) AS total").
		Where("role_id IN ?", ids).
		Where(anyFlagCondition).
		Group("role_id").
		Scan(&grants).Error; err != nil {
		return nil, err
	}

	userCounts := make(map[uuid.UUID]int64, len(users))
	for _, c := range users {
		userCounts[c.RoleID] = c.Total
	}
	grantCounts := make(map[uuid.UUID]int64, len(grants))
	for _, c := range grants {
		grantCounts[c.RoleID] = c.Total
	}

	for i, r := range roles {
		details[i] = RoleDetail{
			Role:            r,
			UserCount:       userCounts[r.ID],
			PermissionCount: grantCounts[r.ID],
		}
	}
	return details, nil
}

// findRole loads a role the caller may see. Roles of other tenants read as missing.
func findRole(ctx context.Context, db *gorm.DB, scope Scope, roleID uuid.UUID) (models.Role, error) {
	var role models.Role
	err := db.WithContext(ctx).Where("id = ?", roleID).First(&role).Error
	if err != nil {
		return role, translate(err, "role")
	}
	if !scope.allows(role.OrganizationID) {
		return models.Role{}, notFound("role")
	}
	return role, nil
}

func roleMemberIDs(ctx context.Context, db *gorm.DB, roleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.WithContext(ctx).Model(&models.UserRole{}).
		Where("role_id = ?", roleID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func invalidateRoleMembers(ctx context.Context, db *gorm.DB, cache CapabilityCache, roleID uuid.UUID) {
	if cache == nil {
		return
	}
	members, err := roleMemberIDs(ctx, db, roleID)
	if err != nil {
		log.Printf("⚠️  Could not load members of role %s for cache invalidation: %v", roleID, err)
		return
	}
	invalidateUsers(ctx, cache, members)
}

func invalidateUsers(ctx context.Context, cache CapabilityCache, users []uuid.UUID) {
	if cache == nil {
		return
	}
	for _, id := range users {
		if err := cache.InvalidateUser(ctx, id); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("⚠️  Cache invalidation failed for user %s: %v", id, err)
		}
	}
}
