package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/shared/database/models"
)

const anyFlagCondition = "(role_permissions.can_create = true OR role_permissions.can_read = true OR " +
	"role_permissions.can_update = true OR role_permissions.can_delete = true OR role_permissions.can_export = true)"

// PermissionGrant is one row of an assignment payload
type PermissionGrant struct {
	PermissionID uuid.UUID `json:"permission_id" binding:"required"`
	CanCreate    bool      `json:"can_create"`
	CanRead      bool      `json:"can_read"`
	CanUpdate    bool      `json:"can_update"`
	CanDelete    bool      `json:"can_delete"`
	CanExport    bool      `json:"can_export"`
}

func (g PermissionGrant) empty() bool {
	return !g.CanCreate && !g.CanRead && !g.CanUpdate && !g.CanDelete && !g.CanExport
}

func (g PermissionGrant) merge(o PermissionGrant) PermissionGrant {
	g.CanCreate = g.CanCreate || o.CanCreate
	g.CanRead = g.CanRead || o.CanRead
	g.CanUpdate = g.CanUpdate || o.CanUpdate
	g.CanDelete = g.CanDelete || o.CanDelete
	g.CanExport = g.CanExport || o.CanExport
	return g
}

// GrantAll returns a grant enabling every action of one permission
func GrantAll(permissionID uuid.UUID) PermissionGrant {
	return PermissionGrant{
		PermissionID: permissionID,
		CanCreate:    true,
		CanRead:      true,
		CanUpdate:    true,
		CanDelete:    true,
		CanExport:    true,
	}
}

// GrantModule returns GrantAll for every permission of a module
func GrantModule(module models.Module) []PermissionGrant {
	grants := make([]PermissionGrant, 0, len(module.Permissions))
	for _, p := range module.Permissions {
		grants = append(grants, GrantAll(p.ID))
	}
	return grants
}

// AssignPermissionsInput replaces the full grant set of a role.
// Version, when set, must match the role's current version.
type AssignPermissionsInput struct {
	RoleID      uuid.UUID
	Version     *int
	Permissions []PermissionGrant
}

// RolePermissionView is a stored grant joined with its catalog entry
type RolePermissionView struct {
	RoleID         uuid.UUID `json:"role_id"`
	PermissionID   uuid.UUID `json:"permission_id"`
	PermissionKey  string    `json:"permission_key"`
	PermissionName string    `json:"permission_name"`
	ModuleID       uuid.UUID `json:"module_id"`
	ModuleKey      string    `json:"module_key"`
	ModuleName     string    `json:"module_name"`
	CanCreate      bool      `json:"can_create"`
	CanRead        bool      `json:"can_read"`
	CanUpdate      bool      `json:"can_update"`
	CanDelete      bool      `json:"can_delete"`
	CanExport      bool      `json:"can_export"`
}

type RolePermissionService struct {
	db    *gorm.DB
	cache CapabilityCache
}

func NewRolePermissionService(db *gorm.DB, cache CapabilityCache) *RolePermissionService {
	return &RolePermissionService{db: db, cache: cache}
}

// GetRolePermissions returns one entry per permission the role has any action on
func (s *RolePermissionService) GetRolePermissions(ctx context.Context, scope Scope, roleID uuid.UUID) ([]RolePermissionView, error) {
	role, err := findRole(ctx, s.db, scope, roleID)
	if err != nil {
		return nil, err
	}
	return loadGrantViews(ctx, s.db, role.ID)
}

// AssignPermissions makes the submitted set the complete grant state of a role.
// Omitted permissions are revoked and all-false entries are not stored.
func (s *RolePermissionService) AssignPermissions(ctx context.Context, scope Scope, in AssignPermissionsInput) (models.Role, error) {
	role, err := findRole(ctx, s.db, scope, in.RoleID)
	if err != nil {
		return models.Role{}, err
	}
	if role.IsSystemRole {
		return models.Role{}, fmt.Errorf("%w: permissions of system roles are read-only", ErrForbidden)
	}
	if in.Version != nil && *in.Version != role.Version {
		return models.Role{}, fmt.Errorf("%w: role was modified (version %d, expected %d)", ErrConflict, role.Version, *in.Version)
	}

	grants, ids := mergeGrants(in.Permissions)
	if err := s.ensurePermissionsExist(ctx, ids); err != nil {
		return models.Role{}, err
	}

	rows := make([]models.RolePermission, 0, len(grants))
	for _, g := range grants {
		if g.empty() {
			continue
		}
		rows = append(rows, models.RolePermission{
			RoleID:       role.ID,
			PermissionID: g.PermissionID,
			CanCreate:    g.CanCreate,
			CanRead:      g.CanRead,
			CanUpdate:    g.CanUpdate,
			CanDelete:    g.CanDelete,
			CanExport:    g.CanExport,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Role{}).
			Where("id = ? AND version = ?", role.ID, role.Version).
			Update("version", gorm.Expr("version + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: role was modified concurrently", ErrConflict)
		}

		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, 100).Error
	})
	if err != nil {
		return models.Role{}, err
	}

	invalidateRoleMembers(ctx, s.db, s.cache, role.ID)
	log.Printf("✅ Permissions assigned to role %s: %d grants", role.RoleKey, len(rows))

	role.Version++
	return role, nil
}

// mergeGrants ORs duplicate entries for the same permission, keeping first-seen order
func mergeGrants(in []PermissionGrant) ([]PermissionGrant, []uuid.UUID) {
	index := make(map[uuid.UUID]int, len(in))
	out := make([]PermissionGrant, 0, len(in))
	ids := make([]uuid.UUID, 0, len(in))

	for _, g := range in {
		if i, ok := index[g.PermissionID]; ok {
			out[i] = out[i].merge(g)
			continue
		}
		index[g.PermissionID] = len(out)
		out = append(out, g)
		ids = append(ids, g.PermissionID)
	}
	return out, ids
}

func (s *RolePermissionService) ensurePermissionsExist(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	var found []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Permission{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}

	known := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return notFound(fmt.Sprintf("permission %s", id))
		}
	}
	return nil
}

func loadGrantViews(ctx context.Context, db *gorm.DB, roleID uuid.UUID) ([]RolePermissionView, error) {
	views := []RolePermissionView{}
	err := db.WithContext(ctx).
		Table("role_permissions").
		Select(`role_permissions.role_id, role_permissions.permission_id,
			permissions.permission_key, permissions.permission_name,
			modules.id AS module_id, modules.module_key, modules.module_name,
			role_permissions.can_create, role_permissions.can_read, role_permissions.can_update,
			role_permissions.can_delete, role_permissions.can_export`).
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Joins("JOIN modules ON modules.id = permissions.module_id").
		Where("role_permissions.role_id = ?", roleID).
		Where(anyFlagCondition).
		Order(catalogOrder).
		Scan(&views).Error
	return views, err
}
