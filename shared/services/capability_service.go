package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/shared/database/models"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

var actionColumns = map[Action]string{
	ActionCreate: "role_permissions.can_create",
	ActionRead:   "role_permissions.can_read",
	ActionUpdate: "role_permissions.can_update",
	ActionDelete: "role_permissions.can_delete",
	ActionExport: "role_permissions.can_export",
}

// ParseAction accepts the five matrix actions, case-insensitively
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := actionColumns[a]; !ok {
		return "", newValidationError("action", "must be one of: create read update delete export")
	}
	return a, nil
}

// CapabilityCache stores capability decisions. Implementations must tolerate being unavailable.
// SetCapability must discard the write when the user was invalidated after Generation returned.
type CapabilityCache interface {
	GetCapability(ctx context.Context, userID uuid.UUID, moduleKey, action string) (bool, bool)
	Generation(ctx context.Context, userID uuid.UUID) (string, error)
	SetCapability(ctx context.Context, userID uuid.UUID, generation, moduleKey, action string, allowed bool) error
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}

// EffectiveGrant is the OR of one permission's flags across all active roles of a user
type EffectiveGrant struct {
	ModuleKey     string `json:"module_key"`
	PermissionKey string `json:"permission_key"`
	CanCreate     bool   `json:"can_create"`
	CanRead       bool   `json:"can_read"`
	CanUpdate     bool   `json:"can_update"`
	CanDelete     bool   `json:"can_delete"`
	CanExport     bool   `json:"can_export"`
}

type CapabilityService struct {
	db    *gorm.DB
	cache CapabilityCache
}

func NewCapabilityService(db *gorm.DB, cache CapabilityCache) *CapabilityService {
	return &CapabilityService{db: db, cache: cache}
}

// HasCapability reports whether any active role of the user grants action on a permission of moduleKey
func (s *CapabilityService) HasCapability(ctx context.Context, userID uuid.UUID, moduleKey, action string) (bool, error) {
	act, err := ParseAction(action)
	if err != nil {
		return false, err
	}
	moduleKey = strings.TrimSpace(moduleKey)
	if moduleKey == "" {
		return false, newValidationError("module", "is required")
	}

	cacheable := s.cache != nil
	var generation string
	if cacheable {
		if allowed, found := s.cache.GetCapability(ctx, userID, moduleKey, string(act)); found {
			return allowed, nil
		}
		if generation, err = s.cache.Generation(ctx, userID); err != nil {
			log.Printf("⚠️  Skipping capability cache: %v", err)
			cacheable = false
		}
	}

	var count int64
	err = s.grantsFor(ctx, userID).
		Where("modules.module_key = ?", moduleKey).
		Where(actionColumns[act]+" = ?", true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("capability lookup failed: %w", err)
	}

	allowed := count > 0
	if cacheable {
		if err := s.cache.SetCapability(ctx, userID, generation, moduleKey, string(act), allowed); err != nil {
			log.Printf("⚠️  Failed to cache capability: %v", err)
		}
	}
	return allowed, nil
}

// EffectivePermissions returns the merged grants of a user, in catalog order
func (s *CapabilityService) EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]EffectiveGrant, error) {
	type row struct {
		ModuleKey     string
		PermissionKey string
		CanCreate     bool
		CanRead       bool
		CanUpdate     bool
		CanDelete     bool
		CanExport     bool
	}

	var rows []row
	err := s.grantsFor(ctx, userID).
		Select(`modules.module_key, permissions.permission_key,
			role_permissions.can_create, role_permissions.can_read, role_permissions.can_update,
			role_permissions.can_delete, role_permissions.can_export`).
		Order(catalogOrder).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := []EffectiveGrant{}
	index := map[string]int{}
	for _, r := range rows {
		key := r.ModuleKey + "\x00" + r.PermissionKey
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, EffectiveGrant{ModuleKey: r.ModuleKey, PermissionKey: r.PermissionKey})
			i = len(out) - 1
		}
		g := &out[i]
		g.CanCreate = g.CanCreate || r.CanCreate
		g.CanRead = g.CanRead || r.CanRead
		g.CanUpdate = g.CanUpdate || r.CanUpdate
		g.CanDelete = g.CanDelete || r.CanDelete
		g.CanExport = g.CanExport || r.CanExport
	}
	return out, nil
}

func (s *CapabilityService) grantsFor(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Joins("JOIN role_permissions ON role_permissions.role_id = roles.id").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Joins("JOIN modules ON modules.id = permissions.module_id").
		Where("user_roles.user_id = ?", userID).
		Where("roles.is_active = ?", true)
}
