package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hrms-backend/shared/database/models"
)

type UserRoleService struct {
	db    *gorm.DB
	cache CapabilityCache
}

func NewUserRoleService(db *gorm.DB, cache CapabilityCache) *UserRoleService {
	return &UserRoleService{db: db, cache: cache}
}

// AssignRoleToUser attaches a role to a user of the same organization. Repeating it is a no-op.
func (s *UserRoleService) AssignRoleToUser(ctx context.Context, scope Scope, userID, roleID uuid.UUID) error {
	role, err := findRole(ctx, s.db, scope, roleID)
	if err != nil {
		return err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return translate(err, "user")
	}
	if user.OrganizationID != role.OrganizationID {
		return notFound("user")
	}
	if !user.IsActive() {
		return newValidationError("user_id", "user is not active")
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRole{UserID: user.ID, RoleID: role.ID})
	if res.Error != nil {
		return fmt.Errorf("failed to assign role: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		invalidateUsers(ctx, s.cache, []uuid.UUID{user.ID})
		log.Printf("✅ Role %s assigned to user %s", role.RoleKey, user.ID)
	}
	return nil
}

// RemoveRoleFromUser detaches a role. A missing assignment is not an error.
func (s *UserRoleService) RemoveRoleFromUser(ctx context.Context, scope Scope, userID, roleID uuid.UUID) error {
	role, err := findRole(ctx, s.db, scope, roleID)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, role.ID).
		Delete(&models.UserRole{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove role: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		invalidateUsers(ctx, s.cache, []uuid.UUID{userID})
		log.Printf("🗑️  Role %s removed from user %s", role.RoleKey, userID)
	}
	return nil
}

// ListUsersForRole returns the members of a role
func (s *UserRoleService) ListUsersForRole(ctx context.Context, scope Scope, roleID uuid.UUID) ([]models.User, error) {
	role, err := findRole(ctx, s.db, scope, roleID)
	if err != nil {
		return nil, err
	}

	users := []models.User{}
	err = s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Where("user_roles.role_id = ?", role.ID).
		Order("users.first_name ASC, users.last_name ASC, users.email ASC").
		Find(&users).Error
	return users, err
}

// ListAvailableUsers returns active users of the role's organization that do not hold it yet
func (s *UserRoleService) ListAvailableUsers(ctx context.Context, scope Scope, roleID uuid.UUID) ([]models.User, error) {
	role, err := findRole(ctx, s.db, scope, roleID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	assigned := db.Model(&models.UserRole{}).Select("user_id").Where("role_id = ?", role.ID)

	users := []models.User{}
	err = db.
		Where("organization_id = ?", role.OrganizationID).
		Where("status IN ?", models.ActiveUserStatuses).
		Where("id NOT IN (?)", assigned).
		Order("first_name ASC, last_name ASC, email ASC").
		Find(&users).Error
	return users, err
}

// ListRolesForUser returns every role held by a user, active or not
func (s *UserRoleService) ListRolesForUser(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	roles := []models.Role{}
	err := s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.role_name ASC").
		Find(&roles).Error
	return roles, err
}

// FindUser loads a user visible to scope. Users of other organizations are reported as not found.
func (s *UserRoleService) FindUser(ctx context.Context, scope Scope, userID uuid.UUID) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return models.User{}, translate(err, "user")
	}
	if !scope.allows(user.OrganizationID) {
		return models.User{}, notFound("user")
	}
	return user, nil
}
