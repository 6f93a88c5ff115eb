package models

import (
	"time"

	"github.com/google/uuid"
)

// RolePermission is one cell row of the role matrix. A row is only stored
// when at least one action flag is set.
type RolePermission struct {
	RoleID       uuid.UUID `json:"role_id" gorm:"type:uuid;primaryKey"`
	PermissionID uuid.UUID `json:"permission_id" gorm:"type:uuid;primaryKey;index"`
	CanCreate    bool      `json:"can_create" gorm:"not null;default:false"`
	CanRead      bool      `json:"can_read" gorm:"not null;default:false"`
	CanUpdate    bool      `json:"can_update" gorm:"not null;default:false"`
	CanDelete    bool      `json:"can_delete" gorm:"not null;default:false"`
	CanExport    bool      `json:"can_export" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Permission Permission `json:"-" gorm:"foreignKey:PermissionID"`
}

func (rp RolePermission) IsEmpty() bool {
	return !rp.CanCreate && !rp.CanRead && !rp.CanUpdate && !rp.CanDelete && !rp.CanExport
}
