package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role struct {
	ID             uuid.UUID `json:"role_id" gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;uniqueIndex:idx_role_org_key"`
	RoleName       string    `json:"role_name" gorm:"size:100;not null"`
	RoleKey        string    `json:"role_key" gorm:"size:100;not null;uniqueIndex:idx_role_org_key"`
	Description    string    `json:"description" gorm:"type:text"`
	IsActive       bool      `json:"is_active" gorm:"not null;default:true"`
	IsSystemRole   bool      `json:"is_system_role" gorm:"not null;default:false"`
	Version        int       `json:"version" gorm:"not null;default:1"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}
