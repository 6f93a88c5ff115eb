package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Module groups the permissions of one functional area (employees, attendance, ...).
type Module struct {
	ID          uuid.UUID `json:"module_id" gorm:"type:uuid;primaryKey"`
	ModuleKey   string    `json:"module_key" gorm:"size:100;uniqueIndex;not null"`
	ModuleName  string    `json:"module_name" gorm:"size:150;not null"`
	Description string    `json:"description" gorm:"type:text"`
	SortOrder   int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Permissions []Permission `json:"permissions" gorm:"foreignKey:ModuleID"`
}

func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Permission is a catalog entry. It carries no grant state; grants live in RolePermission.
type Permission struct {
	ID             uuid.UUID `json:"permission_id" gorm:"type:uuid;primaryKey"`
	ModuleID       uuid.UUID `json:"module_id" gorm:"type:uuid;not null;uniqueIndex:idx_permission_module_key"`
	PermissionKey  string    `json:"permission_key" gorm:"size:100;not null;uniqueIndex:idx_permission_module_key"`
	PermissionName string    `json:"permission_name" gorm:"size:150;not null"`
	Description    string    `json:"description" gorm:"type:text"`
	SortOrder      int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Filled by catalog queries, not a column
	ModuleKey string `json:"module_key,omitempty" gorm:"->;-:migration"`
}

func (p *Permission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
