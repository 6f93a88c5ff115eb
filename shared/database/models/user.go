package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	UserStatusActive   = "ACTIVE"
	UserStatusInactive = "INACTIVE"
)

// User is owned by the HR backend; the RBAC service reads it to resolve role members.
type User struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index"`
	Email          string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	FirstName      string    `json:"first_name" gorm:"size:100"`
	LastName       string    `json:"last_name" gorm:"size:100"`
	UserType       string    `json:"user_type" gorm:"size:50;not null"`
	Status         string    `json:"status" gorm:"size:20;default:'ACTIVE'"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ActiveUserStatuses are the statuses of users that may hold roles. Rows written before
// the column had a default carry an empty status.
var ActiveUserStatuses = []string{"", UserStatusActive}

func (u User) IsActive() bool {
	for _, s := range ActiveUserStatuses {
		if u.Status == s {
			return true
		}
	}
	return false
}

// Coarse user types carried in the token. They drive route gating only.
const (
	UserTypeSuperAdmin = "SuperAdmin"
	UserTypeHRAdmin    = "HR_ADMIN"
	UserTypeHRManager  = "HR_MANAGER"
	UserTypeEmployee   = "EMPLOYEE"
	UserTypeIoTAdmin   = "IOT_ADMIN"
)
