package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is a set membership: the composite key keeps (user, role) unique.
type UserRole struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	RoleID    uuid.UUID `json:"role_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}
