package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is one request written by the gateway after it has been served.
type AuditLog struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty" gorm:"type:uuid;index"`
	Method         string     `json:"method" gorm:"size:10;not null"`
	Path           string     `json:"path" gorm:"size:500;not null"`
	Module         string     `json:"module" gorm:"size:100;index"`
	Action         string     `json:"action" gorm:"size:20"`
	StatusCode     int        `json:"status_code" gorm:"not null;index"`
	IPAddress      string     `json:"ip_address" gorm:"size:45"`
	UserAgent      string     `json:"user_agent" gorm:"type:text"`
	Duration       int64      `json:"duration_ms" gorm:"not null"` // milliseconds
	RequestID      string     `json:"request_id" gorm:"size:100;index"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
