package services

import "github.com/google/uuid"

// Scope is the tenant view of a caller. Callers with AllOrganizations see every tenant.
type Scope struct {
	OrganizationID   uuid.UUID
	AllOrganizations bool
}

func (s Scope) allows(organizationID uuid.UUID) bool {
	return s.AllOrganizations || s.OrganizationID == organizationID
}
