package services

import "gorm.io/gorm"

// Services bundles the RBAC services over one database and capability cache
type Services struct {
	Catalog         *CatalogService
	Roles           *RoleService
	RolePermissions *RolePermissionService
	UserRoles       *UserRoleService
	Capabilities    *CapabilityService
}

// New wires every service. cache may be nil when redis is not configured.
func New(db *gorm.DB, cache CapabilityCache) *Services {
	return &Services{
		Catalog:         NewCatalogService(db),
		Roles:           NewRoleService(db, cache),
		RolePermissions: NewRolePermissionService(db, cache),
		UserRoles:       NewUserRoleService(db, cache),
		Capabilities:    NewCapabilityService(db, cache),
	}
}
