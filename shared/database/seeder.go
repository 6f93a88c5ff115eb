package database

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/shared/config"
	"hrms-backend/shared/database/models"
)

// CatalogModule describes one seeded module and its permissions, in display order.
type CatalogModule struct {
	Key         string
	Name        string
	Description string
	Permissions []CatalogPermission
}

type CatalogPermission struct {
	Key  string
	Name string
}

// SystemRole is a seeded, read-only role mirroring one user type.
// Grants maps module_key to action letters: c r u d x(export).
type SystemRole struct {
	Key      string
	Name     string
	UserType string
	Grants   map[string]string
}

var DefaultCatalog = []CatalogModule{
	{Key: "dashboard", Name: "Dashboard", Description: "Landing dashboard widgets", Permissions: []CatalogPermission{
		{Key: "dashboard.view", Name: "View dashboard"},
	}},
	{Key: "employees", Name: "Employees", Description: "Employee records", Permissions: []CatalogPermission{
		{Key: "employees.records", Name: "Employee records"},
		{Key: "employees.documents", Name: "Employee documents"},
	}},
	{Key: "attendance", Name: "Attendance", Description: "Check-in, check-out and attendance history", Permissions: []CatalogPermission{
		{Key: "attendance.records", Name: "Attendance records"},
		{Key: "attendance.check_in", Name: "Check in and out"},
	}},
	{Key: "payroll", Name: "Payroll", Description: "Payroll runs and payslips", Permissions: []CatalogPermission{
		{Key: "payroll.runs", Name: "Payroll runs"},
		{Key: "payroll.payslips", Name: "Payslips"},
	}},
	{Key: "organization", Name: "Organization", Description: "Departments and positions", Permissions: []CatalogPermission{
		{Key: "organization.departments", Name: "Departments"},
		{Key: "organization.positions", Name: "Positions"},
	}},
	{Key: "devices", Name: "Devices", Description: "IoT device registry and telemetry", Permissions: []CatalogPermission{
		{Key: "devices.registry", Name: "Device registry"},
		{Key: "devices.telemetry", Name: "Device telemetry"},
	}},
	{Key: "calendar", Name: "Calendar", Description: "Company calendar", Permissions: []CatalogPermission{
		{Key: "calendar.events", Name: "Calendar events"},
	}},
	{Key: "roles", Name: "Roles & Permissions", Description: "Role definitions and permission matrix", Permissions: []CatalogPermission{
		{Key: "roles.management", Name: "Role management"},
		{Key: "roles.assignments", Name: "Role assignments"},
	}},
}

var DefaultSystemRoles = []SystemRole{
	{Key: "super_admin", Name: "Super Admin", UserType: models.UserTypeSuperAdmin, Grants: map[string]string{
		"dashboard": "crudx", "employees": "crudx", "attendance": "crudx", "payroll": "crudx",
		"organization": "crudx", "devices": "crudx", "calendar": "crudx", "roles": "crudx",
	}},
	{Key: "hr_admin", Name: "HR Admin", UserType: models.UserTypeHRAdmin, Grants: map[string]string{
		"dashboard": "r", "employees": "crudx", "attendance": "crudx", "payroll": "crudx",
		"organization": "crudx", "calendar": "crud", "roles": "crud",
	}},
	{Key: "hr_manager", Name: "HR Manager", UserType: models.UserTypeHRManager, Grants: map[string]string{
		"dashboard": "r", "employees": "rux", "attendance": "rux", "payroll": "r",
		"organization": "r", "calendar": "crud",
	}},
	{Key: "employee", Name: "Employee", UserType: models.UserTypeEmployee, Grants: map[string]string{
		"dashboard": "r", "attendance": "cr", "calendar": "r",
	}},
	{Key: "iot_admin", Name: "IoT Admin", UserType: models.UserTypeIoTAdmin, Grants: map[string]string{
		"dashboard": "r", "devices": "crudx",
	}},
}

// SystemRoleKeyForUserType returns the seeded role a user type is attached to.
func SystemRoleKeyForUserType(userType string) (string, bool) {
	for _, r := range DefaultSystemRoles {
		if r.UserType == userType {
			return r.Key, true
		}
	}
	return "", false
}

// SeedDatabase seeds the global connection
func SeedDatabase() error {
	return Seed(DB, config.GetConfig().SeedDemoData)
}

// Seed is idempotent: existing rows are left untouched, missing ones are created.
func Seed(db *gorm.DB, withDemoData bool) error {
	log.Println("🌱 Checking database seed data...")

	modulesCreated, permissionsCreated, err := seedCatalog(db)
	if err != nil {
		return err
	}

	if modulesCreated > 0 || permissionsCreated > 0 {
		log.Printf("✅ Permission catalog seeded (%d modules, %d permissions created)", modulesCreated, permissionsCreated)
	} else {
		log.Println("✅ Permission catalog is up to date")
	}

	if !withDemoData {
		return nil
	}

	org, err := SeedOrganization(db, "Demo Organization", "demo")
	if err != nil {
		return err
	}

	rolesCreated, err := SeedSystemRoles(db, org.ID)
	if err != nil {
		return err
	}

	usersCreated, err := seedDemoUsers(db, org)
	if err != nil {
		return err
	}

	log.Printf("✅ Demo data seeded (%d system roles, %d users created)", rolesCreated, usersCreated)
	return nil
}

func seedCatalog(db *gorm.DB) (int, int, error) {
	modulesCreated, permissionsCreated := 0, 0

	for i, def := range DefaultCatalog {
		var module models.Module
		err := db.Where("module_key = ?", def.Key).First(&module).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			module = models.Module{
				ModuleKey:   def.Key,
				ModuleName:  def.Name,
				Description: def.Description,
				SortOrder:   (i + 1) * 10,
			}
			if err := db.Create(&module).Error; err != nil {
				return modulesCreated, permissionsCreated, fmt.Errorf("failed to create module %s: %w", def.Key, err)
			}
			modulesCreated++
		} else if err != nil {
			return modulesCreated, permissionsCreated, err
		}

		for j, p := range def.Permissions {
			var existing models.Permission
			err := db.Where("module_id = ? AND permission_key = ?", module.ID, p.Key).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return modulesCreated, permissionsCreated, err
			}

			permission := models.Permission{
				ModuleID:       module.ID,
				PermissionKey:  p.Key,
				PermissionName: p.Name,
				SortOrder:      (j + 1) * 10,
			}
			if err := db.Create(&permission).Error; err != nil {
				return modulesCreated, permissionsCreated, fmt.Errorf("failed to create permission %s: %w", p.Key, err)
			}
			permissionsCreated++
		}
	}

	return modulesCreated, permissionsCreated, nil
}

// SeedOrganization returns the organization with the given slug, creating it if needed
func SeedOrganization(db *gorm.DB, name, slug string) (models.Organization, error) {
	var org models.Organization
	err := db.Where("slug = ?", slug).First(&org).Error
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return org, err
	}

	org = models.Organization{Name: name, Slug: slug, Status: "ACTIVE"}
	if err := db.Create(&org).Error; err != nil {
		return org, fmt.Errorf("failed to create organization %s: %w", slug, err)
	}
	log.Printf("✅ Organization created: %s", slug)
	return org, nil
}

// SeedSystemRoles creates the read-only roles of an organization together with their grants.
// Grants are written directly because system roles reject matrix edits through the services.
func SeedSystemRoles(db *gorm.DB, organizationID uuid.UUID) (int, error) {
	var permissions []models.Permission
	if err := db.Table("permissions").
		Select("permissions.*, modules.module_key").
		Joins("JOIN modules ON modules.id = permissions.module_id").
		Find(&permissions).Error; err != nil {
		return 0, fmt.Errorf("failed to load catalog: %w", err)
	}

	created := 0
	for _, def := range DefaultSystemRoles {
		var role models.Role
		err := db.Where("organization_id = ? AND role_key = ?", organizationID, def.Key).First(&role).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		role = models.Role{
			OrganizationID: organizationID,
			RoleName:       def.Name,
			RoleKey:        def.Key,
			Description:    fmt.Sprintf("Built-in role for %s users", def.UserType),
			IsActive:       true,
			IsSystemRole:   true,
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
			for _, p := range permissions {
				grant := grantFromLetters(def.Grants[p.ModuleKey])
				if grant.IsEmpty() {
					continue
				}
				grant.RoleID = role.ID
				grant.PermissionID = p.ID
				if err := tx.Create(&grant).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return created, fmt.Errorf("failed to create system role %s: %w", def.Key, err)
		}
		created++
	}

	return created, nil
}

func grantFromLetters(letters string) models.RolePermission {
	return models.RolePermission{
		CanCreate: strings.Contains(letters, "c"),
		CanRead:   strings.Contains(letters, "r"),
		CanUpdate: strings.Contains(letters, "u"),
		CanDelete: strings.Contains(letters, "d"),
		CanExport: strings.Contains(letters, "x"),
	}
}

func seedDemoUsers(db *gorm.DB, org models.Organization) (int, error) {
	demo := []models.User{
		{Email: "superadmin@" + org.Slug + ".local", FirstName: "Super", LastName: "Admin", UserType: models.UserTypeSuperAdmin},
		{Email: "hr.admin@" + org.Slug + ".local", FirstName: "Hana", LastName: "Reyes", UserType: models.UserTypeHRAdmin},
		{Email: "hr.manager@" + org.Slug + ".local", FirstName: "Malik", LastName: "Osei", UserType: models.UserTypeHRManager},
		{Email: "employee@" + org.Slug + ".local", FirstName: "Erin", LastName: "Park", UserType: models.UserTypeEmployee},
		{Email: "iot.admin@" + org.Slug + ".local", FirstName: "Ivo", LastName: "Tan", UserType: models.UserTypeIoTAdmin},
	}

	created := 0
	for _, u := range demo {
		var existing models.User
		err := db.Where("email = ?", u.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		u.OrganizationID = org.ID
		u.Status = models.UserStatusActive
		if err := db.Create(&u).Error; err != nil {
			return created, fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}

		roleKey, ok := SystemRoleKeyForUserType(u.UserType)
		if ok {
			var role models.Role
			if err := db.Where("organization_id = ? AND role_key = ?", org.ID, roleKey).First(&role).Error; err != nil {
				return created, err
			}
			if err := db.Create(&models.UserRole{UserID: u.ID, RoleID: role.ID}).Error; err != nil {
				return created, err
			}
		}
		created++
	}

	return created, nil
}
