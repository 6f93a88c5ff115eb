package services

import (
	"context"

	"gorm.io/gorm"

	"hrms-backend/shared/database/models"
)

const catalogOrder = "modules.sort_order ASC, modules.module_key ASC, permissions.sort_order ASC, permissions.permission_key ASC"

// CatalogService reads the seeded module and permission catalog
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListModules returns every module with its permissions nested, both in a stable order
func (s *CatalogService) ListModules(ctx context.Context) ([]models.Module, error) {
	var modules []models.Module
	err := s.db.WithContext(ctx).
		Preload("Permissions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, permission_key ASC")
		}).
		Order("sort_order ASC, module_key ASC").
		Find(&modules).Error
	if err != nil {
		return nil, err
	}

	for i := range modules {
		for j := range modules[i].Permissions {
			modules[i].Permissions[j].ModuleKey = modules[i].ModuleKey
		}
	}
	return modules, nil
}

// ListAllPermissions returns the flat catalog in module order, then permission order
func (s *CatalogService) ListAllPermissions(ctx context.Context) ([]models.Permission, error) {
	permissions := []models.Permission{}
	err := s.db.WithContext(ctx).
		Model(&models.Permission{}).
		Select("permissions.*, modules.module_key").
		Joins("JOIN modules ON modules.id = permissions.module_id").
		Order(catalogOrder).
		Find(&permissions).Error
	return permissions, err
}
