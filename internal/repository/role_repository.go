package repository

import (
	"lms_backoffice/internal/model"

	"gorm.io/gorm"
)

type RoleRepository struct {
	DB *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{DB: db}
}

func (r *RoleRepository) Create(role *model.Role) error {
	return r.DB.Create(role).Error
}

func (r *RoleRepository) Update(role *model.Role) error {
	return r.DB.Save(role).Error
}

func (r *RoleRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Role{}, id).Error
}

func (r *RoleRepository) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	if err := r.DB.First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) FindByName(name string) (*model.Role, error) {
	var role model.Role
	if err := r.DB.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) List() ([]model.Role, error) {
	var roles []model.Role
	err := r.DB.Order("id asc").Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) CountUsers(roleID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}
