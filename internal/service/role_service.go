package service

import (
	"context"
	"errors"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"

	"gorm.io/gorm"
)

type RoleService struct {
	RoleRepo    *repository.RoleRepository
	Permissions *PermissionService
	DB          *gorm.DB
}

func NewRoleService(roleRepo *repository.RoleRepository, permissions *PermissionService, db *gorm.DB) *RoleService {
	return &RoleService{RoleRepo: roleRepo, Permissions: permissions, DB: db}
}

type RoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Groups      []string `json:"groups"`
}

// CreateRole 角色保存时就校验权限组名，带未知组的角色不落库
func (s *RoleService) CreateRole(ctx context.Context, actor *model.AuthContext, req RoleRequest) (*model.Role, error) {
	if !actor.Can("role:create") {
		return nil, util.ErrPermissionDenied
	}
	if _, err := ExpandGroups(req.Groups); err != nil {
		return nil, err
	}
	if _, err := s.RoleRepo.FindByName(req.Name); err == nil {
		return nil, util.NewValidationError("name", "role name already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := &model.Role{
		Name:        req.Name,
		Description: req.Description,
		Groups:      model.StringList(req.Groups),
	}
	if err := s.RoleRepo.Create(role); err != nil {
		return nil, err
	}
	return role, nil
}

// UpdateRole 内置角色不许改名；权限组变更后主动失效缓存
func (s *RoleService) UpdateRole(ctx context.Context, actor *model.AuthContext, id uint, req RoleRequest) (*model.Role, error) {
	if !actor.Can("role:update") && !actor.Can("role:updatePermission") {
		return nil, util.ErrPermissionDenied
	}
	if _, err := ExpandGroups(req.Groups); err != nil {
		return nil, err
	}

	role, err := s.RoleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if role.IsBuiltin && req.Name != role.Name {
		return nil, util.NewValidationError("name", "builtin roles cannot be renamed")
	}

	oldName := role.Name
	role.Name = req.Name
	role.Description = req.Description
	role.Groups = model.StringList(req.Groups)
	if err := s.RoleRepo.Update(role); err != nil {
		return nil, err
	}

	s.Permissions.InvalidateRole(ctx, oldName)
	if role.Name != oldName {
		s.Permissions.InvalidateRole(ctx, role.Name)
	}
	return role, nil
}

// DeleteRole 内置角色和仍被用户引用的角色不可删
func (s *RoleService) DeleteRole(ctx context.Context, actor *model.AuthContext, id uint) error {
	if !actor.Can("role:delete") {
		return util.ErrPermissionDenied
	}
	role, err := s.RoleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	if role.IsBuiltin {
		return util.NewValidationError("id", "builtin roles cannot be deleted")
	}
	count, err := s.RoleRepo.CountUsers(role.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return util.NewValidationError("id", "role is still assigned to users")
	}
	if err := s.RoleRepo.Delete(role.ID); err != nil {
		return err
	}
	s.Permissions.InvalidateRole(ctx, role.Name)
	return nil
}

func (s *RoleService) GetRole(actor *model.AuthContext, id uint) (*model.Role, error) {
	if !actor.Can("role:read") {
		return nil, util.ErrPermissionDenied
	}
	role, err := s.RoleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	return role, nil
}

func (s *RoleService) ListRoles(actor *model.AuthContext) ([]model.Role, error) {
	if !actor.Can("role:read") {
		return nil, util.ErrPermissionDenied
	}
	return s.RoleRepo.List()
}
