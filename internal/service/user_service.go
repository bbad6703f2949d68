package service

import (
	"errors"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
	RoleRepo *repository.RoleRepository
	DB       *gorm.DB
}

func NewUserService(userRepo *repository.UserRepository, roleRepo *repository.RoleRepository, db *gorm.DB) *UserService {
	return &UserService{UserRepo: userRepo, RoleRepo: roleRepo, DB: db}
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	RoleID   uint   `json:"roleId" binding:"required"`
}

type UpdateUserRequest struct {
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	RoleID   *uint  `json:"roleId"`
	Disabled *bool  `json:"disabled"`
}

// CreateUser 管理侧建号，可指定任意角色
func (s *UserService) CreateUser(actor *model.AuthContext, req CreateUserRequest) (*model.User, error) {
	if !actor.Can("user:create") {
		return nil, util.ErrPermissionDenied
	}
	if _, err := s.UserRepo.FindByEmail(req.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	role, err := s.RoleRepo.FindByID(req.RoleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		RoleID:   role.ID,
	}
	if err := s.UserRepo.Create(user); err != nil {
		if isDuplicateKey(err) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	user.Role = role
	return user, nil
}

// UpdateUser 本人可改自己的名字和头像，改角色和禁用需要管理权限
func (s *UserService) UpdateUser(actor *model.AuthContext, userID uint, req UpdateUserRequest) (*model.User, error) {
	isSelf := userID == actor.UserID
	if !isSelf && !actor.Can("user:update") {
		return nil, util.ErrPermissionDenied
	}
	if (req.RoleID != nil || req.Disabled != nil) && !actor.Can("user:update") {
		return nil, util.ErrPermissionDenied
	}

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.RoleID != nil {
		if _, err := s.RoleRepo.FindByID(*req.RoleID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrNotFound
			}
			return nil, err
		}
		user.RoleID = *req.RoleID
		user.Role = nil
	}
	if req.Disabled != nil {
		user.Disabled = *req.Disabled
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return s.UserRepo.FindByID(userID)
}

func (s *UserService) ChangePassword(actor *model.AuthContext, userID uint, oldPassword, newPassword string) error {
	if userID != actor.UserID && !actor.Can("user:update") {
		return util.ErrPermissionDenied
	}
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}
	// 本人改密需要验证旧密码，管理员重置不需要
	if userID == actor.UserID {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
			return util.NewValidationError("oldPassword", "incorrect password")
		}
	}
	if len(newPassword) < 8 {
		return util.NewValidationError("newPassword", "must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.UserRepo.Update(user)
}

func (s *UserService) DeleteUser(actor *model.AuthContext, userID uint) error {
	if !actor.Can("user:delete") {
		return util.ErrPermissionDenied
	}
	if userID == actor.UserID {
		return util.NewValidationError("userId", "cannot delete your own account")
	}
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}
	return s.DB.Delete(user).Error
}

func (s *UserService) GetUser(actor *model.AuthContext, userID uint) (*model.User, error) {
	if userID != actor.UserID && !actor.Can("user:read:all") {
		return nil, util.ErrPermissionDenied
	}
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListUsers(actor *model.AuthContext, page, limit int) ([]model.User, int64, error) {
	if !actor.Can("user:read:all") {
		return nil, 0, util.ErrPermissionDenied
	}
	return s.UserRepo.List(page, limit)
}
