package service

import (
	"errors"

	"lms_backoffice/internal/config"
	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	RoleRepo *repository.RoleRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, roleRepo *repository.RoleRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		RoleRepo: roleRepo,
		Cfg:      cfg,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register 开放注册固定落到 student 角色，其他角色走用户管理
func (s *AuthService) Register(req RegisterRequest) (*model.User, error) {
	if _, err := s.UserRepo.FindByEmail(req.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role, err := s.RoleRepo.FindByName("student")
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
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

func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		return "", nil, errors.New("invalid credentials")
	}
	if user.Disabled {
		return "", nil, errors.New("account disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	} else {
		role, err := s.RoleRepo.FindByID(user.RoleID)
		if err != nil {
			return "", nil, err
		}
		roleName = role.Name
	}

	token, err := util.GenerateJWT(user, roleName, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}
	user, _ := s.UserRepo.FindByID(claims.UserID)
	return user
}
