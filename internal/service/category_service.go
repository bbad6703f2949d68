package service

import (
	"errors"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"

	"gorm.io/gorm"
)

type CategoryService struct {
	CategoryRepo *repository.CategoryRepository
	DB           *gorm.DB
}

func NewCategoryService(categoryRepo *repository.CategoryRepository, db *gorm.DB) *CategoryService {
	return &CategoryService{CategoryRepo: categoryRepo, DB: db}
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *CategoryService) CreateCategory(actor *model.AuthContext, req CategoryRequest) (*model.Category, error) {
	if !actor.Can("category:create") {
		return nil, util.ErrPermissionDenied
	}
	category := &model.Category{Name: req.Name, Description: req.Description}
	if err := s.CategoryRepo.Create(category); err != nil {
		if isDuplicateKey(err) {
			return nil, util.NewValidationError("name", "category name already in use")
		}
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) UpdateCategory(actor *model.AuthContext, id uint, req CategoryRequest) (*model.Category, error) {
	if !actor.Can("category:update") {
		return nil, util.ErrPermissionDenied
	}
	category, err := s.CategoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	category.Name = req.Name
	category.Description = req.Description
	if err := s.CategoryRepo.Update(category); err != nil {
		if isDuplicateKey(err) {
			return nil, util.NewValidationError("name", "category name already in use")
		}
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) DeleteCategory(actor *model.AuthContext, id uint) error {
	if !actor.Can("category:delete") {
		return util.ErrPermissionDenied
	}
	if _, err := s.CategoryRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	return s.CategoryRepo.Delete(id)
}

func (s *CategoryService) ListCategories(actor *model.AuthContext) ([]model.Category, error) {
	if !actor.Can("category:read") && !actor.Can("category:create") {
		return nil, util.ErrPermissionDenied
	}
	return s.CategoryRepo.List()
}
