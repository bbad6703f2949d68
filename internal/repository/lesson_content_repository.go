package repository

import (
	"lms_backoffice/internal/model"

	"gorm.io/gorm"
)

type LessonContentRepository struct {
	DB *gorm.DB
}

func NewLessonContentRepository(db *gorm.DB) *LessonContentRepository {
	return &LessonContentRepository{DB: db}
}

func (r *LessonContentRepository) Create(content *model.LessonContent) error {
	return r.DB.Create(content).Error
}

func (r *LessonContentRepository) Update(content *model.LessonContent) error {
	return r.DB.Save(content).Error
}

func (r *LessonContentRepository) Delete(id uint) error {
	return r.DB.Delete(&model.LessonContent{}, id).Error
}

func (r *LessonContentRepository) FindByID(id uint) (*model.LessonContent, error) {
	var content model.LessonContent
	if err := r.DB.First(&content, id).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *LessonContentRepository) List(page, limit int) ([]model.LessonContent, int64, error) {
	var contents []model.LessonContent
	var total int64
	if err := r.DB.Model(&model.LessonContent{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := r.DB.Order("created_at desc").Offset(offset).Limit(limit).Find(&contents).Error
	return contents, total, err
}

func (r *LessonContentRepository) CountByIDs(ids []uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonContent{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
