package repository

import (
	"lms_backoffice/internal/model"

	"gorm.io/gorm"
)

type SectionRepository struct {
	DB *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{DB: db}
}

func (r *SectionRepository) Create(section *model.Section) error {
	return r.DB.Create(section).Error
}

func (r *SectionRepository) Update(section *model.Section) error {
	return r.DB.Save(section).Error
}

func (r *SectionRepository) FindByID(id uint) (*model.Section, error) {
	var section model.Section
	if err := r.DB.First(&section, id).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *SectionRepository) ListByCourse(courseID uint) ([]model.Section, error) {
	var sections []model.Section
	err := r.DB.Where("course_id = ?", courseID).Order("sort_order asc").Find(&sections).Error
	return sections, err
}

func (r *SectionRepository) CountByCourseAndOrder(courseID uint, order int) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Section{}).
		Where("course_id = ? AND sort_order = ?", courseID, order).
		Count(&count).Error
	return count, err
}

func (r *SectionRepository) MaxOrder(courseID uint) (int, error) {
	var max *int
	err := r.DB.Model(&model.Section{}).
		Where("course_id = ?", courseID).
		Select("MAX(sort_order)").
		Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max, nil
}
