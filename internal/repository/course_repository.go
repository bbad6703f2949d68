package repository

import (
	"lms_backoffice/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Course{}, id).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	if err := r.DB.First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByIDWithTree 连同小节与模块一并加载，按各自排序字段升序
func (r *CourseRepository) FindByIDWithTree(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Category").
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.sort_order asc")
		}).
		Preload("Sections.Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_modules.sort_order asc")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) List(status string, categoryID uint, page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64
	query := r.DB.Model(&model.Course{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("Category").Order("created_at desc").Offset(offset).Limit(limit).Find(&courses).Error
	return courses, total, err
}
