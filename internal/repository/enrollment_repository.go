package repository

import (
	"lms_backoffice/internal/model"
	"time"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) error {
	return r.DB.Create(enrollment).Error
}

func (r *EnrollmentRepository) Delete(id uint) error {
	// 退课为硬删除，不保留软删记录
	return r.DB.Unscoped().Delete(&model.Enrollment{}, id).Error
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.DB.First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("user_id = ?", userID).Order("enrollment_date desc").Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) ListByCourse(courseID uint, page, limit int) ([]model.Enrollment, int64, error) {
	var enrollments []model.Enrollment
	var total int64
	query := r.DB.Model(&model.Enrollment{}).Where("course_id = ?", courseID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("enrollment_date desc").Offset(offset).Limit(limit).Find(&enrollments).Error
	return enrollments, total, err
}

func (r *EnrollmentRepository) TouchAccess(id uint) error {
	return r.DB.Model(&model.Enrollment{}).Where("id = ?", id).Update("last_accessed_at", time.Now()).Error
}

func (r *EnrollmentRepository) UpdateProgress(id uint, percentage float64) error {
	return r.DB.Model(&model.Enrollment{}).Where("id = ?", id).Update("progress_percentage", percentage).Error
}
