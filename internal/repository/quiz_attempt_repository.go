package repository

import (
	"lms_backoffice/internal/model"

	"gorm.io/gorm"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) Create(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *QuizAttemptRepository) Update(attempt *model.QuizAttempt) error {
	return r.DB.Save(attempt).Error
}

func (r *QuizAttemptRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("attempt_id = ?", id).Delete(&model.AttemptAnswer{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.QuizAttempt{}, id).Error
	})
}

func (r *QuizAttemptRepository) FindByID(id uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	if err := r.DB.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *QuizAttemptRepository) FindByIDWithAnswers(id uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	if err := r.DB.Preload("Answers").First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *QuizAttemptRepository) CountByUserAndModule(userID, moduleID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Count(&count).Error
	return count, err
}

func (r *QuizAttemptRepository) MaxAttemptNumber(userID, moduleID uint) (int, error) {
	var max *int
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Select("MAX(attempt_number)").
		Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max, nil
}

func (r *QuizAttemptRepository) ListByUserAndModule(userID, moduleID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("attempt_number asc").Find(&attempts).Error
	return attempts, err
}

func (r *QuizAttemptRepository) ListByModule(moduleID uint, status string, page, limit int) ([]model.QuizAttempt, int64, error) {
	var attempts []model.QuizAttempt
	var total int64
	query := r.DB.Model(&model.QuizAttempt{}).Where("module_id = ?", moduleID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&attempts).Error
	return attempts, total, err
}
