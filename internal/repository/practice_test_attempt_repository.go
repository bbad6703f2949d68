package repository

import (
	"lms_backoffice/internal/model"

	"gorm.io/gorm"
)

type PracticeTestAttemptRepository struct {
	DB *gorm.DB
}

func NewPracticeTestAttemptRepository(db *gorm.DB) *PracticeTestAttemptRepository {
	return &PracticeTestAttemptRepository{DB: db}
}

func (r *PracticeTestAttemptRepository) Create(attempt *model.PracticeTestAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *PracticeTestAttemptRepository) Update(attempt *model.PracticeTestAttempt) error {
	return r.DB.Save(attempt).Error
}

func (r *PracticeTestAttemptRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("attempt_id = ?", id).Delete(&model.TestAttemptAnswer{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.PracticeTestAttempt{}, id).Error
	})
}

func (r *PracticeTestAttemptRepository) FindByID(id uint) (*model.PracticeTestAttempt, error) {
	var attempt model.PracticeTestAttempt
	if err := r.DB.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *PracticeTestAttemptRepository) FindByIDWithAnswers(id uint) (*model.PracticeTestAttempt, error) {
	var attempt model.PracticeTestAttempt
	if err := r.DB.Preload("Answers").First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *PracticeTestAttemptRepository) CountByUserAndModule(userID, testModuleID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.PracticeTestAttempt{}).
		Where("user_id = ? AND test_module_id = ?", userID, testModuleID).
		Count(&count).Error
	return count, err
}

func (r *PracticeTestAttemptRepository) MaxAttemptNumber(userID, testModuleID uint) (int, error) {
	var max *int
	err := r.DB.Model(&model.PracticeTestAttempt{}).
		Where("user_id = ? AND test_module_id = ?", userID, testModuleID).
		Select("MAX(attempt_number)").
		Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max, nil
}

func (r *PracticeTestAttemptRepository) ListByUserAndModule(userID, testModuleID uint) ([]model.PracticeTestAttempt, error) {
	var attempts []model.PracticeTestAttempt
	err := r.DB.Where("user_id = ? AND test_module_id = ?", userID, testModuleID).
		Order("attempt_number asc").Find(&attempts).Error
	return attempts, err
}
