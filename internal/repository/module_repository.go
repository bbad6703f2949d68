package repository

import (
	"lms_backoffice/internal/model"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

func (r *ModuleRepository) Create(module *model.CourseModule) error {
	return r.DB.Create(module).Error
}

func (r *ModuleRepository) Update(module *model.CourseModule) error {
	return r.DB.Save(module).Error
}

func (r *ModuleRepository) Delete(id uint) error {
	return r.DB.Delete(&model.CourseModule{}, id).Error
}

func (r *ModuleRepository) FindByID(id uint) (*model.CourseModule, error) {
	var module model.CourseModule
	if err := r.DB.First(&module, id).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

// FindByIDFull 连同变体明细一并加载
func (r *ModuleRepository) FindByIDFull(id uint) (*model.CourseModule, error) {
	var module model.CourseModule
	err := r.DB.
		Preload("Contents", func(db *gorm.DB) *gorm.DB {
			return db.Order("module_contents.sort_order asc")
		}).
		Preload("Contents.LessonContent").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("module_questions.sort_order asc")
		}).
		Preload("Questions.Question").
		Preload("TestEntries", func(db *gorm.DB) *gorm.DB {
			return db.Order("test_quiz_entries.sort_order asc")
		}).
		Preload("TestEntries.QuizModule").
		First(&module, id).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *ModuleRepository) ListBySection(sectionID uint) ([]model.CourseModule, error) {
	var modules []model.CourseModule
	err := r.DB.Where("section_id = ?", sectionID).Order("sort_order asc").Find(&modules).Error
	return modules, err
}

// ListStandalone 列出未挂到任何小节的模块
func (r *ModuleRepository) ListStandalone(page, limit int) ([]model.CourseModule, int64, error) {
	var modules []model.CourseModule
	var total int64
	query := r.DB.Model(&model.CourseModule{}).Where("section_id IS NULL")
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&modules).Error
	return modules, total, err
}

func (r *ModuleRepository) ListContents(moduleID uint) ([]model.ModuleContent, error) {
	var contents []model.ModuleContent
	err := r.DB.Where("module_id = ?", moduleID).Order("sort_order asc").Find(&contents).Error
	return contents, err
}

func (r *ModuleRepository) ListQuestions(moduleID uint) ([]model.ModuleQuestion, error) {
	var questions []model.ModuleQuestion
	err := r.DB.Preload("Question").Where("module_id = ?", moduleID).Order("sort_order asc").Find(&questions).Error
	return questions, err
}

func (r *ModuleRepository) ListTestEntries(testModuleID uint) ([]model.TestQuizEntry, error) {
	var entries []model.TestQuizEntry
	err := r.DB.Where("test_module_id = ?", testModuleID).Order("sort_order asc").Find(&entries).Error
	return entries, err
}
