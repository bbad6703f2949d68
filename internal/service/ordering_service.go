package service

import (
	"errors"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"

	"gorm.io/gorm"
)

// 可重排的父级类型
const (
	ParentCourse       = "course"       // 重排课程下的小节
	ParentSection      = "section"      // 重排小节下的模块
	ParentLessonModule = "lessonModule" // 重排 lesson 模块下的内容
	ParentQuizModule   = "quizModule"   // 重排 quiz 模块下的题目
	ParentTestModule   = "testModule"   // 重排 test 模块下的 quiz 小节
)

type OrderingService struct {
	SectionRepo *repository.SectionRepository
	ModuleRepo  *repository.ModuleRepository
	DB          *gorm.DB
}

func NewOrderingService(sectionRepo *repository.SectionRepository, moduleRepo *repository.ModuleRepository, db *gorm.DB) *OrderingService {
	return &OrderingService{SectionRepo: sectionRepo, ModuleRepo: moduleRepo, DB: db}
}

type ReorderRequest struct {
	ParentKind string `json:"parentKind" binding:"required"`
	ParentID   uint   `json:"parentId" binding:"required"`
	IDs        []uint `json:"ids" binding:"required"`
}

// checkPermutation 请求的 id 列表必须恰好是现有子集合的一个排列，
// 多、少、重复或出现外来 id 都拒绝
func checkPermutation(existing, requested []uint) error {
	if len(existing) != len(requested) {
		return util.ErrOrderMismatch
	}
	remaining := make(map[uint]struct{}, len(existing))
	for _, id := range existing {
		remaining[id] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := remaining[id]; !ok {
			return util.ErrOrderMismatch
		}
		delete(remaining, id)
	}
	return nil
}

// Reorder 按请求顺序重新编号子集合，位置写为 1..n。
// 整个重排在一个事务里完成
func (s *OrderingService) Reorder(actor *model.AuthContext, req ReorderRequest) error {
	switch req.ParentKind {
	case ParentCourse:
		if !actor.Can("course:update") {
			return util.ErrPermissionDenied
		}
		return s.reorderSections(req.ParentID, req.IDs)
	case ParentSection:
		if !actor.Can("module:update") {
			return util.ErrPermissionDenied
		}
		return s.reorderModules(req.ParentID, req.IDs)
	case ParentLessonModule:
		if !actor.Can("module:update") {
			return util.ErrPermissionDenied
		}
		return s.reorderContents(req.ParentID, req.IDs)
	case ParentQuizModule:
		if !actor.Can("module:update") {
			return util.ErrPermissionDenied
		}
		return s.reorderQuestions(req.ParentID, req.IDs)
	case ParentTestModule:
		if !actor.Can("module:update") {
			return util.ErrPermissionDenied
		}
		return s.reorderTestEntries(req.ParentID, req.IDs)
	default:
		return util.NewValidationError("parentKind", "unknown parent kind")
	}
}

func (s *OrderingService) reorderSections(courseID uint, ids []uint) error {
	sections, err := s.SectionRepo.ListByCourse(courseID)
	if err != nil {
		return err
	}
	existing := make([]uint, 0, len(sections))
	for _, sec := range sections {
		existing = append(existing, sec.ID)
	}
	if err := checkPermutation(existing, ids); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for idx, id := range ids {
			if err := tx.Model(&model.Section{}).Where("id = ?", id).Update("sort_order", idx+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *OrderingService) reorderModules(sectionID uint, ids []uint) error {
	if _, err := s.SectionRepo.FindByID(sectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	modules, err := s.ModuleRepo.ListBySection(sectionID)
	if err != nil {
		return err
	}
	existing := make([]uint, 0, len(modules))
	for _, m := range modules {
		existing = append(existing, m.ID)
	}
	if err := checkPermutation(existing, ids); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for idx, id := range ids {
			if err := tx.Model(&model.CourseModule{}).Where("id = ?", id).Update("sort_order", idx+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *OrderingService) reorderContents(moduleID uint, ids []uint) error {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	if module.ModuleType != model.ModuleLesson {
		return util.NewValidationError("parentId", "not a lesson module")
	}
	contents, err := s.ModuleRepo.ListContents(moduleID)
	if err != nil {
		return err
	}
	existing := make([]uint, 0, len(contents))
	for _, c := range contents {
		existing = append(existing, c.LessonContentID)
	}
	if err := checkPermutation(existing, ids); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for idx, id := range ids {
			err := tx.Model(&model.ModuleContent{}).
				Where("module_id = ? AND lesson_content_id = ?", moduleID, id).
				Update("sort_order", idx+1).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *OrderingService) reorderQuestions(moduleID uint, ids []uint) error {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	if module.ModuleType != model.ModuleQuiz {
		return util.NewValidationError("parentId", "not a quiz module")
	}
	questions, err := s.ModuleRepo.ListQuestions(moduleID)
	if err != nil {
		return err
	}
	existing := make([]uint, 0, len(questions))
	for _, q := range questions {
		existing = append(existing, q.QuestionID)
	}
	if err := checkPermutation(existing, ids); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for idx, id := range ids {
			err := tx.Model(&model.ModuleQuestion{}).
				Where("module_id = ? AND question_id = ?", moduleID, id).
				Update("sort_order", idx+1).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *OrderingService) reorderTestEntries(moduleID uint, ids []uint) error {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	if module.ModuleType != model.ModuleTest {
		return util.NewValidationError("parentId", "not a test module")
	}
	entries, err := s.ModuleRepo.ListTestEntries(moduleID)
	if err != nil {
		return err
	}
	existing := make([]uint, 0, len(entries))
	for _, e := range entries {
		existing = append(existing, e.QuizModuleID)
	}
	if err := checkPermutation(existing, ids); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for idx, id := range ids {
			err := tx.Model(&model.TestQuizEntry{}).
				Where("test_module_id = ? AND quiz_module_id = ?", moduleID, id).
				Update("sort_order", idx+1).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
