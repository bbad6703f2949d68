package service

import (
	"errors"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo  *repository.CourseRepository
	SectionRepo *repository.SectionRepository
	ModuleRepo  *repository.ModuleRepository
	DB          *gorm.DB
}

func NewCourseService(courseRepo *repository.CourseRepository, sectionRepo *repository.SectionRepository, moduleRepo *repository.ModuleRepository, db *gorm.DB) *CourseService {
	return &CourseService{
		CourseRepo:  courseRepo,
		SectionRepo: sectionRepo,
		ModuleRepo:  moduleRepo,
		DB:          db,
	}
}

type CourseRequest struct {
	Title       string                  `json:"title" binding:"required"`
	Description string                  `json:"description"`
	Difficulty  string                  `json:"difficulty"`
	Status      string                  `json:"status"`
	ContentType model.CourseContentType `json:"contentType"`
	Thumbnail   string                  `json:"thumbnail"`
	CategoryID  *uint                   `json:"categoryId"`
	TeacherID   *uint                   `json:"teacherId"`
}

type SectionRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	// 0 表示追加到末尾（max+1），显式给定时与兄弟冲突会被拒绝
	Order int `json:"order"`
}

func validDifficulty(d string) bool {
	switch d {
	case "", model.DifficultyBeginner, model.DifficultyIntermediate, model.DifficultyAdvanced:
		return true
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case "", model.StatusDraft, model.StatusPublished, model.StatusArchived:
		return true
	}
	return false
}

func (s *CourseService) CreateCourse(actor *model.AuthContext, req CourseRequest) (*model.Course, error) {
	if !actor.Can("course:create") {
		return nil, util.ErrPermissionDenied
	}
	if !validDifficulty(req.Difficulty) {
		return nil, util.NewValidationError("difficulty", "must be beginner, intermediate or advanced")
	}
	if !validStatus(req.Status) {
		return nil, util.NewValidationError("status", "must be draft, published or archived")
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = model.ContentTypeCourseLesson
	}
	if contentType != model.ContentTypeCourseLesson && contentType != model.ContentTypePracticeTest {
		return nil, util.NewValidationError("contentType", "must be course_lesson or practice_test")
	}

	course := &model.Course{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Status:      req.Status,
		ContentType: contentType,
		Thumbnail:   req.Thumbnail,
		CategoryID:  req.CategoryID,
		TeacherID:   req.TeacherID,
	}
	if course.Difficulty == "" {
		course.Difficulty = model.DifficultyBeginner
	}
	if course.Status == "" {
		course.Status = model.StatusDraft
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) UpdateCourse(actor *model.AuthContext, courseID uint, req CourseRequest) (*model.Course, error) {
	if !actor.Can("course:update") {
		return nil, util.ErrPermissionDenied
	}
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if !validDifficulty(req.Difficulty) {
		return nil, util.NewValidationError("difficulty", "must be beginner, intermediate or advanced")
	}
	if !validStatus(req.Status) {
		return nil, util.NewValidationError("status", "must be draft, published or archived")
	}

	course.Title = req.Title
	course.Description = req.Description
	if req.Difficulty != "" {
		course.Difficulty = req.Difficulty
	}
	if req.Status != "" {
		course.Status = req.Status
	}
	if req.ContentType != "" {
		course.ContentType = req.ContentType
	}
	course.Thumbnail = req.Thumbnail
	course.CategoryID = req.CategoryID
	course.TeacherID = req.TeacherID

	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(actor *model.AuthContext, courseID uint) error {
	if !actor.Can("course:delete") {
		return util.ErrPermissionDenied
	}
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	return s.CourseRepo.Delete(courseID)
}

func (s *CourseService) GetCourse(actor *model.AuthContext, courseID uint) (*model.Course, error) {
	if !actor.Can("course:read") && !actor.Can("course:read:all") {
		return nil, util.ErrPermissionDenied
	}
	course, err := s.CourseRepo.FindByIDWithTree(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	// 仅持 course:read 的用户看不到未发布课程
	if course.Status != model.StatusPublished && !actor.Can("course:read:all") {
		return nil, util.ErrPermissionDenied
	}
	return course, nil
}

// ListCourses 学习端只看已发布课程，管理端可带任意状态过滤
func (s *CourseService) ListCourses(actor *model.AuthContext, status string, categoryID uint, page, limit int) ([]model.Course, int64, error) {
	if !actor.Can("course:read") && !actor.Can("course:read:all") {
		return nil, 0, util.ErrPermissionDenied
	}
	if !actor.Can("course:read:all") {
		status = model.StatusPublished
	}
	return s.CourseRepo.List(status, categoryID, page, limit)
}

// AttachSection 在课程下新建小节。显式 order 与现有兄弟冲突时拒绝，
// 未指定时追加到 max+1，从不隐式复用空出的序号
func (s *CourseService) AttachSection(actor *model.AuthContext, courseID uint, req SectionRequest) (*model.Section, error) {
	if !actor.Can("section:create") {
		return nil, util.ErrPermissionDenied
	}
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if req.Order < 0 {
		return nil, util.NewValidationError("order", "must be a positive integer")
	}

	order := req.Order
	if order == 0 {
		max, err := s.SectionRepo.MaxOrder(courseID)
		if err != nil {
			return nil, err
		}
		order = max + 1
	} else {
		count, err := s.SectionRepo.CountByCourseAndOrder(courseID, order)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, util.ErrOrderCollision
		}
	}

	section := &model.Section{
		CourseID:    courseID,
		Order:       order,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.SectionRepo.Create(section); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *CourseService) UpdateSection(actor *model.AuthContext, sectionID uint, req SectionRequest) (*model.Section, error) {
	if !actor.Can("section:update") {
		return nil, util.ErrPermissionDenied
	}
	section, err := s.SectionRepo.FindByID(sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	section.Title = req.Title
	section.Description = req.Description
	if err := s.SectionRepo.Update(section); err != nil {
		return nil, err
	}
	return section, nil
}

// DetachSection 删除小节：子模块全部置为游离（section 引用清空，
// order 保留），不做级联删除
func (s *CourseService) DetachSection(actor *model.AuthContext, sectionID uint) error {
	if !actor.Can("section:delete") {
		return util.ErrPermissionDenied
	}
	section, err := s.SectionRepo.FindByID(sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.CourseModule{}).
			Where("section_id = ?", section.ID).
			Update("section_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Section{}, section.ID).Error
	})
}
