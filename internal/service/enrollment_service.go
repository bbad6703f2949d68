package service

import (
	"errors"
	"strings"
	"time"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"

	"gorm.io/gorm"
)

type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	DB             *gorm.DB
}

func NewEnrollmentService(enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository, db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{EnrollmentRepo: enrollmentRepo, CourseRepo: courseRepo, DB: db}
}

// Enroll 报名课程。学生只能给自己报名，管理侧可以代报。
// 唯一索引兜底并发下的重复报名
func (s *EnrollmentService) Enroll(actor *model.AuthContext, userID, courseID uint) (*model.Enrollment, error) {
	if userID != actor.UserID && !actor.Can("admin:enrollment:create") {
		return nil, util.ErrPermissionDenied
	}
	if userID == actor.UserID && !actor.Can("enrollment:create") && !actor.Can("admin:enrollment:create") {
		return nil, util.ErrPermissionDenied
	}

	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if course.Status != model.StatusPublished && !actor.Can("admin:enrollment:create") {
		return nil, util.ErrNotFound
	}

	if _, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		EnrollmentDate: time.Now(),
	}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		if isDuplicateKey(err) {
			return nil, util.ErrAlreadyEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

// Unenroll 退课并抹掉报名记录（硬删除），历史作答不受影响
func (s *EnrollmentService) Unenroll(actor *model.AuthContext, userID, courseID uint) error {
	if userID != actor.UserID && !actor.Can("admin:enrollment:delete") {
		return util.ErrPermissionDenied
	}
	if userID == actor.UserID && !actor.Can("enrollment:delete") && !actor.Can("admin:enrollment:delete") {
		return util.ErrPermissionDenied
	}
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	return s.EnrollmentRepo.Delete(enrollment.ID)
}

// TouchAccess 记录最近一次访问时间，学习端打开课程时调用
func (s *EnrollmentService) TouchAccess(actor *model.AuthContext, courseID uint) error {
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(actor.UserID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	return s.EnrollmentRepo.TouchAccess(enrollment.ID)
}

// RecomputeProgress 重算进度百分比，越界值收敛到 [0,100]
func (s *EnrollmentService) RecomputeProgress(userID, courseID uint, completed, total int) error {
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	progress := 0.0
	if total > 0 {
		progress = float64(completed) / float64(total) * 100
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return s.EnrollmentRepo.UpdateProgress(enrollment.ID, progress)
}

func (s *EnrollmentService) ListByUser(actor *model.AuthContext, userID uint) ([]model.Enrollment, error) {
	if userID != actor.UserID && !actor.Can("enrollment:read:all") {
		return nil, util.ErrPermissionDenied
	}
	return s.EnrollmentRepo.ListByUser(userID)
}

func (s *EnrollmentService) ListByCourse(actor *model.AuthContext, courseID uint, page, limit int) ([]model.Enrollment, int64, error) {
	if !actor.Can("enrollment:read:all") {
		return nil, 0, util.ErrPermissionDenied
	}
	return s.EnrollmentRepo.ListByCourse(courseID, page, limit)
}

// IsEnrolled 作答入口的资格检查用
func (s *EnrollmentService) IsEnrolled(userID, courseID uint) (bool, error) {
	_, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isDuplicateKey MySQL 1062 / sqlite UNIQUE 冲突的粗匹配
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
