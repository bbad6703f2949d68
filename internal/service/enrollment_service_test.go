package service

import (
	"errors"
	"testing"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/testutil"
	"lms_backoffice/internal/util"
)

func TestEnrollSelf(t *testing.T) {
	db := testutil.DB(t)
	svc := newEnrollmentService(db)
	actor := testutil.Actor(7, "enrollment:create")

	course := seedCourse(t, db, model.StatusPublished)
	enrollment, err := svc.Enroll(actor, actor.UserID, course.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if enrollment.UserID != actor.UserID || enrollment.CourseID != course.ID {
		t.Fatalf("unexpected enrollment %+v", enrollment)
	}
	if enrollment.EnrollmentDate.IsZero() {
		t.Fatal("enrollment date should be set")
	}
}

func TestEnrollDuplicateRejected(t *testing.T) {
	db := testutil.DB(t)
	svc := newEnrollmentService(db)
	actor := testutil.Actor(7, "enrollment:create")

	course := seedCourse(t, db, model.StatusPublished)
	if _, err := svc.Enroll(actor, actor.UserID, course.ID); err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	if _, err := svc.Enroll(actor, actor.UserID, course.ID); !errors.Is(err, util.ErrAlreadyEnrolled) {
		t.Fatalf("duplicate enroll must fail, got %v", err)
	}
}

func TestEnrollHidesUnpublishedCourse(t *testing.T) {
	db := testutil.DB(t)
	svc := newEnrollmentService(db)

	course := seedCourse(t, db, model.StatusDraft)

	// 学生端把未发布课程当不存在处理
	if _, err := svc.Enroll(testutil.Actor(7, "enrollment:create"), 7, course.ID); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("student should see draft course as missing, got %v", err)
	}
	// 管理侧可以提前报名
	if _, err := svc.Enroll(testutil.Actor(1, "admin:enrollment:create"), 7, course.ID); err != nil {
		t.Fatalf("admin pre-enrollment should work: %v", err)
	}
}

func TestEnrollOthersRequiresAdminPermission(t *testing.T) {
	db := testutil.DB(t)
	svc := newEnrollmentService(db)

	course := seedCourse(t, db, model.StatusPublished)
	if _, err := svc.Enroll(testutil.Actor(7, "enrollment:create"), 8, course.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("cross-user enroll without admin perm must fail, got %v", err)
	}
}

func TestUnenrollKeepsAttempts(t *testing.T) {
	db := testutil.DB(t)
	svc := newEnrollmentService(db)
	actor := testutil.Actor(7, "enrollment:create", "enrollment:delete")

	course := seedCourse(t, db, model.StatusPublished)
	if _, err := svc.Enroll(actor, 7, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	attempt := &model.QuizAttempt{UserID: 7, ModuleID: 99, AttemptNumber: 1, Status: model.AttemptGraded}
	mustCreate(t, db, attempt)

	if err := svc.Unenroll(actor, 7, course.ID); err != nil {
		t.Fatalf("unenroll: %v", err)
	}

	var enrollments int64
	db.Model(&model.Enrollment{}).Where("user_id = ? AND course_id = ?", 7, course.ID).Count(&enrollments)
	if enrollments != 0 {
		t.Fatal("enrollment row should be gone")
	}
	var attempts int64
	db.Model(&model.QuizAttempt{}).Where("user_id = ?", 7).Count(&attempts)
	if attempts != 1 {
		t.Fatal("historical attempts must survive unenrollment")
	}
}

func TestRecomputeProgressClamps(t *testing.T) {
	db := testutil.DB(t)
	svc := newEnrollmentService(db)

	course := seedCourse(t, db, model.StatusPublished)
	enrollment := seedEnrollment(t, db, 7, course.ID)

	if err := svc.RecomputeProgress(7, course.ID, 15, 10); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	var reloaded model.Enrollment
	if err := db.First(&reloaded, enrollment.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ProgressPercentage != 100 {
		t.Fatalf("progress should clamp to 100, got %f", reloaded.ProgressPercentage)
	}

	if err := svc.RecomputeProgress(7, course.ID, 0, 0); err != nil {
		t.Fatalf("recompute empty: %v", err)
	}
	if err := db.First(&reloaded, enrollment.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ProgressPercentage != 0 {
		t.Fatalf("zero total should give 0 progress, got %f", reloaded.ProgressPercentage)
	}
}

func TestListByUserPermissions(t *testing.T) {
	db := testutil.DB(t)
	svc := newEnrollmentService(db)

	course := seedCourse(t, db, model.StatusPublished)
	seedEnrollment(t, db, 7, course.ID)

	if _, err := svc.ListByUser(testutil.Actor(8), 7); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("reading someone else's enrollments needs :all, got %v", err)
	}
	list, err := svc.ListByUser(testutil.Actor(8, "enrollment:read:all"), 7)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("want 1 enrollment, got %d", len(list))
	}
}
