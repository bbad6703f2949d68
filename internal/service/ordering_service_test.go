package service

import (
	"errors"
	"testing"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/testutil"
	"lms_backoffice/internal/util"
)

func TestCheckPermutation(t *testing.T) {
	existing := []uint{1, 2, 3}

	if err := checkPermutation(existing, []uint{3, 1, 2}); err != nil {
		t.Fatalf("valid permutation rejected: %v", err)
	}
	if err := checkPermutation(existing, []uint{1, 2}); !errors.Is(err, util.ErrOrderMismatch) {
		t.Fatalf("missing id should fail, got %v", err)
	}
	if err := checkPermutation(existing, []uint{1, 2, 3, 4}); !errors.Is(err, util.ErrOrderMismatch) {
		t.Fatalf("extra id should fail, got %v", err)
	}
	if err := checkPermutation(existing, []uint{1, 2, 2}); !errors.Is(err, util.ErrOrderMismatch) {
		t.Fatalf("duplicate id should fail, got %v", err)
	}
	if err := checkPermutation(existing, []uint{1, 2, 99}); !errors.Is(err, util.ErrOrderMismatch) {
		t.Fatalf("foreign id should fail, got %v", err)
	}
}

func TestReorderSectionsRenumbers(t *testing.T) {
	db := testutil.DB(t)
	svc := newOrderingService(db)
	actor := testutil.Actor(1, "course:update")

	course := seedCourse(t, db, model.StatusDraft)
	a := seedSection(t, db, course.ID, 1)
	b := seedSection(t, db, course.ID, 2)
	c := seedSection(t, db, course.ID, 3)

	err := svc.Reorder(actor, ReorderRequest{
		ParentKind: ParentCourse,
		ParentID:   course.ID,
		IDs:        []uint{c.ID, a.ID, b.ID},
	})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	var sections []model.Section
	if err := db.Where("course_id = ?", course.ID).Order("sort_order").Find(&sections).Error; err != nil {
		t.Fatalf("load sections: %v", err)
	}
	wantIDs := []uint{c.ID, a.ID, b.ID}
	for i, section := range sections {
		if section.ID != wantIDs[i] {
			t.Fatalf("position %d: want section %d, got %d", i, wantIDs[i], section.ID)
		}
		if section.Order != i+1 {
			t.Fatalf("section %d: order should be renumbered to %d, got %d", section.ID, i+1, section.Order)
		}
	}
}

func TestReorderRejectsPartialList(t *testing.T) {
	db := testutil.DB(t)
	svc := newOrderingService(db)
	actor := testutil.Actor(1, "course:update")

	course := seedCourse(t, db, model.StatusDraft)
	a := seedSection(t, db, course.ID, 1)
	seedSection(t, db, course.ID, 2)

	err := svc.Reorder(actor, ReorderRequest{
		ParentKind: ParentCourse,
		ParentID:   course.ID,
		IDs:        []uint{a.ID},
	})
	if !errors.Is(err, util.ErrOrderMismatch) {
		t.Fatalf("partial id list should be rejected, got %v", err)
	}

	// 原有顺序不受影响
	var reloaded model.Section
	if err := db.First(&reloaded, a.ID).Error; err != nil {
		t.Fatalf("reload section: %v", err)
	}
	if reloaded.Order != 1 {
		t.Fatalf("failed reorder must not touch orders, got %d", reloaded.Order)
	}
}

func TestReorderQuestionsWithinQuiz(t *testing.T) {
	db := testutil.DB(t)
	svc := newOrderingService(db)
	actor := testutil.Actor(1, "module:update")

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	q1 := seedShortQuestion(t, db, "a")
	q2 := seedShortQuestion(t, db, "b")
	attachQuestion(t, db, quiz.ID, q1.ID, 1, 1)
	attachQuestion(t, db, quiz.ID, q2.ID, 1, 2)

	err := svc.Reorder(actor, ReorderRequest{
		ParentKind: ParentQuizModule,
		ParentID:   quiz.ID,
		IDs:        []uint{q2.ID, q1.ID},
	})
	if err != nil {
		t.Fatalf("reorder questions: %v", err)
	}

	var rows []model.ModuleQuestion
	if err := db.Where("module_id = ?", quiz.ID).Order("sort_order").Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	if rows[0].QuestionID != q2.ID || rows[1].QuestionID != q1.ID {
		t.Fatalf("question order not applied: %+v", rows)
	}
}

func TestReorderRejectsWrongParentType(t *testing.T) {
	db := testutil.DB(t)
	svc := newOrderingService(db)
	actor := testutil.Actor(1, "module:update")

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)

	err := svc.Reorder(actor, ReorderRequest{
		ParentKind: ParentLessonModule,
		ParentID:   quiz.ID,
		IDs:        []uint{1},
	})
	if !util.IsValidationError(err) {
		t.Fatalf("quiz module is not a valid lesson parent, got %v", err)
	}
}

func TestReorderRequiresPermission(t *testing.T) {
	db := testutil.DB(t)
	svc := newOrderingService(db)

	err := svc.Reorder(testutil.Actor(1), ReorderRequest{ParentKind: ParentCourse, ParentID: 1, IDs: []uint{1}})
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}
