package service

import (
	"errors"
	"testing"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/testutil"
	"lms_backoffice/internal/util"
)

func moduleActor() *model.AuthContext {
	return testutil.Actor(1, "module:create", "module:update", "module:delete", "module:read:all")
}

func TestSaveLessonModuleRejectsDuplicateContentInCourse(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()

	course := seedCourse(t, db, model.StatusDraft)
	s1 := seedSection(t, db, course.ID, 1)
	s2 := seedSection(t, db, course.ID, 2)
	content := seedLessonContent(t, db, "共享课件")

	if _, err := svc.SaveLessonModule(actor, 0, LessonModuleRequest{
		SectionID:  &s1.ID,
		Title:      "第一课",
		ContentIDs: []uint{content.ID},
	}); err != nil {
		t.Fatalf("first module: %v", err)
	}

	_, err := svc.SaveLessonModule(actor, 0, LessonModuleRequest{
		SectionID:  &s2.ID,
		Title:      "第二课",
		ContentIDs: []uint{content.ID},
	})
	if !errors.Is(err, util.ErrDuplicateContent) {
		t.Fatalf("same content twice in one course must be rejected, got %v", err)
	}
}

func TestSaveModuleAppendsOrderWithinSection(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()

	course := seedCourse(t, db, model.StatusDraft)
	section := seedSection(t, db, course.ID, 1)
	c1 := seedLessonContent(t, db, "课件一")
	c2 := seedLessonContent(t, db, "课件二")
	question := seedShortQuestion(t, db, "a")

	first, err := svc.SaveLessonModule(actor, 0, LessonModuleRequest{SectionID: &section.ID, Title: "第一课", ContentIDs: []uint{c1.ID}})
	if err != nil {
		t.Fatalf("first module: %v", err)
	}
	second, err := svc.SaveLessonModule(actor, 0, LessonModuleRequest{SectionID: &section.ID, Title: "第二课", ContentIDs: []uint{c2.ID}})
	if err != nil {
		t.Fatalf("second module: %v", err)
	}
	third, err := svc.SaveQuizModule(actor, 0, QuizModuleRequest{
		SectionID:        &section.ID,
		Title:            "小测",
		QuestionsPerPage: 1,
		Questions:        []QuizQuestionEntry{{QuestionID: question.ID, Points: 5}},
	})
	if err != nil {
		t.Fatalf("quiz module: %v", err)
	}

	if first.Order != 1 || second.Order != 2 || third.Order != 3 {
		t.Fatalf("expected appended orders 1,2,3, got %d,%d,%d", first.Order, second.Order, third.Order)
	}
}

func TestSaveLessonModuleAllowsReuseAcrossCourses(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()

	courseA := seedCourse(t, db, model.StatusDraft)
	courseB := seedCourse(t, db, model.StatusDraft)
	sa := seedSection(t, db, courseA.ID, 1)
	sb := seedSection(t, db, courseB.ID, 1)
	content := seedLessonContent(t, db, "共享课件")

	if _, err := svc.SaveLessonModule(actor, 0, LessonModuleRequest{SectionID: &sa.ID, Title: "A", ContentIDs: []uint{content.ID}}); err != nil {
		t.Fatalf("course A: %v", err)
	}
	if _, err := svc.SaveLessonModule(actor, 0, LessonModuleRequest{SectionID: &sb.ID, Title: "B", ContentIDs: []uint{content.ID}}); err != nil {
		t.Fatalf("cross-course reuse should be allowed: %v", err)
	}
}

func TestSaveQuizModuleValidation(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()
	question := seedShortQuestion(t, db, "a")

	base := QuizModuleRequest{
		Title:            "小测",
		QuestionsPerPage: 1,
		Questions:        []QuizQuestionEntry{{QuestionID: question.ID, Points: 5}},
	}

	noQuestions := base
	noQuestions.Questions = nil
	if _, err := svc.SaveQuizModule(actor, 0, noQuestions); !util.IsValidationError(err) {
		t.Fatalf("quiz without questions must fail, got %v", err)
	}

	badPage := base
	badPage.QuestionsPerPage = 0
	if _, err := svc.SaveQuizModule(actor, 0, badPage); !util.IsValidationError(err) {
		t.Fatalf("questionsPerPage 0 must fail, got %v", err)
	}

	badPassing := base
	badPassing.PassingScorePercentage = 120
	if _, err := svc.SaveQuizModule(actor, 0, badPassing); !util.IsValidationError(err) {
		t.Fatalf("passing score over 100 must fail, got %v", err)
	}

	badAttempts := base
	zero := 0
	badAttempts.MaxAttempts = &zero
	if _, err := svc.SaveQuizModule(actor, 0, badAttempts); !util.IsValidationError(err) {
		t.Fatalf("maxAttempts 0 must fail, got %v", err)
	}

	module, err := svc.SaveQuizModule(actor, 0, base)
	if err != nil {
		t.Fatalf("valid quiz: %v", err)
	}
	if module.MaxAttempts != model.UnlimitedAttempts {
		t.Fatalf("missing maxAttempts should default to unlimited, got %d", module.MaxAttempts)
	}
	if module.QuestionNavigation != model.NavigationSequence {
		t.Fatalf("missing navigation should default to sequence, got %q", module.QuestionNavigation)
	}
}

func TestSaveTestModuleRequiresPublishedQuizzes(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()

	draft := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	draft.Status = model.StatusDraft
	if err := db.Save(draft).Error; err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err := svc.SaveTestModule(actor, 0, TestModuleRequest{Title: "卷子", QuizModuleIDs: []uint{draft.ID}})
	if !errors.Is(err, util.ErrQuizNotPublished) {
		t.Fatalf("draft quiz in test must be rejected, got %v", err)
	}
}

func TestSaveTestModuleRejectsNestedTests(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()

	inner := seedTestModule(t, db, nil)
	_, err := svc.SaveTestModule(actor, 0, TestModuleRequest{Title: "外卷", QuizModuleIDs: []uint{inner.ID}})
	if !util.IsValidationError(err) {
		t.Fatalf("test referencing a test must fail validation, got %v", err)
	}
}

func TestSaveTestModuleRejectsDuplicateQuiz(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	_, err := svc.SaveTestModule(actor, 0, TestModuleRequest{Title: "卷子", QuizModuleIDs: []uint{quiz.ID, quiz.ID}})
	if !errors.Is(err, util.ErrDuplicateQuizInTest) {
		t.Fatalf("duplicate quiz ids must be rejected, got %v", err)
	}
}

func TestAttachQuizToTestAppendsAndRejectsDuplicates(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()

	q1 := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	q2 := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	test := seedTestModule(t, db, nil, q1.ID)

	entry, err := svc.AttachQuizToTest(actor, test.ID, q2.ID)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if entry.Order != 2 {
		t.Fatalf("new quiz should append at position 2, got %d", entry.Order)
	}

	if _, err := svc.AttachQuizToTest(actor, test.ID, q1.ID); !errors.Is(err, util.ErrDuplicateQuizInTest) {
		t.Fatalf("same quiz twice in one test must fail, got %v", err)
	}
}

func TestSaveQuizModuleTypeSwitchClearsLessonLeftovers(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()

	content := seedLessonContent(t, db, "课件")
	lesson, err := svc.SaveLessonModule(actor, 0, LessonModuleRequest{
		Title:       "原 lesson",
		ProgressBar: true,
		ContentIDs:  []uint{content.ID},
	})
	if err != nil {
		t.Fatalf("create lesson: %v", err)
	}

	question := seedShortQuestion(t, db, "a")
	switched, err := svc.SaveQuizModule(actor, lesson.ID, QuizModuleRequest{
		Title:            "改成 quiz",
		QuestionsPerPage: 1,
		Questions:        []QuizQuestionEntry{{QuestionID: question.ID, Points: 2}},
	})
	if err != nil {
		t.Fatalf("switch to quiz: %v", err)
	}
	if switched.ModuleType != model.ModuleQuiz {
		t.Fatalf("type not switched: %s", switched.ModuleType)
	}
	if switched.ProgressBar {
		t.Fatal("lesson-only field must be cleared after switching to quiz")
	}

	var leftover int64
	db.Model(&model.ModuleContent{}).Where("module_id = ?", lesson.ID).Count(&leftover)
	if leftover != 0 {
		t.Fatalf("content rows must be removed on type switch, found %d", leftover)
	}
}

func TestAttachModuleDetachKeepsOrder(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()

	course := seedCourse(t, db, model.StatusDraft)
	section := seedSection(t, db, course.ID, 1)
	quiz := seedQuizModule(t, db, &section.ID, model.UnlimitedAttempts, 0)
	quiz.Order = 2
	if err := db.Save(quiz).Error; err != nil {
		t.Fatalf("save: %v", err)
	}

	detached, err := svc.AttachModule(actor, quiz.ID, nil)
	if err != nil {
		t.Fatalf("detach: %v", err)
	}
	if detached.SectionID != nil {
		t.Fatal("module should be standalone after detach")
	}
	if detached.Order != 2 {
		t.Fatalf("order should be kept on detach, got %d", detached.Order)
	}

	reattached, err := svc.AttachModule(actor, quiz.ID, &section.ID)
	if err != nil {
		t.Fatalf("reattach: %v", err)
	}
	if reattached.SectionID == nil || *reattached.SectionID != section.ID {
		t.Fatal("module should be attached back to the section")
	}
	if reattached.Order != 1 {
		t.Fatalf("reattach should append at end of empty section, got %d", reattached.Order)
	}
}

func TestDeleteModuleRemovesJoinRows(t *testing.T) {
	db := testutil.DB(t)
	svc := newModuleService(db)
	actor := moduleActor()

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	question := seedShortQuestion(t, db, "a")
	attachQuestion(t, db, quiz.ID, question.ID, 1, 1)

	if err := svc.DeleteModule(actor, quiz.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var rows int64
	db.Model(&model.ModuleQuestion{}).Where("module_id = ?", quiz.ID).Count(&rows)
	if rows != 0 {
		t.Fatalf("join rows must be deleted with the module, found %d", rows)
	}
	// 题库条目本身保留
	var questions int64
	db.Model(&model.Question{}).Where("id = ?", question.ID).Count(&questions)
	if questions != 1 {
		t.Fatal("deleting a module must not delete bank questions")
	}
}
