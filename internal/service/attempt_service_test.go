package service

import (
	"errors"
	"testing"
	"time"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/testutil"
	"lms_backoffice/internal/util"
)

func studentActor(userID uint) *model.AuthContext {
	return testutil.Actor(userID, "quiz_attempt:start", "quiz_attempt:submit", "quiz_attempt:read")
}

func TestStartQuizAttemptNumbersSequentially(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	actor := studentActor(7)

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)

	first, err := svc.StartQuizAttempt(actor, quiz.ID)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := svc.StartQuizAttempt(actor, quiz.ID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first.AttemptNumber != 1 || second.AttemptNumber != 2 {
		t.Fatalf("attempt numbers should be 1 then 2, got %d and %d", first.AttemptNumber, second.AttemptNumber)
	}
	if first.Status != model.AttemptInProgress {
		t.Fatalf("new attempt should be in-progress, got %s", first.Status)
	}
}

func TestStartQuizAttemptEnforcesLimit(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	actor := studentActor(7)

	quiz := seedQuizModule(t, db, nil, 1, 0)

	if _, err := svc.StartQuizAttempt(actor, quiz.ID); err != nil {
		t.Fatalf("first start: %v", err)
	}
	// 进行中的 attempt 也占名额
	if _, err := svc.StartQuizAttempt(actor, quiz.ID); !errors.Is(err, util.ErrAttemptLimitReached) {
		t.Fatalf("second start should hit the limit, got %v", err)
	}
}

func TestStartQuizAttemptRespectsWindow(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	actor := studentActor(7)

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	past := time.Now().Add(-time.Hour)
	quiz.AvailableUntil = &past
	if err := db.Save(quiz).Error; err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := svc.StartQuizAttempt(actor, quiz.ID); !errors.Is(err, util.ErrAttemptWindowClosed) {
		t.Fatalf("expired window should block starts, got %v", err)
	}
}

func TestStartQuizAttemptRejectsUnpublished(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	actor := studentActor(7)

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	quiz.Status = model.StatusDraft
	if err := db.Save(quiz).Error; err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := svc.StartQuizAttempt(actor, quiz.ID); !errors.Is(err, util.ErrQuizNotPublished) {
		t.Fatalf("draft quiz should block starts, got %v", err)
	}
}

func TestStartQuizAttemptRequiresEnrollmentWhenAttached(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	actor := studentActor(7)

	course := seedCourse(t, db, model.StatusPublished)
	section := seedSection(t, db, course.ID, 1)
	quiz := seedQuizModule(t, db, &section.ID, model.UnlimitedAttempts, 0)

	if _, err := svc.StartQuizAttempt(actor, quiz.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("unenrolled learner must be blocked, got %v", err)
	}

	seedEnrollment(t, db, 7, course.ID)
	if _, err := svc.StartQuizAttempt(actor, quiz.ID); err != nil {
		t.Fatalf("enrolled learner should start fine: %v", err)
	}
}

func TestSubmitQuizAttemptAutoGrades(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	actor := studentActor(7)

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 50)
	mc := seedMCQuestion(t, db, "Paris", "Rome", "Berlin")
	short := seedShortQuestion(t, db, "42")
	attachQuestion(t, db, quiz.ID, mc.ID, 5, 1)
	attachQuestion(t, db, quiz.ID, short.ID, 5, 2)

	attempt, err := svc.StartQuizAttempt(actor, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	graded, err := svc.SubmitQuizAttempt(actor, attempt.ID, []AnswerSubmission{
		{QuestionID: mc.ID, Answer: "Paris"},
		{QuestionID: short.ID, Answer: "42"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if graded.Status != model.AttemptGraded {
		t.Fatalf("fully auto-gradable attempt should be graded, got %s", graded.Status)
	}
	if graded.Score != 10 || graded.TotalPointsPossible != 10 {
		t.Fatalf("want 10/10, got %d/%d", graded.Score, graded.TotalPointsPossible)
	}
	if !graded.Passed {
		t.Fatal("100% against a 50% threshold should pass")
	}
	if graded.SubmittedAt == nil || graded.GradedAt == nil {
		t.Fatal("submitted and graded timestamps should be set")
	}
	if len(graded.Answers) != 2 {
		t.Fatalf("want 2 answer rows, got %d", len(graded.Answers))
	}
}

func TestSubmitQuizAttemptUnansweredCountsZero(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	actor := studentActor(7)

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	mc := seedMCQuestion(t, db, "Paris", "Rome")
	attachQuestion(t, db, quiz.ID, mc.ID, 5, 1)

	attempt, err := svc.StartQuizAttempt(actor, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	graded, err := svc.SubmitQuizAttempt(actor, attempt.ID, nil)
	if err != nil {
		t.Fatalf("submit empty: %v", err)
	}
	if graded.Status != model.AttemptGraded {
		t.Fatalf("unanswered quiz still grades automatically, got %s", graded.Status)
	}
	if graded.Score != 0 || graded.TotalPointsPossible != 5 {
		t.Fatalf("want 0/5, got %d/%d", graded.Score, graded.TotalPointsPossible)
	}
}

func TestSubmitQuizAttemptRejectsForeignQuestion(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	actor := studentActor(7)

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	inQuiz := seedShortQuestion(t, db, "a")
	outside := seedShortQuestion(t, db, "b")
	attachQuestion(t, db, quiz.ID, inQuiz.ID, 1, 1)

	attempt, err := svc.StartQuizAttempt(actor, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err = svc.SubmitQuizAttempt(actor, attempt.ID, []AnswerSubmission{{QuestionID: outside.ID, Answer: "b"}})
	if !util.IsValidationError(err) {
		t.Fatalf("foreign question id must be rejected, got %v", err)
	}
}

func TestSubmitQuizAttemptTwiceRejected(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	actor := studentActor(7)

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	q := seedMCQuestion(t, db, "a", "b")
	attachQuestion(t, db, quiz.ID, q.ID, 1, 1)

	attempt, err := svc.StartQuizAttempt(actor, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SubmitQuizAttempt(actor, attempt.ID, nil); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.SubmitQuizAttempt(actor, attempt.ID, nil); !errors.Is(err, util.ErrAttemptAlreadyFinal) {
		t.Fatalf("second submit must fail, got %v", err)
	}
}

func TestManualGradeCompletesAttempt(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	student := studentActor(7)
	grader := testutil.Actor(2, "quiz_attempt:grade")

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 60)
	mc := seedMCQuestion(t, db, "Paris", "Rome")
	short := seedShortQuestion(t, db, "exactly this")
	attachQuestion(t, db, quiz.ID, mc.ID, 5, 1)
	attachQuestion(t, db, quiz.ID, short.ID, 5, 2)

	attempt, err := svc.StartQuizAttempt(student, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	submitted, err := svc.SubmitQuizAttempt(student, attempt.ID, []AnswerSubmission{
		{QuestionID: mc.ID, Answer: "Paris"},
		{QuestionID: short.ID, Answer: "something else entirely"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != model.AttemptPartiallyGraded {
		t.Fatalf("pending manual answer should leave attempt partially graded, got %s", submitted.Status)
	}
	if submitted.Score != 5 {
		t.Fatalf("auto-graded portion should be 5, got %d", submitted.Score)
	}

	var pendingID uint
	for _, a := range submitted.Answers {
		if a.RequiresManual && a.PointsEarned == nil {
			pendingID = a.ID
		}
	}
	if pendingID == 0 {
		t.Fatal("expected one answer pending manual grading")
	}

	// 学生没有判分权限
	if _, err := svc.ManualGradeAnswer(student, submitted.ID, pendingID, 3); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("student must not grade, got %v", err)
	}
	// 超出题目分值拒绝
	if _, err := svc.ManualGradeAnswer(grader, submitted.ID, pendingID, 6); !util.IsValidationError(err) {
		t.Fatalf("points above possible must fail, got %v", err)
	}

	final, err := svc.ManualGradeAnswer(grader, submitted.ID, pendingID, 4)
	if err != nil {
		t.Fatalf("manual grade: %v", err)
	}
	if final.Status != model.AttemptGraded {
		t.Fatalf("last pending answer graded should finalize, got %s", final.Status)
	}
	if final.Score != 9 {
		t.Fatalf("want score 9, got %d", final.Score)
	}
	if !final.Passed {
		t.Fatal("9/10 against 60% should pass")
	}

	// 已定稿的卷子不能再人工给分
	if _, err := svc.ManualGradeAnswer(grader, final.ID, pendingID, 4); !errors.Is(err, util.ErrManualGradeNotPending) {
		t.Fatalf("regrade after final must fail, got %v", err)
	}

	var answer model.AttemptAnswer
	if err := db.First(&answer, pendingID).Error; err != nil {
		t.Fatalf("reload answer: %v", err)
	}
	if answer.GraderID == nil || *answer.GraderID != grader.UserID {
		t.Fatal("grader id should be recorded on the answer")
	}
}

func TestGetQuizAttemptVisibility(t *testing.T) {
	db := testutil.DB(t)
	svc := newAttemptService(db)
	owner := studentActor(7)

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	attempt, err := svc.StartQuizAttempt(owner, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := svc.GetQuizAttempt(owner, attempt.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.GetQuizAttempt(testutil.Actor(8, "quiz_attempt:read"), attempt.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("other user without :all must be blocked, got %v", err)
	}
	if _, err := svc.GetQuizAttempt(testutil.Actor(8, "quiz_attempt:read:all"), attempt.ID); err != nil {
		t.Fatalf("grader with :all should read: %v", err)
	}
}
