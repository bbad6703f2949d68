package service

import (
	"errors"
	"testing"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/testutil"
	"lms_backoffice/internal/util"

	"gorm.io/gorm"
)

func testTakerActor(userID uint) *model.AuthContext {
	return testutil.Actor(userID, "practice_test_attempt:start", "practice_test_attempt:submit", "practice_test_attempt:read")
}

// 两个小节各一道选择题，作为 SAT 形制的最小测试台
func seedSATTest(t *testing.T, db *gorm.DB) (test, reading, math *model.CourseModule, rq, mq *model.Question) {
	t.Helper()
	reading = seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	math = seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	rq = seedMCQuestion(t, db, "阅读正确项", "干扰项")
	mq = seedMCQuestion(t, db, "数学正确项", "干扰项")
	attachQuestion(t, db, reading.ID, rq.ID, 10, 1)
	attachQuestion(t, db, math.ID, mq.ID, 10, 1)
	test = seedTestModule(t, db, nil, reading.ID, math.ID)
	return test, reading, math, rq, mq
}

func TestSubmitTestAttemptSectionScoresFollowEntryOrder(t *testing.T) {
	db := testutil.DB(t)
	svc := newPracticeTestService(db)
	actor := testTakerActor(7)

	test, reading, math, rq, mq := seedSATTest(t, db)

	attempt, err := svc.StartTestAttempt(actor, test.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	graded, err := svc.SubmitTestAttempt(actor, attempt.ID, []TestAnswerSubmission{
		// 故意乱序提交，小节得分仍按 test 内顺序排列
		{QuizModuleID: math.ID, QuestionID: mq.ID, Answer: "数学正确项"},
		{QuizModuleID: reading.ID, QuestionID: rq.ID, Answer: "干扰项"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(graded.SectionScores) != 2 {
		t.Fatalf("want 2 section scores, got %d", len(graded.SectionScores))
	}
	if graded.SectionScores[0].QuizModuleID != reading.ID || graded.SectionScores[1].QuizModuleID != math.ID {
		t.Fatalf("section scores out of order: %+v", graded.SectionScores)
	}
	if graded.SectionScores[0].Score != 0 || graded.SectionScores[1].Score != 10 {
		t.Fatalf("unexpected section scores: %+v", graded.SectionScores)
	}
	if graded.OverallScore != 10 || graded.OverallTotalPoints != 20 {
		t.Fatalf("want overall 10/20, got %d/%d", graded.OverallScore, graded.OverallTotalPoints)
	}
}

func TestSubmitTestAttemptComputesSATForTwoSections(t *testing.T) {
	db := testutil.DB(t)
	svc := newPracticeTestService(db)
	actor := testTakerActor(7)

	test, reading, math, rq, mq := seedSATTest(t, db)

	attempt, err := svc.StartTestAttempt(actor, test.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	graded, err := svc.SubmitTestAttempt(actor, attempt.ID, []TestAnswerSubmission{
		{QuizModuleID: reading.ID, QuestionID: rq.ID, Answer: "阅读正确项"},
		{QuizModuleID: math.ID, QuestionID: mq.ID, Answer: "数学正确项"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if graded.Status != model.AttemptGraded {
		t.Fatalf("auto-gradable test should finish graded, got %s", graded.Status)
	}
	if graded.SATDetails == nil {
		t.Fatal("two-section test should carry SAT details")
	}
	if graded.SATDetails.ReadingWritingScaled != 800 || graded.SATDetails.MathScaled != 800 {
		t.Fatalf("perfect raw should scale to 800 per section: %+v", graded.SATDetails)
	}
	if graded.SATDetails.TotalScaled != 1600 {
		t.Fatalf("total scaled should be 1600, got %d", graded.SATDetails.TotalScaled)
	}
}

func TestSubmitTestAttemptSkipsSATForOtherShapes(t *testing.T) {
	db := testutil.DB(t)
	svc := newPracticeTestService(db)
	actor := testTakerActor(7)

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	q := seedMCQuestion(t, db, "a", "b")
	attachQuestion(t, db, quiz.ID, q.ID, 5, 1)
	test := seedTestModule(t, db, nil, quiz.ID)

	attempt, err := svc.StartTestAttempt(actor, test.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	graded, err := svc.SubmitTestAttempt(actor, attempt.ID, []TestAnswerSubmission{
		{QuizModuleID: quiz.ID, QuestionID: q.ID, Answer: "a"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if graded.SATDetails != nil {
		t.Fatal("single-section test must not carry SAT details")
	}
}

func TestSubmitTestAttemptRejectsForeignAnswers(t *testing.T) {
	db := testutil.DB(t)
	svc := newPracticeTestService(db)
	actor := testTakerActor(7)

	test, reading, _, rq, _ := seedSATTest(t, db)
	outsideQuiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	outsideQuestion := seedMCQuestion(t, db, "c", "d")

	attempt, err := svc.StartTestAttempt(actor, test.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = svc.SubmitTestAttempt(actor, attempt.ID, []TestAnswerSubmission{
		{QuizModuleID: outsideQuiz.ID, QuestionID: rq.ID, Answer: "x"},
	})
	if !util.IsValidationError(err) {
		t.Fatalf("quiz outside the test must be rejected, got %v", err)
	}

	_, err = svc.SubmitTestAttempt(actor, attempt.ID, []TestAnswerSubmission{
		{QuizModuleID: reading.ID, QuestionID: outsideQuestion.ID, Answer: "x"},
	})
	if !util.IsValidationError(err) {
		t.Fatalf("question outside the quiz must be rejected, got %v", err)
	}

	// 拒绝不改变状态，合法提交仍然可行
	if _, err := svc.SubmitTestAttempt(actor, attempt.ID, nil); err != nil {
		t.Fatalf("valid submit after rejections: %v", err)
	}
	if _, err := svc.SubmitTestAttempt(actor, attempt.ID, nil); !errors.Is(err, util.ErrAttemptAlreadyFinal) {
		t.Fatalf("second submit must fail, got %v", err)
	}
}

func TestManualGradeTestAnswerFinalizesWithSAT(t *testing.T) {
	db := testutil.DB(t)
	svc := newPracticeTestService(db)
	student := testTakerActor(7)
	grader := testutil.Actor(2, "practice_test_attempt:grade")

	reading := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	math := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	essay := seedShortQuestion(t, db, "模范答案")
	mq := seedMCQuestion(t, db, "数学正确项", "干扰项")
	attachQuestion(t, db, reading.ID, essay.ID, 10, 1)
	attachQuestion(t, db, math.ID, mq.ID, 10, 1)
	test := seedTestModule(t, db, nil, reading.ID, math.ID)

	attempt, err := svc.StartTestAttempt(student, test.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	submitted, err := svc.SubmitTestAttempt(student, attempt.ID, []TestAnswerSubmission{
		{QuizModuleID: reading.ID, QuestionID: essay.ID, Answer: "自由发挥的答案"},
		{QuizModuleID: math.ID, QuestionID: mq.ID, Answer: "数学正确项"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != model.AttemptPartiallyGraded {
		t.Fatalf("pending essay should leave attempt partially graded, got %s", submitted.Status)
	}
	if submitted.SATDetails != nil {
		t.Fatal("SAT details must wait until fully graded")
	}

	var pendingID uint
	for _, a := range submitted.Answers {
		if a.RequiresManual && a.PointsEarned == nil {
			pendingID = a.ID
		}
	}
	if pendingID == 0 {
		t.Fatal("expected a pending answer")
	}

	final, err := svc.ManualGradeTestAnswer(grader, submitted.ID, pendingID, 10)
	if err != nil {
		t.Fatalf("manual grade: %v", err)
	}
	if final.Status != model.AttemptGraded {
		t.Fatalf("attempt should finalize, got %s", final.Status)
	}
	if final.SectionScores[0].Score != 10 {
		t.Fatalf("reading section should be recomputed to 10, got %d", final.SectionScores[0].Score)
	}
	if final.OverallScore != 20 {
		t.Fatalf("overall should be 20, got %d", final.OverallScore)
	}
	if final.SATDetails == nil || final.SATDetails.TotalScaled != 1600 {
		t.Fatalf("SAT details should be computed at finalization: %+v", final.SATDetails)
	}
}

func TestStartTestAttemptRejectsEmptyTest(t *testing.T) {
	db := testutil.DB(t)
	svc := newPracticeTestService(db)
	actor := testTakerActor(7)

	empty := seedTestModule(t, db, nil)
	if _, err := svc.StartTestAttempt(actor, empty.ID); !util.IsValidationError(err) {
		t.Fatalf("test without quiz sections must be rejected, got %v", err)
	}
}

func TestStartTestAttemptRejectsQuizModule(t *testing.T) {
	db := testutil.DB(t)
	svc := newPracticeTestService(db)
	actor := testTakerActor(7)

	quiz := seedQuizModule(t, db, nil, model.UnlimitedAttempts, 0)
	if _, err := svc.StartTestAttempt(actor, quiz.ID); !util.IsValidationError(err) {
		t.Fatalf("starting a test attempt on a quiz module must fail, got %v", err)
	}
}

func TestGetTestAttemptVisibility(t *testing.T) {
	db := testutil.DB(t)
	svc := newPracticeTestService(db)
	owner := testTakerActor(7)

	test, _, _, _, _ := seedSATTest(t, db)
	attempt, err := svc.StartTestAttempt(owner, test.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := svc.GetTestAttempt(owner, attempt.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.GetTestAttempt(testutil.Actor(8, "practice_test_attempt:read"), attempt.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("other user must be blocked, got %v", err)
	}
}
