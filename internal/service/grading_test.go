package service

import (
	"testing"

	"lms_backoffice/internal/model"
)

func TestGradeAnswerUnansweredScoresZero(t *testing.T) {
	question := &model.Question{QuestionType: model.QuestionShortAnswer, CorrectText: "5"}
	result := gradeAnswer(question, 10, "   ")
	if result.RequiresManual {
		t.Fatal("unanswered question must not enter the manual queue")
	}
	if result.PointsEarned == nil || *result.PointsEarned != 0 {
		t.Fatalf("expected 0 points, got %v", result.PointsEarned)
	}
}

func TestGradeAnswerMultipleChoice(t *testing.T) {
	question := &model.Question{
		QuestionType: model.QuestionMultipleChoice,
		Options: model.OptionList{
			{Text: "Paris", IsCorrect: true},
			{Text: "Berlin", IsCorrect: true},
			{Text: "Rome"},
		},
	}

	cases := []struct {
		name   string
		answer string
		want   int
	}{
		{"exact set as json array", `["Paris","Berlin"]`, 4},
		{"case and spacing ignored", `[" paris ","BERLIN"]`, 4},
		{"subset is wrong", `["Paris"]`, 0},
		{"superset is wrong", `["Paris","Berlin","Rome"]`, 0},
		{"single wrong option", "Rome", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := gradeAnswer(question, 4, tc.answer)
			if result.PointsEarned == nil || *result.PointsEarned != tc.want {
				t.Fatalf("want %d points, got %v", tc.want, result.PointsEarned)
			}
		})
	}
}

func TestGradeAnswerSingleCorrectChoicePlainText(t *testing.T) {
	question := &model.Question{
		QuestionType: model.QuestionMultipleChoice,
		Options: model.OptionList{
			{Text: "Paris", IsCorrect: true},
			{Text: "Rome"},
		},
	}
	result := gradeAnswer(question, 3, "paris")
	if result.PointsEarned == nil || *result.PointsEarned != 3 {
		t.Fatalf("plain-text single choice should score full points, got %v", result.PointsEarned)
	}
}

func TestGradeAnswerTrueFalse(t *testing.T) {
	correct := true
	question := &model.Question{QuestionType: model.QuestionTrueFalse, CorrectBool: &correct}

	if r := gradeAnswer(question, 2, "true"); r.PointsEarned == nil || *r.PointsEarned != 2 {
		t.Fatalf("matching bool should score, got %v", r.PointsEarned)
	}
	if r := gradeAnswer(question, 2, "false"); r.PointsEarned == nil || *r.PointsEarned != 0 {
		t.Fatalf("wrong bool should score 0, got %v", r.PointsEarned)
	}
	if r := gradeAnswer(question, 2, "not-a-bool"); r.PointsEarned == nil || *r.PointsEarned != 0 {
		t.Fatalf("unparseable bool should score 0, got %v", r.PointsEarned)
	}
}

func TestGradeAnswerShortAnswerExactMatchOrManual(t *testing.T) {
	question := &model.Question{QuestionType: model.QuestionShortAnswer, CorrectText: "Mitochondria"}

	if r := gradeAnswer(question, 5, "  mitochondria "); r.PointsEarned == nil || *r.PointsEarned != 5 {
		t.Fatalf("normalized exact match should score full points, got %v", r.PointsEarned)
	}

	r := gradeAnswer(question, 5, "the powerhouse")
	if !r.RequiresManual {
		t.Fatal("non-matching short answer must be flagged for manual grading")
	}
	if r.PointsEarned != nil {
		t.Fatalf("pending answer must have no points yet, got %d", *r.PointsEarned)
	}
}

func TestPassedThreshold(t *testing.T) {
	if !passedThreshold(6, 10, 60) {
		t.Fatal("60% of 10 with threshold 60 should pass")
	}
	if passedThreshold(5, 10, 60) {
		t.Fatal("50% should not pass a 60% threshold")
	}
	if passedThreshold(0, 0, 0) {
		t.Fatal("zero total can never pass")
	}
}

func TestScaleSATSection(t *testing.T) {
	if got := scaleSATSection(0, 40); got != 200 {
		t.Fatalf("zero raw should map to 200, got %d", got)
	}
	if got := scaleSATSection(40, 40); got != 800 {
		t.Fatalf("full raw should map to 800, got %d", got)
	}
	if got := scaleSATSection(20, 40); got != 500 {
		t.Fatalf("half raw should map to 500, got %d", got)
	}
	if got := scaleSATSection(10, 0); got != 200 {
		t.Fatalf("empty section floors at 200, got %d", got)
	}
}

func TestComputeSATDetailsRequiresExactlyTwoSections(t *testing.T) {
	one := model.SectionScoreList{{QuizModuleID: 1, Score: 10, TotalPossible: 20}}
	if computeSATDetails(one) != nil {
		t.Fatal("single-section test must not get SAT details")
	}
	three := append(model.SectionScoreList{}, one[0], one[0], one[0])
	if computeSATDetails(three) != nil {
		t.Fatal("three-section test must not get SAT details")
	}

	two := model.SectionScoreList{
		{QuizModuleID: 1, Score: 20, TotalPossible: 40},
		{QuizModuleID: 2, Score: 40, TotalPossible: 40},
	}
	details := computeSATDetails(two)
	if details == nil {
		t.Fatal("two-section test should get SAT details")
	}
	if details.ReadingWritingScaled != 500 || details.MathScaled != 800 {
		t.Fatalf("unexpected scaled scores: %+v", details)
	}
	if details.TotalScaled != 1300 {
		t.Fatalf("total scaled should be 1300, got %d", details.TotalScaled)
	}
}
