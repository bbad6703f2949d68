package service

import (
	"errors"
	"testing"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/testutil"
	"lms_backoffice/internal/util"
)

func TestCreateQuestionValidatesAnswerKey(t *testing.T) {
	db := testutil.DB(t)
	svc := newQuestionService(db)
	actor := testutil.Actor(1, "question:create")

	cases := []struct {
		name string
		req  QuestionRequest
	}{
		{"mc with one option", QuestionRequest{
			Text:         "q",
			QuestionType: model.QuestionMultipleChoice,
			Options:      []model.QuestionOption{{Text: "only", IsCorrect: true}},
		}},
		{"mc without correct option", QuestionRequest{
			Text:         "q",
			QuestionType: model.QuestionMultipleChoice,
			Options:      []model.QuestionOption{{Text: "a"}, {Text: "b"}},
		}},
		{"true false without answer", QuestionRequest{
			Text:         "q",
			QuestionType: model.QuestionTrueFalse,
		}},
		{"short answer without reference", QuestionRequest{
			Text:         "q",
			QuestionType: model.QuestionShortAnswer,
			CorrectText:  "   ",
		}},
		{"unknown type", QuestionRequest{
			Text:         "q",
			QuestionType: "essay",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateQuestion(actor, tc.req); !util.IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateQuestionTypeSwitchClearsOldAnswer(t *testing.T) {
	db := testutil.DB(t)
	svc := newQuestionService(db)
	actor := testutil.Actor(1, "question:create", "question:update")

	created, err := svc.CreateQuestion(actor, QuestionRequest{
		Text:         "capital of France",
		QuestionType: model.QuestionMultipleChoice,
		Options: []model.QuestionOption{
			{Text: "Paris", IsCorrect: true},
			{Text: "Rome"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateQuestion(actor, created.ID, QuestionRequest{
		Text:         "same question, short answer now",
		QuestionType: model.QuestionShortAnswer,
		CorrectText:  "Paris",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Options != nil {
		t.Fatalf("options must be cleared after switching away from multiple choice: %+v", updated.Options)
	}
	if updated.CorrectText != "Paris" {
		t.Fatalf("correct text not applied: %q", updated.CorrectText)
	}

	// 切回判断题时简答答案也要清掉
	correct := false
	updated, err = svc.UpdateQuestion(actor, created.ID, QuestionRequest{
		Text:         "now true/false",
		QuestionType: model.QuestionTrueFalse,
		CorrectBool:  &correct,
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if updated.CorrectText != "" {
		t.Fatalf("correct text must be cleared, got %q", updated.CorrectText)
	}
	if updated.CorrectBool == nil || *updated.CorrectBool != false {
		t.Fatalf("correct bool not applied: %v", updated.CorrectBool)
	}
}

func TestCreateQuestionRejectsMissingCategory(t *testing.T) {
	db := testutil.DB(t)
	svc := newQuestionService(db)
	actor := testutil.Actor(1, "question:create")

	missing := uint(9999)
	_, err := svc.CreateQuestion(actor, QuestionRequest{
		Text:         "q",
		QuestionType: model.QuestionShortAnswer,
		CorrectText:  "a",
		CategoryID:   &missing,
	})
	if !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected not found for missing category, got %v", err)
	}
}

func TestQuestionPermissions(t *testing.T) {
	db := testutil.DB(t)
	svc := newQuestionService(db)

	if _, err := svc.CreateQuestion(testutil.Actor(1), QuestionRequest{Text: "q", QuestionType: model.QuestionShortAnswer, CorrectText: "a"}); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("create without permission should fail, got %v", err)
	}
	if _, err := svc.GetQuestion(testutil.Actor(1), 1); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("read without permission should fail, got %v", err)
	}
}
