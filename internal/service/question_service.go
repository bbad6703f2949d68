package service

import (
	"errors"
	"strings"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"

	"gorm.io/gorm"
)

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	CategoryRepo *repository.CategoryRepository
	DB           *gorm.DB
}

func NewQuestionService(questionRepo *repository.QuestionRepository, categoryRepo *repository.CategoryRepository, db *gorm.DB) *QuestionService {
	return &QuestionService{QuestionRepo: questionRepo, CategoryRepo: categoryRepo, DB: db}
}

type QuestionRequest struct {
	Text         string                 `json:"text" binding:"required"`
	QuestionType model.QuestionType     `json:"questionType" binding:"required"`
	Options      []model.QuestionOption `json:"options"`
	CorrectBool  *bool                  `json:"correctBool"`
	CorrectText  string                 `json:"correctText"`
	Difficulty   string                 `json:"difficulty"`
	Tags         []string               `json:"tags"`
	CategoryID   *uint                  `json:"categoryId"`
	Status       string                 `json:"status"`
}

// validateAnswerKey 按题型检查答案键的完整性
func validateAnswerKey(req QuestionRequest) error {
	switch req.QuestionType {
	case model.QuestionMultipleChoice:
		if len(req.Options) < 2 {
			return util.NewValidationError("options", "multiple choice requires at least two options")
		}
		correct := 0
		for _, opt := range req.Options {
			if strings.TrimSpace(opt.Text) == "" {
				return util.NewValidationError("options", "option text must not be empty")
			}
			if opt.IsCorrect {
				correct++
			}
		}
		if correct == 0 {
			return util.NewValidationError("options", "at least one option must be marked correct")
		}
	case model.QuestionTrueFalse:
		if req.CorrectBool == nil {
			return util.NewValidationError("correctBool", "true/false requires a correct answer")
		}
	case model.QuestionShortAnswer, model.QuestionFillInTheBlank:
		if strings.TrimSpace(req.CorrectText) == "" {
			return util.NewValidationError("correctText", "requires a reference answer")
		}
	default:
		return util.NewValidationError("questionType", "unknown question type")
	}
	return nil
}

// applyRequest 把请求写进实体，并清掉与当前题型无关的答案表示，
// 避免题型切换后残留旧答案
func applyRequest(question *model.Question, req QuestionRequest) {
	question.Text = req.Text
	question.QuestionType = req.QuestionType
	question.Difficulty = req.Difficulty
	question.Tags = model.StringList(req.Tags)
	question.CategoryID = req.CategoryID
	if req.Status != "" {
		question.Status = req.Status
	} else if question.Status == "" {
		question.Status = model.StatusDraft
	}

	question.Options = nil
	question.CorrectBool = nil
	question.CorrectText = ""
	switch req.QuestionType {
	case model.QuestionMultipleChoice:
		question.Options = model.OptionList(req.Options)
	case model.QuestionTrueFalse:
		question.CorrectBool = req.CorrectBool
	case model.QuestionShortAnswer, model.QuestionFillInTheBlank:
		question.CorrectText = strings.TrimSpace(req.CorrectText)
	}
}

func (s *QuestionService) CreateQuestion(actor *model.AuthContext, req QuestionRequest) (*model.Question, error) {
	if !actor.Can("question:create") {
		return nil, util.ErrPermissionDenied
	}
	if err := validateAnswerKey(req); err != nil {
		return nil, err
	}
	if req.Difficulty != "" && !validDifficulty(req.Difficulty) {
		return nil, util.NewValidationError("difficulty", "must be beginner, intermediate or advanced")
	}
	if !validStatus(req.Status) {
		return nil, util.NewValidationError("status", "must be draft, published or archived")
	}
	if req.CategoryID != nil {
		if _, err := s.CategoryRepo.FindByID(*req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrNotFound
			}
			return nil, err
		}
	}

	question := &model.Question{CreatorID: actor.UserID}
	applyRequest(question, req)
	if err := s.QuestionRepo.Create(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) UpdateQuestion(actor *model.AuthContext, id uint, req QuestionRequest) (*model.Question, error) {
	if !actor.Can("question:update") {
		return nil, util.ErrPermissionDenied
	}
	if err := validateAnswerKey(req); err != nil {
		return nil, err
	}
	if req.Difficulty != "" && !validDifficulty(req.Difficulty) {
		return nil, util.NewValidationError("difficulty", "must be beginner, intermediate or advanced")
	}
	if !validStatus(req.Status) {
		return nil, util.NewValidationError("status", "must be draft, published or archived")
	}

	question, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if req.CategoryID != nil {
		if _, err := s.CategoryRepo.FindByID(*req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrNotFound
			}
			return nil, err
		}
	}

	applyRequest(question, req)
	if err := s.QuestionRepo.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) DeleteQuestion(actor *model.AuthContext, id uint) error {
	if !actor.Can("question:delete") {
		return util.ErrPermissionDenied
	}
	if _, err := s.QuestionRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	return s.QuestionRepo.Delete(id)
}

func (s *QuestionService) GetQuestion(actor *model.AuthContext, id uint) (*model.Question, error) {
	if !actor.Can("question:read:all") {
		return nil, util.ErrPermissionDenied
	}
	question, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) ListQuestions(actor *model.AuthContext, questionType, status string, categoryID uint, page, limit int) ([]model.Question, int64, error) {
	if !actor.Can("question:read:all") {
		return nil, 0, util.ErrPermissionDenied
	}
	return s.QuestionRepo.List(questionType, status, categoryID, page, limit)
}
