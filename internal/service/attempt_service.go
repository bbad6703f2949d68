package service

import (
	"errors"
	"time"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"
	"lms_backoffice/pkg/monitoring"

	"gorm.io/gorm"
)

type AttemptService struct {
	AttemptRepo    *repository.QuizAttemptRepository
	ModuleRepo     *repository.ModuleRepository
	SectionRepo    *repository.SectionRepository
	QuestionRepo   *repository.QuestionRepository
	EnrollmentRepo *repository.EnrollmentRepository
	DB             *gorm.DB
}

func NewAttemptService(attemptRepo *repository.QuizAttemptRepository, moduleRepo *repository.ModuleRepository, sectionRepo *repository.SectionRepository, questionRepo *repository.QuestionRepository, enrollmentRepo *repository.EnrollmentRepository, db *gorm.DB) *AttemptService {
	return &AttemptService{
		AttemptRepo:    attemptRepo,
		ModuleRepo:     moduleRepo,
		SectionRepo:    sectionRepo,
		QuestionRepo:   questionRepo,
		EnrollmentRepo: enrollmentRepo,
		DB:             db,
	}
}

type AnswerSubmission struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Answer     string `json:"answer"`
}

// checkQuizOpen 作答入口的共同检查：已发布、在可用窗口内
func checkQuizOpen(module *model.CourseModule, now time.Time) error {
	if module.ModuleType != model.ModuleQuiz {
		return util.NewValidationError("moduleId", "not a quiz module")
	}
	if module.Status != model.StatusPublished {
		return util.ErrQuizNotPublished
	}
	if module.AvailableFrom != nil && now.Before(*module.AvailableFrom) {
		return util.ErrAttemptWindowClosed
	}
	if module.AvailableUntil != nil && now.After(*module.AvailableUntil) {
		return util.ErrAttemptWindowClosed
	}
	return nil
}

// requireEnrolled 模块挂在课程里时，作答者必须已报名该课程；
// 游离模块不设报名门槛
func (s *AttemptService) requireEnrolled(userID uint, module *model.CourseModule) error {
	if module.SectionID == nil {
		return nil
	}
	section, err := s.SectionRepo.FindByID(*module.SectionID)
	if err != nil {
		return err
	}
	if _, err := s.EnrollmentRepo.FindByUserAndCourse(userID, section.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrPermissionDenied
		}
		return err
	}
	return nil
}

// StartQuizAttempt 开始一次作答。次数上限按已存在的全部 attempt
// 计数，进行中的也算
func (s *AttemptService) StartQuizAttempt(actor *model.AuthContext, moduleID uint) (*model.QuizAttempt, error) {
	if !actor.Can("quiz_attempt:start") {
		return nil, util.ErrPermissionDenied
	}
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	now := time.Now()
	if err := checkQuizOpen(module, now); err != nil {
		return nil, err
	}
	if err := s.requireEnrolled(actor.UserID, module); err != nil {
		return nil, err
	}

	if module.MaxAttempts != model.UnlimitedAttempts {
		count, err := s.AttemptRepo.CountByUserAndModule(actor.UserID, moduleID)
		if err != nil {
			return nil, err
		}
		if count >= int64(module.MaxAttempts) {
			return nil, util.ErrAttemptLimitReached
		}
	}

	// 唯一索引顶住并发的同号插入，冲突后重新取号
	for retries := 0; retries < 3; retries++ {
		maxNo, err := s.AttemptRepo.MaxAttemptNumber(actor.UserID, moduleID)
		if err != nil {
			return nil, err
		}
		attempt := &model.QuizAttempt{
			UserID:        actor.UserID,
			ModuleID:      moduleID,
			AttemptNumber: maxNo + 1,
			Status:        model.AttemptInProgress,
			StartedAt:     now,
		}
		err = s.AttemptRepo.Create(attempt)
		if err == nil {
			return attempt, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
	}
	return nil, util.ErrAttemptLimitReached
}

// SubmitQuizAttempt 提交并自动判分。选择/判断题即时出分，
// 简答/填空未精确命中的转人工，整卷状态随之落在
// graded 或 partially-graded
func (s *AttemptService) SubmitQuizAttempt(actor *model.AuthContext, attemptID uint, submissions []AnswerSubmission) (*model.QuizAttempt, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if attempt.UserID != actor.UserID {
		return nil, util.ErrPermissionDenied
	}
	if !actor.Can("quiz_attempt:submit") {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.ErrAttemptAlreadyFinal
	}

	moduleQuestions, err := s.ModuleRepo.ListQuestions(attempt.ModuleID)
	if err != nil {
		return nil, err
	}
	questionIDs := make([]uint, 0, len(moduleQuestions))
	for _, mq := range moduleQuestions {
		questionIDs = append(questionIDs, mq.QuestionID)
	}
	questions, err := s.QuestionRepo.FindByIDs(questionIDs)
	if err != nil {
		return nil, err
	}
	questionByID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		questionByID[questions[i].ID] = &questions[i]
	}

	given := make(map[uint]string, len(submissions))
	for _, sub := range submissions {
		if _, ok := questionByID[sub.QuestionID]; !ok {
			return nil, util.NewValidationError("answers", "answer references a question outside this quiz")
		}
		given[sub.QuestionID] = sub.Answer
	}

	now := time.Now()
	score := 0
	total := 0
	pending := 0
	answers := make([]model.AttemptAnswer, 0, len(moduleQuestions))
	for _, mq := range moduleQuestions {
		question := questionByID[mq.QuestionID]
		if question == nil {
			continue
		}
		result := gradeAnswer(question, mq.Points, given[mq.QuestionID])
		answer := model.AttemptAnswer{
			AttemptID:      attempt.ID,
			QuestionID:     mq.QuestionID,
			Answer:         given[mq.QuestionID],
			PointsPossible: mq.Points,
			PointsEarned:   result.PointsEarned,
			RequiresManual: result.RequiresManual,
		}
		total += mq.Points
		if result.PointsEarned != nil {
			score += *result.PointsEarned
		} else {
			pending++
		}
		answers = append(answers, answer)
	}

	module, err := s.ModuleRepo.FindByID(attempt.ModuleID)
	if err != nil {
		return nil, err
	}

	attempt.Score = score
	attempt.TotalPointsPossible = total
	attempt.SubmittedAt = &now
	if pending == 0 {
		attempt.Status = model.AttemptGraded
		attempt.GradedAt = &now
		attempt.Passed = passedThreshold(score, total, module.PassingScorePercentage)
	} else {
		attempt.Status = model.AttemptPartiallyGraded
		attempt.Passed = false
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(attempt).Error; err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		return tx.Create(&answers).Error
	})
	if err != nil {
		return nil, err
	}

	monitoring.AttemptGradedCounter.WithLabelValues(string(model.ModuleQuiz), string(attempt.Status)).Inc()
	s.touchEnrollment(actor.UserID, module)

	return s.AttemptRepo.FindByIDWithAnswers(attempt.ID)
}

// ManualGradeAnswer 人工给分。只允许对 partially-graded 卷子里
// 仍未得分的简答/填空操作，最后一题给完分整卷转 graded
func (s *AttemptService) ManualGradeAnswer(actor *model.AuthContext, attemptID, answerID uint, points int) (*model.QuizAttempt, error) {
	if !actor.Can("quiz_attempt:grade") {
		return nil, util.ErrPermissionDenied
	}
	attempt, err := s.AttemptRepo.FindByIDWithAnswers(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if attempt.Status != model.AttemptPartiallyGraded {
		return nil, util.ErrManualGradeNotPending
	}

	var target *model.AttemptAnswer
	for i := range attempt.Answers {
		if attempt.Answers[i].ID == answerID {
			target = &attempt.Answers[i]
			break
		}
	}
	if target == nil {
		return nil, util.ErrNotFound
	}
	if !target.RequiresManual || target.PointsEarned != nil {
		return nil, util.ErrManualGradeNotPending
	}
	if points < 0 || points > target.PointsPossible {
		return nil, util.NewValidationError("points", "must be between 0 and the question's point value")
	}

	now := time.Now()
	target.PointsEarned = &points
	target.GraderID = &actor.UserID
	target.GradedAt = &now

	score := 0
	pending := 0
	for i := range attempt.Answers {
		if attempt.Answers[i].PointsEarned != nil {
			score += *attempt.Answers[i].PointsEarned
		} else {
			pending++
		}
	}
	attempt.Score = score
	if pending == 0 {
		module, err := s.ModuleRepo.FindByID(attempt.ModuleID)
		if err != nil {
			return nil, err
		}
		attempt.Status = model.AttemptGraded
		attempt.GradedAt = &now
		attempt.Passed = passedThreshold(score, attempt.TotalPointsPossible, module.PassingScorePercentage)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(target).Error; err != nil {
			return err
		}
		return tx.Save(attempt).Error
	})
	if err != nil {
		return nil, err
	}

	if attempt.Status == model.AttemptGraded {
		monitoring.AttemptGradedCounter.WithLabelValues(string(model.ModuleQuiz), string(attempt.Status)).Inc()
	}
	return attempt, nil
}

func (s *AttemptService) GetQuizAttempt(actor *model.AuthContext, attemptID uint) (*model.QuizAttempt, error) {
	attempt, err := s.AttemptRepo.FindByIDWithAnswers(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if attempt.UserID != actor.UserID && !actor.Can("quiz_attempt:read:all") {
		return nil, util.ErrPermissionDenied
	}
	if attempt.UserID == actor.UserID && !actor.Can("quiz_attempt:read") && !actor.Can("quiz_attempt:read:all") {
		return nil, util.ErrPermissionDenied
	}
	return attempt, nil
}

func (s *AttemptService) ListQuizAttempts(actor *model.AuthContext, userID, moduleID uint) ([]model.QuizAttempt, error) {
	if userID != actor.UserID && !actor.Can("quiz_attempt:read:all") {
		return nil, util.ErrPermissionDenied
	}
	return s.AttemptRepo.ListByUserAndModule(userID, moduleID)
}

// DeleteQuizAttempt 连同作答记录一起删除，留给纠错场景
func (s *AttemptService) DeleteQuizAttempt(actor *model.AuthContext, attemptID uint) error {
	if !actor.Can("quiz_attempt:delete") {
		return util.ErrPermissionDenied
	}
	if _, err := s.AttemptRepo.FindByID(attemptID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	return s.AttemptRepo.Delete(attemptID)
}

// touchEnrollment 提交成功后刷新报名的最近访问时间，失败不影响主流程
func (s *AttemptService) touchEnrollment(userID uint, module *model.CourseModule) {
	if module.SectionID == nil {
		return
	}
	section, err := s.SectionRepo.FindByID(*module.SectionID)
	if err != nil {
		return
	}
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, section.CourseID)
	if err != nil {
		return
	}
	_ = s.EnrollmentRepo.TouchAccess(enrollment.ID)
}

// passedThreshold 通过线按百分比换算，总分为 0 视为不通过
func passedThreshold(score, total, passingPercentage int) bool {
	if total <= 0 {
		return false
	}
	return float64(score)/float64(total)*100 >= float64(passingPercentage)
}
