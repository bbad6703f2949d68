package service

import (
	"errors"
	"math"
	"time"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"
	"lms_backoffice/pkg/monitoring"

	"gorm.io/gorm"
)

type PracticeTestService struct {
	AttemptRepo    *repository.PracticeTestAttemptRepository
	ModuleRepo     *repository.ModuleRepository
	SectionRepo    *repository.SectionRepository
	QuestionRepo   *repository.QuestionRepository
	EnrollmentRepo *repository.EnrollmentRepository
	DB             *gorm.DB
}

func NewPracticeTestService(attemptRepo *repository.PracticeTestAttemptRepository, moduleRepo *repository.ModuleRepository, sectionRepo *repository.SectionRepository, questionRepo *repository.QuestionRepository, enrollmentRepo *repository.EnrollmentRepository, db *gorm.DB) *PracticeTestService {
	return &PracticeTestService{
		AttemptRepo:    attemptRepo,
		ModuleRepo:     moduleRepo,
		SectionRepo:    sectionRepo,
		QuestionRepo:   questionRepo,
		EnrollmentRepo: enrollmentRepo,
		DB:             db,
	}
}

type TestAnswerSubmission struct {
	QuizModuleID uint   `json:"quizModuleId" binding:"required"`
	QuestionID   uint   `json:"questionId" binding:"required"`
	Answer       string `json:"answer"`
}

// StartTestAttempt 开始一次练习测试。测试本身没有次数上限和
// 可用窗口，引用的 quiz 在保存时已确保发布
func (s *PracticeTestService) StartTestAttempt(actor *model.AuthContext, testModuleID uint) (*model.PracticeTestAttempt, error) {
	if !actor.Can("practice_test_attempt:start") {
		return nil, util.ErrPermissionDenied
	}
	module, err := s.ModuleRepo.FindByID(testModuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if module.ModuleType != model.ModuleTest {
		return nil, util.NewValidationError("testModuleId", "not a test module")
	}
	entries, err := s.ModuleRepo.ListTestEntries(testModuleID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, util.NewValidationError("testModuleId", "test module has no quiz sections")
	}
	if err := s.requireEnrolledForModule(actor.UserID, module); err != nil {
		return nil, err
	}

	now := time.Now()
	for retries := 0; retries < 3; retries++ {
		maxNo, err := s.AttemptRepo.MaxAttemptNumber(actor.UserID, testModuleID)
		if err != nil {
			return nil, err
		}
		attempt := &model.PracticeTestAttempt{
			UserID:        actor.UserID,
			TestModuleID:  testModuleID,
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

// SubmitTestAttempt 提交整卷并按 quiz 小节判分。小节得分顺序与
// test 模块里的小节顺序一致；恰好两个小节时附加 SAT 换算
func (s *PracticeTestService) SubmitTestAttempt(actor *model.AuthContext, attemptID uint, submissions []TestAnswerSubmission) (*model.PracticeTestAttempt, error) {
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
	if !actor.Can("practice_test_attempt:submit") {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.ErrAttemptAlreadyFinal
	}

	entries, err := s.ModuleRepo.ListTestEntries(attempt.TestModuleID)
	if err != nil {
		return nil, err
	}
	entrySet := make(map[uint]struct{}, len(entries))
	for _, entry := range entries {
		entrySet[entry.QuizModuleID] = struct{}{}
	}

	given := make(map[uint]map[uint]string)
	for _, sub := range submissions {
		if _, ok := entrySet[sub.QuizModuleID]; !ok {
			return nil, util.NewValidationError("answers", "answer references a quiz outside this test")
		}
		if given[sub.QuizModuleID] == nil {
			given[sub.QuizModuleID] = make(map[uint]string)
		}
		given[sub.QuizModuleID][sub.QuestionID] = sub.Answer
	}

	now := time.Now()
	var answers []model.TestAttemptAnswer
	sectionScores := make(model.SectionScoreList, 0, len(entries))
	overallScore := 0
	overallTotal := 0
	pending := 0

	for _, entry := range entries {
		moduleQuestions, err := s.ModuleRepo.ListQuestions(entry.QuizModuleID)
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

		sectionScore := 0
		sectionTotal := 0
		sectionGiven := given[entry.QuizModuleID]
		for qid := range sectionGiven {
			if _, ok := questionByID[qid]; !ok {
				return nil, util.NewValidationError("answers", "answer references a question outside this quiz")
			}
		}
		for _, mq := range moduleQuestions {
			question := questionByID[mq.QuestionID]
			if question == nil {
				continue
			}
			result := gradeAnswer(question, mq.Points, sectionGiven[mq.QuestionID])
			answers = append(answers, model.TestAttemptAnswer{
				AttemptID:      attempt.ID,
				QuizModuleID:   entry.QuizModuleID,
				QuestionID:     mq.QuestionID,
				Answer:         sectionGiven[mq.QuestionID],
				PointsPossible: mq.Points,
				PointsEarned:   result.PointsEarned,
				RequiresManual: result.RequiresManual,
			})
			sectionTotal += mq.Points
			if result.PointsEarned != nil {
				sectionScore += *result.PointsEarned
			} else {
				pending++
			}
		}
		sectionScores = append(sectionScores, model.SectionScore{
			QuizModuleID:  entry.QuizModuleID,
			Score:         sectionScore,
			TotalPossible: sectionTotal,
		})
		overallScore += sectionScore
		overallTotal += sectionTotal
	}

	attempt.SectionScores = sectionScores
	attempt.OverallScore = overallScore
	attempt.OverallTotalPoints = overallTotal
	attempt.SubmittedAt = &now
	if pending == 0 {
		attempt.Status = model.AttemptGraded
		attempt.GradedAt = &now
		attempt.SATDetails = computeSATDetails(sectionScores)
	} else {
		attempt.Status = model.AttemptPartiallyGraded
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

	monitoring.AttemptGradedCounter.WithLabelValues(string(model.ModuleTest), string(attempt.Status)).Inc()
	s.touchEnrollmentForModule(actor.UserID, attempt.TestModuleID)

	return s.AttemptRepo.FindByIDWithAnswers(attempt.ID)
}

// ManualGradeTestAnswer 人工给分，最后一题给完后重算小节得分并
// 转 graded（含 SAT 换算）
func (s *PracticeTestService) ManualGradeTestAnswer(actor *model.AuthContext, attemptID, answerID uint, points int) (*model.PracticeTestAttempt, error) {
	if !actor.Can("practice_test_attempt:grade") {
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

	var target *model.TestAttemptAnswer
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

	// 小节得分就地重算，顺序保持与 test 小节一致
	scoreBySection := make(map[uint]int)
	pending := 0
	overallScore := 0
	for i := range attempt.Answers {
		a := &attempt.Answers[i]
		if a.PointsEarned != nil {
			scoreBySection[a.QuizModuleID] += *a.PointsEarned
			overallScore += *a.PointsEarned
		} else {
			pending++
		}
	}
	for i := range attempt.SectionScores {
		attempt.SectionScores[i].Score = scoreBySection[attempt.SectionScores[i].QuizModuleID]
	}
	attempt.OverallScore = overallScore
	if pending == 0 {
		attempt.Status = model.AttemptGraded
		attempt.GradedAt = &now
		attempt.SATDetails = computeSATDetails(attempt.SectionScores)
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
		monitoring.AttemptGradedCounter.WithLabelValues(string(model.ModuleTest), string(attempt.Status)).Inc()
	}
	return attempt, nil
}

func (s *PracticeTestService) GetTestAttempt(actor *model.AuthContext, attemptID uint) (*model.PracticeTestAttempt, error) {
	attempt, err := s.AttemptRepo.FindByIDWithAnswers(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if attempt.UserID != actor.UserID && !actor.Can("practice_test_attempt:read:all") {
		return nil, util.ErrPermissionDenied
	}
	if attempt.UserID == actor.UserID && !actor.Can("practice_test_attempt:read") && !actor.Can("practice_test_attempt:read:all") {
		return nil, util.ErrPermissionDenied
	}
	return attempt, nil
}

func (s *PracticeTestService) ListTestAttempts(actor *model.AuthContext, userID, testModuleID uint) ([]model.PracticeTestAttempt, error) {
	if userID != actor.UserID && !actor.Can("practice_test_attempt:read:all") {
		return nil, util.ErrPermissionDenied
	}
	return s.AttemptRepo.ListByUserAndModule(userID, testModuleID)
}

func (s *PracticeTestService) DeleteTestAttempt(actor *model.AuthContext, attemptID uint) error {
	if !actor.Can("practice_test_attempt:delete") {
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

func (s *PracticeTestService) requireEnrolledForModule(userID uint, module *model.CourseModule) error {
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

func (s *PracticeTestService) touchEnrollmentForModule(userID, moduleID uint) {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil || module.SectionID == nil {
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

const (
	satScaledMin = 200
	satScaledMax = 800
)

// scaleSATSection 线性换算到 [200,800]，四舍五入后夹紧边界
func scaleSATSection(raw, total int) int {
	if total <= 0 {
		return satScaledMin
	}
	ratio := float64(raw) / float64(total)
	scaled := satScaledMin + int(math.Round(ratio*float64(satScaledMax-satScaledMin)))
	if scaled < satScaledMin {
		return satScaledMin
	}
	if scaled > satScaledMax {
		return satScaledMax
	}
	return scaled
}

// computeSATDetails SAT 形制只认恰好两个小节的测试：
// 第一节当阅读写作、第二节当数学，其余形制不做换算
func computeSATDetails(sections model.SectionScoreList) *model.SATScoreDetails {
	if len(sections) != 2 {
		return nil
	}
	rw := sections[0]
	mathSec := sections[1]
	details := &model.SATScoreDetails{
		ReadingWritingRaw:    rw.Score,
		ReadingWritingScaled: scaleSATSection(rw.Score, rw.TotalPossible),
		MathRaw:              mathSec.Score,
		MathScaled:           scaleSATSection(mathSec.Score, mathSec.TotalPossible),
	}
	details.TotalScaled = details.ReadingWritingScaled + details.MathScaled
	return details
}
