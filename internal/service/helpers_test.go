package service

import (
	"testing"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"

	"gorm.io/gorm"
)

func newCourseService(db *gorm.DB) *CourseService {
	return NewCourseService(
		repository.NewCourseRepository(db),
		repository.NewSectionRepository(db),
		repository.NewModuleRepository(db),
		db,
	)
}

func newModuleService(db *gorm.DB) *ModuleService {
	return NewModuleService(
		repository.NewModuleRepository(db),
		repository.NewSectionRepository(db),
		repository.NewCourseRepository(db),
		repository.NewLessonContentRepository(db),
		repository.NewQuestionRepository(db),
		db,
	)
}

func newOrderingService(db *gorm.DB) *OrderingService {
	return NewOrderingService(
		repository.NewSectionRepository(db),
		repository.NewModuleRepository(db),
		db,
	)
}

func newQuestionService(db *gorm.DB) *QuestionService {
	return NewQuestionService(
		repository.NewQuestionRepository(db),
		repository.NewCategoryRepository(db),
		db,
	)
}

func newEnrollmentService(db *gorm.DB) *EnrollmentService {
	return NewEnrollmentService(
		repository.NewEnrollmentRepository(db),
		repository.NewCourseRepository(db),
		db,
	)
}

func newAttemptService(db *gorm.DB) *AttemptService {
	return NewAttemptService(
		repository.NewQuizAttemptRepository(db),
		repository.NewModuleRepository(db),
		repository.NewSectionRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewEnrollmentRepository(db),
		db,
	)
}

func newPracticeTestService(db *gorm.DB) *PracticeTestService {
	return NewPracticeTestService(
		repository.NewPracticeTestAttemptRepository(db),
		repository.NewModuleRepository(db),
		repository.NewSectionRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewEnrollmentRepository(db),
		db,
	)
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

func seedCourse(t *testing.T, db *gorm.DB, status string) *model.Course {
	t.Helper()
	course := &model.Course{Title: "示例课程", Status: status, Difficulty: model.DifficultyBeginner}
	mustCreate(t, db, course)
	return course
}

func seedSection(t *testing.T, db *gorm.DB, courseID uint, order int) *model.Section {
	t.Helper()
	section := &model.Section{CourseID: courseID, Order: order, Title: "小节"}
	mustCreate(t, db, section)
	return section
}

func seedQuizModule(t *testing.T, db *gorm.DB, sectionID *uint, maxAttempts, passing int) *model.CourseModule {
	t.Helper()
	module := &model.CourseModule{
		SectionID:              sectionID,
		Title:                  "小测",
		ModuleType:             model.ModuleQuiz,
		QuestionsPerPage:       1,
		QuestionNavigation:     model.NavigationFree,
		MaxAttempts:            maxAttempts,
		PassingScorePercentage: passing,
		Status:                 model.StatusPublished,
	}
	mustCreate(t, db, module)
	return module
}

func seedTestModule(t *testing.T, db *gorm.DB, sectionID *uint, quizIDs ...uint) *model.CourseModule {
	t.Helper()
	module := &model.CourseModule{SectionID: sectionID, Title: "模拟卷", ModuleType: model.ModuleTest}
	mustCreate(t, db, module)
	for i, quizID := range quizIDs {
		mustCreate(t, db, &model.TestQuizEntry{TestModuleID: module.ID, QuizModuleID: quizID, Order: i + 1})
	}
	return module
}

func seedMCQuestion(t *testing.T, db *gorm.DB, correct string, wrong ...string) *model.Question {
	t.Helper()
	options := model.OptionList{{Text: correct, IsCorrect: true}}
	for _, w := range wrong {
		options = append(options, model.QuestionOption{Text: w})
	}
	question := &model.Question{
		Text:         "选择题",
		QuestionType: model.QuestionMultipleChoice,
		Options:      options,
		Status:       model.StatusPublished,
	}
	mustCreate(t, db, question)
	return question
}

func seedShortQuestion(t *testing.T, db *gorm.DB, answer string) *model.Question {
	t.Helper()
	question := &model.Question{
		Text:         "简答题",
		QuestionType: model.QuestionShortAnswer,
		CorrectText:  answer,
		Status:       model.StatusPublished,
	}
	mustCreate(t, db, question)
	return question
}

func attachQuestion(t *testing.T, db *gorm.DB, moduleID, questionID uint, points, order int) {
	t.Helper()
	mustCreate(t, db, &model.ModuleQuestion{ModuleID: moduleID, QuestionID: questionID, Points: points, Order: order})
}

func seedLessonContent(t *testing.T, db *gorm.DB, title string) *model.LessonContent {
	t.Helper()
	content := &model.LessonContent{Title: title, ContentType: model.LessonContentText, Body: "正文", Status: model.StatusPublished}
	mustCreate(t, db, content)
	return content
}

func seedEnrollment(t *testing.T, db *gorm.DB, userID, courseID uint) *model.Enrollment {
	t.Helper()
	enrollment := &model.Enrollment{UserID: userID, CourseID: courseID}
	mustCreate(t, db, enrollment)
	return enrollment
}
