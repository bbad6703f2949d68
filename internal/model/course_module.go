package model

import "time"

type ModuleType string

const (
	ModuleLesson ModuleType = "lesson"
	ModuleQuiz   ModuleType = "quiz"
	ModuleTest   ModuleType = "test"
)

const (
	NavigationSequence = "sequence"
	NavigationFree     = "free"
)

// UnlimitedAttempts 保持历史数据约定：-1 表示不限次数
const UnlimitedAttempts = -1

// CourseModule 课程模块，lesson/quiz/test 三种变体共用一张表，
// module_type 为判别字段，各变体只使用自己的列
// swagger:model CourseModule
type CourseModule struct {
	BaseModel
	// 为空表示游离模块（未挂到任何小节）
	SectionID   *uint      `gorm:"index" json:"sectionId,omitempty"`
	Order       int        `gorm:"column:sort_order;default:0" json:"order"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	ModuleType  ModuleType `gorm:"size:20;not null" json:"moduleType"`

	// lesson 变体
	ProgressBar bool            `gorm:"default:false" json:"progressBar"`
	Contents    []ModuleContent `gorm:"foreignKey:ModuleID" json:"contents,omitempty"`

	// quiz 变体
	QuestionsPerPage       int              `gorm:"default:0" json:"questionsPerPage"`
	QuestionNavigation     string           `gorm:"size:20;default:''" json:"questionNavigation"`
	QuestionShuffle        bool             `gorm:"default:false" json:"questionShuffle"`
	ShuffleOptions         bool             `gorm:"default:false" json:"shuffleOptions"`
	MaxAttempts            int              `gorm:"default:-1" json:"maxAttempts"`
	TimeLimitMinutes       *int             `json:"timeLimitMinutes,omitempty"`
	PassingScorePercentage int              `gorm:"default:0" json:"passingScorePercentage"`
	AvailableFrom          *time.Time       `json:"availableFrom,omitempty"`
	AvailableUntil         *time.Time       `json:"availableUntil,omitempty"`
	Status                 string           `gorm:"size:20;default:'draft'" json:"status"`
	Questions              []ModuleQuestion `gorm:"foreignKey:ModuleID" json:"questions,omitempty"`

	// test 变体：按顺序引用若干 quiz 模块，不允许嵌套 test
	TestEntries []TestQuizEntry `gorm:"foreignKey:TestModuleID" json:"testEntries,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// ModuleContent lesson 模块与共享内容的有序关联
type ModuleContent struct {
	BaseModel
	ModuleID        uint           `gorm:"index;not null;uniqueIndex:uniq_module_content,priority:1" json:"moduleId"`
	LessonContentID uint           `gorm:"not null;uniqueIndex:uniq_module_content,priority:2" json:"lessonContentId"`
	Order           int            `gorm:"column:sort_order;default:0" json:"order"`
	LessonContent   *LessonContent `gorm:"foreignKey:LessonContentID" json:"lessonContent,omitempty"`
}

func (ModuleContent) TableName() string {
	return "module_contents"
}

// ModuleQuestion quiz 模块与题库条目的有序关联，分值随关联保存
type ModuleQuestion struct {
	BaseModel
	ModuleID   uint      `gorm:"index;not null;uniqueIndex:uniq_module_question,priority:1" json:"moduleId"`
	QuestionID uint      `gorm:"not null;uniqueIndex:uniq_module_question,priority:2" json:"questionId"`
	Points     int       `gorm:"default:1" json:"points"`
	Order      int       `gorm:"column:sort_order;default:0" json:"order"`
	Question   *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

func (ModuleQuestion) TableName() string {
	return "module_questions"
}

// TestQuizEntry test 模块引用的 quiz 小节，同一 quiz 在一个 test 中至多出现一次
type TestQuizEntry struct {
	BaseModel
	TestModuleID uint          `gorm:"index;not null;uniqueIndex:uniq_test_quiz,priority:1" json:"testModuleId"`
	QuizModuleID uint          `gorm:"not null;uniqueIndex:uniq_test_quiz,priority:2" json:"quizModuleId"`
	Order        int           `gorm:"column:sort_order;default:0" json:"order"`
	QuizModule   *CourseModule `gorm:"foreignKey:QuizModuleID" json:"quizModule,omitempty"`
}

func (TestQuizEntry) TableName() string {
	return "test_quiz_entries"
}
