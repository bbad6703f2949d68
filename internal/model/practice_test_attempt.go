package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// SectionScore 与 test 模块内 quiz 小节顺序对齐的单节得分
type SectionScore struct {
	QuizModuleID  uint `json:"quizModuleId"`
	Score         int  `json:"score"`
	TotalPossible int  `json:"totalPossible"`
}

type SectionScoreList []SectionScore

func (l SectionScoreList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *SectionScoreList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported type for SectionScoreList")
}

// SATScoreDetails 固定两桶（阅读写作、数学）的原始分/换算分，
// 仅对 SAT 形制（恰好两个小节）的测试填充
type SATScoreDetails struct {
	ReadingWritingRaw    int `json:"readingWritingRaw"`
	ReadingWritingScaled int `json:"readingWritingScaled"`
	MathRaw              int `json:"mathRaw"`
	MathScaled           int `json:"mathScaled"`
	TotalScaled          int `json:"totalScaled"`
}

func (d SATScoreDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	return string(b), err
}

func (d *SATScoreDetails) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return errors.New("unsupported type for SATScoreDetails")
}

// swagger:model PracticeTestAttempt
type PracticeTestAttempt struct {
	BaseModel
	UserID        uint             `gorm:"index;not null;uniqueIndex:uniq_test_attempt_no,priority:1" json:"userId"`
	TestModuleID  uint             `gorm:"index;not null;uniqueIndex:uniq_test_attempt_no,priority:2" json:"testModuleId"`
	AttemptNumber int              `gorm:"not null;uniqueIndex:uniq_test_attempt_no,priority:3" json:"attemptNumber"`
	SectionScores SectionScoreList `gorm:"type:json" json:"sectionScores"`
	OverallScore  int              `gorm:"default:0" json:"overallScore"`
	// 所有小节总分之和
	OverallTotalPoints int                 `gorm:"default:0" json:"overallTotalPoints"`
	SATDetails         *SATScoreDetails    `gorm:"type:json" json:"satScoreDetails,omitempty"`
	Status             AttemptStatus       `gorm:"size:20;default:'in-progress'" json:"status"`
	StartedAt          time.Time           `json:"startedAt"`
	SubmittedAt        *time.Time          `json:"submittedAt,omitempty"`
	GradedAt           *time.Time          `json:"gradedAt,omitempty"`
	Answers            []TestAttemptAnswer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
}

func (PracticeTestAttempt) TableName() string {
	return "practice_test_attempts"
}

// TestAttemptAnswer 练习测试作答记录，多一层 quiz 小节归属
type TestAttemptAnswer struct {
	BaseModel
	AttemptID      uint       `gorm:"index;not null" json:"attemptId"`
	QuizModuleID   uint       `gorm:"index;not null" json:"quizModuleId"`
	QuestionID     uint       `gorm:"index;not null" json:"questionId"`
	Answer         string     `gorm:"type:text" json:"answer"`
	PointsPossible int        `gorm:"default:0" json:"pointsPossible"`
	PointsEarned   *int       `json:"pointsEarned,omitempty"`
	RequiresManual bool       `gorm:"default:false" json:"requiresManual"`
	GraderID       *uint      `json:"graderId,omitempty"`
	GradedAt       *time.Time `json:"gradedAt,omitempty"`
}

func (TestAttemptAnswer) TableName() string {
	return "test_attempt_answers"
}
