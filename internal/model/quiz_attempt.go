package model

import "time"

type AttemptStatus string

// 判分随提交同步完成，提交后直接落在 graded 或 partially-graded
const (
	AttemptInProgress      AttemptStatus = "in-progress"
	AttemptGraded          AttemptStatus = "graded"
	AttemptPartiallyGraded AttemptStatus = "partially-graded"
)

// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel
	UserID   uint `gorm:"index;not null;uniqueIndex:uniq_quiz_attempt_no,priority:1" json:"userId"`
	ModuleID uint `gorm:"index;not null;uniqueIndex:uniq_quiz_attempt_no,priority:2" json:"moduleId"`
	// 单调递增，(user, module, attempt_number) 唯一索引封死 start 的并发竞争
	AttemptNumber       int             `gorm:"not null;uniqueIndex:uniq_quiz_attempt_no,priority:3" json:"attemptNumber"`
	Score               int             `gorm:"default:0" json:"score"`
	TotalPointsPossible int             `gorm:"default:0" json:"totalPointsPossible"`
	Passed              bool            `gorm:"default:false" json:"passed"`
	Status              AttemptStatus   `gorm:"size:20;default:'in-progress'" json:"status"`
	StartedAt           time.Time       `json:"startedAt"`
	SubmittedAt         *time.Time      `json:"submittedAt,omitempty"`
	GradedAt            *time.Time      `json:"gradedAt,omitempty"`
	Answers             []AttemptAnswer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// AttemptAnswer 单题作答记录。PointsEarned 为空表示尚未得分
// （等待人工判分），自动判分后立即写入
type AttemptAnswer struct {
	BaseModel
	AttemptID      uint       `gorm:"index;not null" json:"attemptId"`
	QuestionID     uint       `gorm:"index;not null" json:"questionId"`
	Answer         string     `gorm:"type:text" json:"answer"`
	PointsPossible int        `gorm:"default:0" json:"pointsPossible"`
	PointsEarned   *int       `json:"pointsEarned,omitempty"`
	RequiresManual bool       `gorm:"default:false" json:"requiresManual"`
	GraderID       *uint      `json:"graderId,omitempty"`
	GradedAt       *time.Time `json:"gradedAt,omitempty"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
