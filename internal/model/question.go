package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multipleChoice"
	QuestionTrueFalse      QuestionType = "trueFalse"
	QuestionShortAnswer    QuestionType = "shortAnswer"
	QuestionFillInTheBlank QuestionType = "fillInTheBlank"
)

type QuestionOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// OptionList 以JSON形式存储的选项数组，仅 multipleChoice 使用
type OptionList []QuestionOption

func (l OptionList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *OptionList) Scan(value interface{}) error {
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
	return errors.New("unsupported type for OptionList")
}

// Question 题库条目。三种答案表示互斥：Options 只属于选择题，
// CorrectBool 只属于判断题，CorrectText 只属于简答/填空
// swagger:model Question
type Question struct {
	BaseModel
	Text         string       `gorm:"type:text;not null" json:"text"`
	QuestionType QuestionType `gorm:"size:30;not null" json:"questionType"`
	Options      OptionList   `gorm:"type:json" json:"options,omitempty"`
	CorrectBool  *bool        `json:"correctBool,omitempty"`
	CorrectText  string       `gorm:"size:500" json:"correctText,omitempty"`
	Difficulty   string       `gorm:"size:20;default:'beginner'" json:"difficulty"`
	Tags         StringList   `gorm:"type:json" json:"tags"`
	CategoryID   *uint        `gorm:"index" json:"categoryId,omitempty"`
	Status       string       `gorm:"size:20;default:'draft'" json:"status"`
	CreatorID    uint         `gorm:"index" json:"creatorId"`
}

func (Question) TableName() string {
	return "questions"
}

// RequiresManualGrading 简答/填空在答案不精确匹配时需要人工给分
func (q *Question) RequiresManualGrading() bool {
	return q.QuestionType == QuestionShortAnswer || q.QuestionType == QuestionFillInTheBlank
}
