package service

import (
	"encoding/json"
	"strconv"
	"strings"

	"lms_backoffice/internal/model"
)

// gradeResult 单题判分结果。PointsEarned 为 nil 表示等待人工给分
type gradeResult struct {
	PointsEarned   *int
	RequiresManual bool
}

func intPtr(v int) *int { return &v }

// gradeAnswer 自动判分。选择/判断题机器判；简答/填空精确匹配
// （去首尾空白、忽略大小写）命中给满分，否则转人工。
// 未作答一律记 0 分，不进人工队列
func gradeAnswer(question *model.Question, points int, answer string) gradeResult {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return gradeResult{PointsEarned: intPtr(0)}
	}

	switch question.QuestionType {
	case model.QuestionMultipleChoice:
		if multipleChoiceCorrect(question.Options, trimmed) {
			return gradeResult{PointsEarned: intPtr(points)}
		}
		return gradeResult{PointsEarned: intPtr(0)}
	case model.QuestionTrueFalse:
		if question.CorrectBool == nil {
			return gradeResult{PointsEarned: intPtr(0)}
		}
		given, err := strconv.ParseBool(strings.ToLower(trimmed))
		if err != nil {
			return gradeResult{PointsEarned: intPtr(0)}
		}
		if given == *question.CorrectBool {
			return gradeResult{PointsEarned: intPtr(points)}
		}
		return gradeResult{PointsEarned: intPtr(0)}
	case model.QuestionShortAnswer, model.QuestionFillInTheBlank:
		if textMatches(question.CorrectText, trimmed) {
			return gradeResult{PointsEarned: intPtr(points)}
		}
		return gradeResult{RequiresManual: true}
	}
	return gradeResult{PointsEarned: intPtr(0)}
}

// multipleChoiceCorrect 选中的选项集合必须与正确选项集合完全一致。
// 多选时答案是选项文本的 JSON 数组，单选时就是选项文本本身
func multipleChoiceCorrect(options []model.QuestionOption, answer string) bool {
	var selected []string
	if err := json.Unmarshal([]byte(answer), &selected); err != nil {
		selected = []string{answer}
	}

	chosen := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		chosen[normalizeText(s)] = struct{}{}
	}
	correct := make(map[string]struct{})
	for _, opt := range options {
		if opt.IsCorrect {
			correct[normalizeText(opt.Text)] = struct{}{}
		}
	}
	if len(chosen) != len(correct) {
		return false
	}
	for key := range correct {
		if _, ok := chosen[key]; !ok {
			return false
		}
	}
	return true
}

func textMatches(expected, given string) bool {
	return normalizeText(expected) == normalizeText(given)
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
