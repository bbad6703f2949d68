package util

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("resource not found")
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")

	// 结构不变量冲突：请求整体拒绝，无部分落库
	ErrOrderCollision      = errors.New("order value collides with an existing sibling")
	ErrOrderMismatch       = errors.New("new ordering is not a permutation of current siblings")
	ErrDuplicateContent    = errors.New("lesson content already used by another module in this course")
	ErrDuplicateQuizInTest = errors.New("quiz already added to this test")
	ErrQuizNotPublished    = errors.New("quiz is not published")

	// 作答资格与状态机
	ErrAttemptLimitReached   = errors.New("attempt limit reached")
	ErrAttemptWindowClosed   = errors.New("quiz is outside its availability window")
	ErrAlreadyEnrolled       = errors.New("user already enrolled in this course")
	ErrAttemptAlreadyFinal   = errors.New("attempt already submitted")
	ErrManualGradeNotPending = errors.New("attempt has no pending manual grading")

	// 角色定义期错误，而非请求期错误
	ErrUnknownPermissionGroup = errors.New("unknown permission group")
)

// ValidationError 带出错字段的校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
