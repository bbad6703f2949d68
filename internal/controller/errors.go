package controller

import (
	"errors"
	"net/http"

	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

// handleServiceError 服务层哨兵错误到 HTTP 状态码的统一映射
func handleServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrNotFound), errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrEmailRegistered):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrOrderCollision),
		errors.Is(err, util.ErrOrderMismatch),
		errors.Is(err, util.ErrDuplicateContent),
		errors.Is(err, util.ErrDuplicateQuizInTest),
		errors.Is(err, util.ErrAlreadyEnrolled),
		errors.Is(err, util.ErrAttemptAlreadyFinal):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrQuizNotPublished),
		errors.Is(err, util.ErrAttemptLimitReached),
		errors.Is(err, util.ErrAttemptWindowClosed),
		errors.Is(err, util.ErrManualGradeNotPending),
		errors.Is(err, util.ErrUnknownPermissionGroup):
		util.BadRequest(ctx, err.Error())
	case util.IsValidationError(err):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// requireActor 没有授权上下文说明没走 Auth 中间件或 token 失效
func requireActor(ctx *gin.Context) (ok bool) {
	if util.GetAuthContext(ctx) == nil {
		util.Unauthorized(ctx)
		return false
	}
	return true
}

func pagination(ctx *gin.Context) (page, limit int) {
	page = int(util.MustParseUint(ctx.DefaultQuery("page", "1")))
	limit = int(util.MustParseUint(ctx.DefaultQuery("limit", "20")))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
