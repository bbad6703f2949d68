package controller

import (
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

type StartAttemptRequest struct {
	ModuleID uint `json:"moduleId" binding:"required"`
}

// StartAttempt godoc
// @Summary 开始作答
// @Description 检查发布状态、可用窗口、报名资格和次数上限
// @Tags 作答
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body StartAttemptRequest true "quiz 模块"
// @Success 201 {object} util.Response{data=model.QuizAttempt}
// @Failure 400 {object} util.Response "窗口已关闭或次数用尽"
// @Router /api/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req StartAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.AttemptService.StartQuizAttempt(util.GetAuthContext(ctx), req.ModuleID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

type SubmitAttemptRequest struct {
	Answers []service.AnswerSubmission `json:"answers"`
}

// SubmitAttempt godoc
// @Summary 提交作答
// @Description 自动判分；简答/填空未精确命中的转人工
// @Tags 作答
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "attempt ID"
// @Param   body body SubmitAttemptRequest true "作答内容"
// @Success 200 {object} util.Response{data=model.QuizAttempt}
// @Failure 400 {object} util.Response "attempt 不在进行中"
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.AttemptService.SubmitQuizAttempt(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req.Answers)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

type ManualGradeRequest struct {
	Points int `json:"points"`
}

// ManualGrade godoc
// @Summary 人工给分
// @Description 只能对待人工判分的题目操作，最后一题给完分整卷定稿
// @Tags 作答
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "attempt ID"
// @Param   answerId path int true "作答记录 ID"
// @Param   body body ManualGradeRequest true "分数"
// @Success 200 {object} util.Response{data=model.QuizAttempt}
// @Router /api/attempts/{id}/answers/{answerId}/grade [put]
func (c *AttemptController) ManualGrade(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req ManualGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.AttemptService.ManualGradeAnswer(
		util.GetAuthContext(ctx),
		util.MustParseUint(ctx.Param("id")),
		util.MustParseUint(ctx.Param("answerId")),
		req.Points,
	)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// GetAttempt godoc
// @Summary 作答详情
// @Tags 作答
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "attempt ID"
// @Success 200 {object} util.Response{data=model.QuizAttempt}
// @Router /api/attempts/{id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	attempt, err := c.AttemptService.GetQuizAttempt(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// ListAttempts godoc
// @Summary 作答列表
// @Tags 作答
// @Produce  json
// @Security BearerAuth
// @Param   moduleId query int true "quiz 模块 ID"
// @Param   userId query int false "用户 ID（默认本人）"
// @Success 200 {object} util.Response{data=[]model.QuizAttempt}
// @Router /api/attempts [get]
func (c *AttemptController) ListAttempts(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	actor := util.GetAuthContext(ctx)
	userID := actor.UserID
	if q := ctx.Query("userId"); q != "" {
		userID = util.MustParseUint(q)
	}
	attempts, err := c.AttemptService.ListQuizAttempts(actor, userID, util.MustParseUint(ctx.Query("moduleId")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// DeleteAttempt godoc
// @Summary 删除作答
// @Tags 作答
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "attempt ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id} [delete]
func (c *AttemptController) DeleteAttempt(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.AttemptService.DeleteQuizAttempt(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
