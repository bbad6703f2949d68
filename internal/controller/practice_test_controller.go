package controller

import (
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

type PracticeTestController struct {
	TestService *service.PracticeTestService
}

func NewPracticeTestController(testService *service.PracticeTestService) *PracticeTestController {
	return &PracticeTestController{TestService: testService}
}

type StartTestAttemptRequest struct {
	TestModuleID uint `json:"testModuleId" binding:"required"`
}

// StartTestAttempt godoc
// @Summary 开始练习测试
// @Tags 练习测试
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body StartTestAttemptRequest true "test 模块"
// @Success 201 {object} util.Response{data=model.PracticeTestAttempt}
// @Router /api/test-attempts [post]
func (c *PracticeTestController) StartTestAttempt(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req StartTestAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.TestService.StartTestAttempt(util.GetAuthContext(ctx), req.TestModuleID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

type SubmitTestAttemptRequest struct {
	Answers []service.TestAnswerSubmission `json:"answers"`
}

// SubmitTestAttempt godoc
// @Summary 提交练习测试
// @Description 按 quiz 小节分别判分；恰好两个小节时附加 SAT 换算
// @Tags 练习测试
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "attempt ID"
// @Param   body body SubmitTestAttemptRequest true "作答内容"
// @Success 200 {object} util.Response{data=model.PracticeTestAttempt}
// @Router /api/test-attempts/{id}/submit [post]
func (c *PracticeTestController) SubmitTestAttempt(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req SubmitTestAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.TestService.SubmitTestAttempt(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req.Answers)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// ManualGradeTestAnswer godoc
// @Summary 练习测试人工给分
// @Tags 练习测试
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "attempt ID"
// @Param   answerId path int true "作答记录 ID"
// @Param   body body ManualGradeRequest true "分数"
// @Success 200 {object} util.Response{data=model.PracticeTestAttempt}
// @Router /api/test-attempts/{id}/answers/{answerId}/grade [put]
func (c *PracticeTestController) ManualGradeTestAnswer(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req ManualGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.TestService.ManualGradeTestAnswer(
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

// GetTestAttempt godoc
// @Summary 练习测试详情
// @Tags 练习测试
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "attempt ID"
// @Success 200 {object} util.Response{data=model.PracticeTestAttempt}
// @Router /api/test-attempts/{id} [get]
func (c *PracticeTestController) GetTestAttempt(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	attempt, err := c.TestService.GetTestAttempt(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// ListTestAttempts godoc
// @Summary 练习测试作答列表
// @Tags 练习测试
// @Produce  json
// @Security BearerAuth
// @Param   testModuleId query int true "test 模块 ID"
// @Param   userId query int false "用户 ID（默认本人）"
// @Success 200 {object} util.Response{data=[]model.PracticeTestAttempt}
// @Router /api/test-attempts [get]
func (c *PracticeTestController) ListTestAttempts(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	actor := util.GetAuthContext(ctx)
	userID := actor.UserID
	if q := ctx.Query("userId"); q != "" {
		userID = util.MustParseUint(q)
	}
	attempts, err := c.TestService.ListTestAttempts(actor, userID, util.MustParseUint(ctx.Query("testModuleId")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// DeleteTestAttempt godoc
// @Summary 删除练习测试作答
// @Tags 练习测试
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "attempt ID"
// @Success 200 {object} util.Response
// @Router /api/test-attempts/{id} [delete]
func (c *PracticeTestController) DeleteTestAttempt(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.TestService.DeleteTestAttempt(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
