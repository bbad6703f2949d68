package controller

import (
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// CreateQuestion godoc
// @Summary 创建题目
// @Description 四种题型各自要求完整的答案键
// @Tags 题库管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.QuestionRequest true "题目信息"
// @Success 201 {object} util.Response{data=model.Question}
// @Router /api/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	question, err := c.QuestionService.CreateQuestion(util.GetAuthContext(ctx), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Description 题型切换时旧题型的答案表示会被清空
// @Tags 题库管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目 ID"
// @Param   body body service.QuestionRequest true "题目信息"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	question, err := c.QuestionService.UpdateQuestion(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 题库管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目 ID"
// @Success 200 {object} util.Response
// @Router /api/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.QuestionService.DeleteQuestion(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetQuestion godoc
// @Summary 题目详情
// @Tags 题库管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目 ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/questions/{id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	question, err := c.QuestionService.GetQuestion(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// ListQuestions godoc
// @Summary 题目列表
// @Tags 题库管理
// @Produce  json
// @Security BearerAuth
// @Param   questionType query string false "题型过滤"
// @Param   status query string false "状态过滤"
// @Param   categoryId query int false "分类过滤"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	page, limit := pagination(ctx)
	questions, total, err := c.QuestionService.ListQuestions(
		util.GetAuthContext(ctx),
		ctx.Query("questionType"),
		ctx.Query("status"),
		util.MustParseUint(ctx.Query("categoryId")),
		page, limit,
	)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: questions, Total: total, Page: page, Limit: limit})
}
