package controller

import (
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

type ModuleController struct {
	ModuleService *service.ModuleService
}

func NewModuleController(moduleService *service.ModuleService) *ModuleController {
	return &ModuleController{ModuleService: moduleService}
}

// CreateLessonModule godoc
// @Summary 创建 lesson 模块
// @Description 引用共享课件，同一课程内不允许重复引用同一课件
// @Tags 模块管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.LessonModuleRequest true "模块信息"
// @Success 201 {object} util.Response{data=model.CourseModule}
// @Failure 409 {object} util.Response "课件已被本课程其他模块引用"
// @Router /api/modules/lesson [post]
func (c *ModuleController) CreateLessonModule(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.LessonModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	module, err := c.ModuleService.SaveLessonModule(util.GetAuthContext(ctx), 0, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, module)
}

// UpdateLessonModule godoc
// @Summary 更新 lesson 模块
// @Tags 模块管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "模块 ID"
// @Param   body body service.LessonModuleRequest true "模块信息"
// @Success 200 {object} util.Response{data=model.CourseModule}
// @Router /api/modules/lesson/{id} [put]
func (c *ModuleController) UpdateLessonModule(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.LessonModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	module, err := c.ModuleService.SaveLessonModule(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

// CreateQuizModule godoc
// @Summary 创建 quiz 模块
// @Tags 模块管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.QuizModuleRequest true "模块信息"
// @Success 201 {object} util.Response{data=model.CourseModule}
// @Router /api/modules/quiz [post]
func (c *ModuleController) CreateQuizModule(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.QuizModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	module, err := c.ModuleService.SaveQuizModule(util.GetAuthContext(ctx), 0, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, module)
}

// UpdateQuizModule godoc
// @Summary 更新 quiz 模块
// @Tags 模块管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "模块 ID"
// @Param   body body service.QuizModuleRequest true "模块信息"
// @Success 200 {object} util.Response{data=model.CourseModule}
// @Router /api/modules/quiz/{id} [put]
func (c *ModuleController) UpdateQuizModule(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.QuizModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	module, err := c.ModuleService.SaveQuizModule(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

// CreateTestModule godoc
// @Summary 创建 test 模块
// @Description 引用已发布的 quiz 模块作为小节，不允许重复和嵌套 test
// @Tags 模块管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.TestModuleRequest true "模块信息"
// @Success 201 {object} util.Response{data=model.CourseModule}
// @Router /api/modules/test [post]
func (c *ModuleController) CreateTestModule(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.TestModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	module, err := c.ModuleService.SaveTestModule(util.GetAuthContext(ctx), 0, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, module)
}

// UpdateTestModule godoc
// @Summary 更新 test 模块
// @Tags 模块管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "模块 ID"
// @Param   body body service.TestModuleRequest true "模块信息"
// @Success 200 {object} util.Response{data=model.CourseModule}
// @Router /api/modules/test/{id} [put]
func (c *ModuleController) UpdateTestModule(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.TestModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	module, err := c.ModuleService.SaveTestModule(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

type AttachQuizRequest struct {
	QuizModuleID uint `json:"quizModuleId" binding:"required"`
}

// AttachQuizToTest godoc
// @Summary 向 test 模块追加 quiz 小节
// @Tags 模块管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "test 模块 ID"
// @Param   body body AttachQuizRequest true "quiz 模块"
// @Success 201 {object} util.Response{data=model.TestQuizEntry}
// @Failure 409 {object} util.Response "quiz 已在测试中"
// @Router /api/modules/test/{id}/quizzes [post]
func (c *ModuleController) AttachQuizToTest(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req AttachQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	entry, err := c.ModuleService.AttachQuizToTest(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req.QuizModuleID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, entry)
}

type AttachModuleRequest struct {
	SectionID *uint `json:"sectionId"`
}

// AttachModule godoc
// @Summary 挂载/摘下模块
// @Description sectionId 为空表示把模块从小节摘下转为游离模块
// @Tags 模块管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "模块 ID"
// @Param   body body AttachModuleRequest true "目标小节"
// @Success 200 {object} util.Response{data=model.CourseModule}
// @Router /api/modules/{id}/attach [put]
func (c *ModuleController) AttachModule(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req AttachModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	module, err := c.ModuleService.AttachModule(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req.SectionID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

// GetModule godoc
// @Summary 模块详情
// @Description 返回模块及其内容/题目/quiz 小节，按排序号升序
// @Tags 模块管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "模块 ID"
// @Success 200 {object} util.Response{data=model.CourseModule}
// @Router /api/modules/{id} [get]
func (c *ModuleController) GetModule(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	module, err := c.ModuleService.GetModule(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

// ListStandaloneModules godoc
// @Summary 游离模块列表
// @Description 未挂在任何小节下的模块
// @Tags 模块管理
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/modules/standalone [get]
func (c *ModuleController) ListStandaloneModules(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	page, limit := pagination(ctx)
	modules, total, err := c.ModuleService.ListStandaloneModules(util.GetAuthContext(ctx), page, limit)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: modules, Total: total, Page: page, Limit: limit})
}

// DeleteModule godoc
// @Summary 删除模块
// @Tags 模块管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "模块 ID"
// @Success 200 {object} util.Response
// @Router /api/modules/{id} [delete]
func (c *ModuleController) DeleteModule(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.ModuleService.DeleteModule(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
