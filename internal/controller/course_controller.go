package controller

import (
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService   *service.CourseService
	OrderingService *service.OrderingService
}

func NewCourseController(courseService *service.CourseService, orderingService *service.OrderingService) *CourseController {
	return &CourseController{CourseService: courseService, OrderingService: orderingService}
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course}
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.CourseService.CreateCourse(util.GetAuthContext(ctx), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程 ID"
// @Param   body body service.CourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course}
// @Router /api/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.CourseService.UpdateCourse(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Tags 课程管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程 ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.CourseService.DeleteCourse(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetCourse godoc
// @Summary 课程详情
// @Description 返回课程及完整的小节/模块树，按排序号升序
// @Tags 课程管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程 ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	course, err := c.CourseService.GetCourse(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// ListCourses godoc
// @Summary 课程列表
// @Tags 课程管理
// @Produce  json
// @Security BearerAuth
// @Param   status query string false "状态过滤"
// @Param   categoryId query int false "分类过滤"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	page, limit := pagination(ctx)
	courses, total, err := c.CourseService.ListCourses(
		util.GetAuthContext(ctx),
		ctx.Query("status"),
		util.MustParseUint(ctx.Query("categoryId")),
		page, limit,
	)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: courses, Total: total, Page: page, Limit: limit})
}

// AttachSection godoc
// @Summary 新建小节
// @Description 未指定排序号时追加到末尾，指定号与兄弟冲突时返回 409
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程 ID"
// @Param   body body service.SectionRequest true "小节信息"
// @Success 201 {object} util.Response{data=model.Section}
// @Failure 409 {object} util.Response "排序号冲突"
// @Router /api/courses/{id}/sections [post]
func (c *CourseController) AttachSection(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.SectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	section, err := c.CourseService.AttachSection(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, section)
}

// UpdateSection godoc
// @Summary 更新小节
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "小节 ID"
// @Param   body body service.SectionRequest true "小节信息"
// @Success 200 {object} util.Response{data=model.Section}
// @Router /api/sections/{id} [put]
func (c *CourseController) UpdateSection(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.SectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	section, err := c.CourseService.UpdateSection(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, section)
}

// DetachSection godoc
// @Summary 删除小节
// @Description 小节下的模块转为游离模块，保留原排序号
// @Tags 课程管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "小节 ID"
// @Success 200 {object} util.Response
// @Router /api/sections/{id} [delete]
func (c *CourseController) DetachSection(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.CourseService.DetachSection(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Reorder godoc
// @Summary 重排子集合
// @Description 请求列表必须恰好是现有子集合的一个排列，重排后序号连续
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.ReorderRequest true "父级与新顺序"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "列表与现有子集合不一致"
// @Router /api/reorder [post]
func (c *CourseController) Reorder(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.ReorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.OrderingService.Reorder(util.GetAuthContext(ctx), req); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
