package controller

import (
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

type EnrollRequest struct {
	CourseID uint  `json:"courseId" binding:"required"`
	UserID   *uint `json:"userId"`
}

// Enroll godoc
// @Summary 报名课程
// @Description 学生给自己报名；带 userId 的代报需要管理权限
// @Tags 报名管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body EnrollRequest true "报名信息"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 409 {object} util.Response "已报名"
// @Router /api/enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	actor := util.GetAuthContext(ctx)
	userID := actor.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	enrollment, err := c.EnrollmentService.Enroll(actor, userID, req.CourseID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// Unenroll godoc
// @Summary 退课
// @Tags 报名管理
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程 ID"
// @Param   userId query int false "代退的用户 ID"
// @Success 200 {object} util.Response
// @Router /api/enrollments/{courseId} [delete]
func (c *EnrollmentController) Unenroll(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	actor := util.GetAuthContext(ctx)
	userID := actor.UserID
	if q := ctx.Query("userId"); q != "" {
		userID = util.MustParseUint(q)
	}
	if err := c.EnrollmentService.Unenroll(actor, userID, util.MustParseUint(ctx.Param("courseId"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// TouchAccess godoc
// @Summary 记录课程访问
// @Description 学习端打开课程时调用，刷新最近访问时间
// @Tags 报名管理
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程 ID"
// @Success 200 {object} util.Response
// @Router /api/enrollments/{courseId}/touch [post]
func (c *EnrollmentController) TouchAccess(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.EnrollmentService.TouchAccess(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("courseId"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListMyEnrollments godoc
// @Summary 我的报名列表
// @Tags 报名管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Router /api/enrollments [get]
func (c *EnrollmentController) ListMyEnrollments(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	actor := util.GetAuthContext(ctx)
	userID := actor.UserID
	if q := ctx.Query("userId"); q != "" {
		userID = util.MustParseUint(q)
	}
	enrollments, err := c.EnrollmentService.ListByUser(actor, userID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// ListByCourse godoc
// @Summary 课程报名名单
// @Tags 报名管理
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程 ID"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/courses/{courseId}/enrollments [get]
func (c *EnrollmentController) ListByCourse(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	page, limit := pagination(ctx)
	enrollments, total, err := c.EnrollmentService.ListByCourse(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("courseId")), page, limit)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: enrollments, Total: total, Page: page, Limit: limit})
}
