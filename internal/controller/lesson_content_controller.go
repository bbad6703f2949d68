package controller

import (
	"lms_backoffice/internal/model"
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonContentController struct {
	ContentService *service.LessonContentService
}

func NewLessonContentController(contentService *service.LessonContentService) *LessonContentController {
	return &LessonContentController{ContentService: contentService}
}

// CreateContent godoc
// @Summary 创建课件
// @Description 课件独立于模块存在，可被多个课程复用
// @Tags 课件管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.LessonContentRequest true "课件信息"
// @Success 201 {object} util.Response{data=model.LessonContent}
// @Router /api/contents [post]
func (c *LessonContentController) CreateContent(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.LessonContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	content, err := c.ContentService.CreateContent(util.GetAuthContext(ctx), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, content)
}

// UpdateContent godoc
// @Summary 更新课件
// @Tags 课件管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课件 ID"
// @Param   body body service.LessonContentRequest true "课件信息"
// @Success 200 {object} util.Response{data=model.LessonContent}
// @Router /api/contents/{id} [put]
func (c *LessonContentController) UpdateContent(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.LessonContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	content, err := c.ContentService.UpdateContent(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, content)
}

// DeleteContent godoc
// @Summary 删除课件
// @Description 仍被 lesson 模块引用的课件不可删除
// @Tags 课件管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课件 ID"
// @Success 200 {object} util.Response
// @Router /api/contents/{id} [delete]
func (c *LessonContentController) DeleteContent(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.ContentService.DeleteContent(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetContent godoc
// @Summary 课件详情
// @Tags 课件管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课件 ID"
// @Success 200 {object} util.Response{data=model.LessonContent}
// @Router /api/contents/{id} [get]
func (c *LessonContentController) GetContent(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	content, err := c.ContentService.GetContent(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, content)
}

// ListContents godoc
// @Summary 课件列表
// @Tags 课件管理
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/contents [get]
func (c *LessonContentController) ListContents(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	page, limit := pagination(ctx)
	contents, total, err := c.ContentService.ListContents(util.GetAuthContext(ctx), page, limit)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: contents, Total: total, Page: page, Limit: limit})
}

// UploadAsset godoc
// @Summary 上传课件附件
// @Description 支持图片、视频、PDF 和文本，返回可访问的 URL
// @Tags 课件管理
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   file formData file true "附件"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /api/contents/upload [post]
func (c *LessonContentController) UploadAsset(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	url, mimeType, err := c.ContentService.UploadAsset(ctx.Request.Context(), util.GetAuthContext(ctx), fileHeader)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	// 按 MIME 给出建议的课件类型，前端直接回填
	contentType := model.LessonContentFile
	if util.IsVideo(mimeType) {
		contentType = model.LessonContentVideo
	}
	util.Success(ctx, gin.H{
		"url":         url,
		"mimeType":    mimeType,
		"contentType": contentType,
	})
}
