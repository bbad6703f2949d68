package controller

import (
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	CategoryService *service.CategoryService
}

func NewCategoryController(categoryService *service.CategoryService) *CategoryController {
	return &CategoryController{CategoryService: categoryService}
}

// CreateCategory godoc
// @Summary 创建分类
// @Tags 分类管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CategoryRequest true "分类信息"
// @Success 201 {object} util.Response{data=model.Category}
// @Router /api/categories [post]
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.CategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	category, err := c.CategoryService.CreateCategory(util.GetAuthContext(ctx), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, category)
}

// UpdateCategory godoc
// @Summary 更新分类
// @Tags 分类管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "分类 ID"
// @Param   body body service.CategoryRequest true "分类信息"
// @Success 200 {object} util.Response{data=model.Category}
// @Router /api/categories/{id} [put]
func (c *CategoryController) UpdateCategory(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.CategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	category, err := c.CategoryService.UpdateCategory(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, category)
}

// DeleteCategory godoc
// @Summary 删除分类
// @Tags 分类管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "分类 ID"
// @Success 200 {object} util.Response
// @Router /api/categories/{id} [delete]
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.CategoryService.DeleteCategory(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListCategories godoc
// @Summary 分类列表
// @Tags 分类管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Category}
// @Router /api/categories [get]
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	categories, err := c.CategoryService.ListCategories(util.GetAuthContext(ctx))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}
