package controller

import (
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// CreateUser godoc
// @Summary 创建用户
// @Description 管理侧建号，可指定任意角色
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CreateUserRequest true "用户信息"
// @Success 201 {object} util.Response{data=model.User}
// @Failure 403 {object} util.Response "无权限"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.CreateUser(util.GetAuthContext(ctx), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, user)
}

// UpdateUser godoc
// @Summary 更新用户
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "用户 ID"
// @Param   body body service.UpdateUserRequest true "更新字段"
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.UpdateUser(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ChangePassword godoc
// @Summary 修改密码
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "用户 ID"
// @Param   body body ChangePasswordRequest true "新旧密码"
// @Success 200 {object} util.Response
// @Router /api/users/{id}/password [put]
func (c *UserController) ChangePassword(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	err := c.UserService.ChangePassword(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req.OldPassword, req.NewPassword)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// DeleteUser godoc
// @Summary 删除用户
// @Tags 用户管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "用户 ID"
// @Success 200 {object} util.Response
// @Router /api/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.UserService.DeleteUser(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetUser godoc
// @Summary 查询用户
// @Tags 用户管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "用户 ID"
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	user, err := c.UserService.GetUser(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// ListUsers godoc
// @Summary 用户列表
// @Tags 用户管理
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	page, limit := pagination(ctx)
	users, total, err := c.UserService.ListUsers(util.GetAuthContext(ctx), page, limit)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: users, Total: total, Page: page, Limit: limit})
}
