package controller

import (
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"

	"github.com/gin-gonic/gin"
)

type RoleController struct {
	RoleService *service.RoleService
	Permissions *service.PermissionService
}

func NewRoleController(roleService *service.RoleService, permissions *service.PermissionService) *RoleController {
	return &RoleController{RoleService: roleService, Permissions: permissions}
}

// CreateRole godoc
// @Summary 创建角色
// @Description 角色持有权限组列表，保存时校验组名
// @Tags 角色管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.RoleRequest true "角色定义"
// @Success 201 {object} util.Response{data=model.Role}
// @Failure 400 {object} util.Response "未知权限组"
// @Router /api/roles [post]
func (c *RoleController) CreateRole(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.RoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	role, err := c.RoleService.CreateRole(ctx.Request.Context(), util.GetAuthContext(ctx), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, role)
}

// UpdateRole godoc
// @Summary 更新角色
// @Tags 角色管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "角色 ID"
// @Param   body body service.RoleRequest true "角色定义"
// @Success 200 {object} util.Response{data=model.Role}
// @Router /api/roles/{id} [put]
func (c *RoleController) UpdateRole(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	var req service.RoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	role, err := c.RoleService.UpdateRole(ctx.Request.Context(), util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, role)
}

// DeleteRole godoc
// @Summary 删除角色
// @Tags 角色管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "角色 ID"
// @Success 200 {object} util.Response
// @Router /api/roles/{id} [delete]
func (c *RoleController) DeleteRole(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	if err := c.RoleService.DeleteRole(ctx.Request.Context(), util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id"))); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetRole godoc
// @Summary 查询角色
// @Tags 角色管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "角色 ID"
// @Success 200 {object} util.Response{data=model.Role}
// @Router /api/roles/{id} [get]
func (c *RoleController) GetRole(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	role, err := c.RoleService.GetRole(util.GetAuthContext(ctx), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, role)
}

// ListRoles godoc
// @Summary 角色列表
// @Tags 角色管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Role}
// @Router /api/roles [get]
func (c *RoleController) ListRoles(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	roles, err := c.RoleService.ListRoles(util.GetAuthContext(ctx))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, roles)
}

// PermissionCatalog godoc
// @Summary 权限组目录
// @Description 角色编辑界面用，返回全部权限组及展开后的权限串
// @Tags 角色管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/permissions [get]
func (c *RoleController) PermissionCatalog(ctx *gin.Context) {
	if !requireActor(ctx) {
		return
	}
	actor := util.GetAuthContext(ctx)
	if !actor.Can("role:read") {
		util.Forbidden(ctx)
		return
	}
	util.Success(ctx, c.Permissions.Catalog())
}
