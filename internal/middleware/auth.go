package middleware

import (
	"strings"

	"lms_backoffice/internal/config"
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"
	"lms_backoffice/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 解析 JWT 并按 token 里的角色展开权限集合，
// 后续 handler 从 authContext 取调用者身份做授权判定
func AuthMiddleware(cfg *config.Config, permissions *service.PermissionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		perms, err := permissions.PermissionsForRole(c.Request.Context(), claims.RoleName)
		if err != nil {
			logger.Log.Error("resolve role permissions failed",
				zap.String("role", claims.RoleName), zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Set("authContext", util.BuildAuthContext(claims, perms))
		c.Next()
	}
}

// RequirePermission 路由级粗筛，服务层仍然各自做精确检查
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := util.GetAuthContext(c)
		if actor == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !actor.Can(permission) {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

type UserActivityRepo interface {
	UpdateLastSeen(userID uint) error
}

func ActivityMiddleware(repo UserActivityRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			// 异步更新，不阻塞主流程
			go repo.UpdateLastSeen(claims.UserID)
		}
		c.Next()
	}
}
