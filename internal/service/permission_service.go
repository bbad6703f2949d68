package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"
	"lms_backoffice/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// permissionGroups 静态权限组表：组名 → 具体权限串。
// 权限串形如 resource:action 或 resource:action:scope，
// :all 表示跨所有者读写，不带 scope 表示只操作自己的数据
var permissionGroups = map[string][]string{
	"role_management": {
		"role:create",
		"role:read",
		"role:update",
		"role:updatePermission",
		"role:delete",
	},
	"user_management": {
		"user:create",
		"user:read:all",
		"user:update",
		"user:delete",
	},
	"course_management": {
		"course:create",
		"course:read:all",
		"course:update",
		"course:delete",
		"section:create",
		"section:update",
		"section:delete",
		"section:reorder",
		"module:create",
		"module:read:all",
		"module:update",
		"module:delete",
		"module:reorder",
	},
	"content_management": {
		"lesson_content:create",
		"lesson_content:read:all",
		"lesson_content:update",
		"lesson_content:delete",
		"category:create",
		"category:update",
		"category:delete",
	},
	"question_management": {
		"question:create",
		"question:read:all",
		"question:update",
		"question:delete",
	},
	"enrollment_management": {
		"admin:enrollment:create",
		"admin:enrollment:delete",
		"enrollment:read:all",
	},
	"attempt_management": {
		"quiz_attempt:read:all",
		"quiz_attempt:grade",
		"quiz_attempt:delete",
		"practice_test_attempt:read:all",
		"practice_test_attempt:grade",
		"practice_test_attempt:delete",
	},
	"course_access": {
		"course:read",
		"category:read",
		"enrollment:create",
		"enrollment:read",
		"enrollment:delete",
	},
	"attempt_own": {
		"quiz_attempt:start",
		"quiz_attempt:submit",
		"quiz_attempt:read",
		"practice_test_attempt:start",
		"practice_test_attempt:submit",
		"practice_test_attempt:read",
	},
}

const rolePermCacheTTL = 10 * time.Minute

type PermissionService struct {
	RoleRepo *repository.RoleRepository
	Redis    *redis.Client
}

func NewPermissionService(roleRepo *repository.RoleRepository, rdb *redis.Client) *PermissionService {
	return &PermissionService{RoleRepo: roleRepo, Redis: rdb}
}

// ExpandGroups 将权限组名展开为具体权限串集合。
// 未知组名属于角色定义错误，在角色保存时报出，而不是在请求期
func ExpandGroups(groups []string) (map[string]struct{}, error) {
	perms := make(map[string]struct{})
	for _, name := range groups {
		entries, ok := permissionGroups[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", util.ErrUnknownPermissionGroup, name)
		}
		for _, p := range entries {
			perms[p] = struct{}{}
		}
	}
	return perms, nil
}

// HasPermission 精确匹配，无通配展开；组名本身不是权限串
func HasPermission(actorPermissions map[string]struct{}, required string) bool {
	_, ok := actorPermissions[required]
	return ok
}

// Catalog 返回完整权限组目录，供角色编辑界面使用
func (s *PermissionService) Catalog() map[string][]string {
	out := make(map[string][]string, len(permissionGroups))
	for name, perms := range permissionGroups {
		cp := make([]string, len(perms))
		copy(cp, perms)
		sort.Strings(cp)
		out[name] = cp
	}
	return out
}

func rolePermCacheKey(roleName string) string {
	return "perm:role:" + roleName
}

// PermissionsForRole 查询某角色展开后的权限集合，带 Redis 缓存；
// 角色更新时由 InvalidateRole 主动失效
func (s *PermissionService) PermissionsForRole(ctx context.Context, roleName string) (map[string]struct{}, error) {
	if s.Redis != nil {
		cached, err := s.Redis.Get(ctx, rolePermCacheKey(roleName)).Result()
		if err == nil {
			var list []string
			if err := json.Unmarshal([]byte(cached), &list); err == nil {
				perms := make(map[string]struct{}, len(list))
				for _, p := range list {
					perms[p] = struct{}{}
				}
				return perms, nil
			}
		}
	}

	role, err := s.RoleRepo.FindByName(roleName)
	if err != nil {
		return nil, err
	}

	perms, err := ExpandGroups(role.Groups)
	if err != nil {
		// 落库的角色引用了不存在的组，属于配置损坏
		logger.Log.Error("role references unknown permission group",
			zap.String("role", roleName), zap.Error(err))
		return nil, err
	}

	if s.Redis != nil {
		list := make([]string, 0, len(perms))
		for p := range perms {
			list = append(list, p)
		}
		sort.Strings(list)
		if b, err := json.Marshal(list); err == nil {
			s.Redis.Set(ctx, rolePermCacheKey(roleName), string(b), rolePermCacheTTL)
		}
	}

	return perms, nil
}

// InvalidateRole 角色权限变更后删除缓存
func (s *PermissionService) InvalidateRole(ctx context.Context, roleName string) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(ctx, rolePermCacheKey(roleName))
}
