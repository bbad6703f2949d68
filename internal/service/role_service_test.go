package service

import (
	"context"
	"errors"
	"testing"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/testutil"
	"lms_backoffice/internal/util"

	"gorm.io/gorm"
)

func newRoleService(db *gorm.DB) *RoleService {
	roleRepo := repository.NewRoleRepository(db)
	return NewRoleService(roleRepo, NewPermissionService(roleRepo, nil), db)
}

func roleAdmin() *model.AuthContext {
	return testutil.Actor(1, "role:create", "role:read", "role:update", "role:updatePermission", "role:delete")
}

func TestCreateRoleValidatesGroupsUpfront(t *testing.T) {
	db := testutil.DB(t)
	svc := newRoleService(db)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, roleAdmin(), RoleRequest{Name: "助教", Groups: []string{"grading_wizards"}})
	if !errors.Is(err, util.ErrUnknownPermissionGroup) {
		t.Fatalf("unknown group must be rejected at save time, got %v", err)
	}

	var count int64
	db.Model(&model.Role{}).Count(&count)
	if count != 0 {
		t.Fatal("invalid role must not be persisted")
	}

	role, err := svc.CreateRole(ctx, roleAdmin(), RoleRequest{Name: "助教", Groups: []string{"attempt_management"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(role.Groups) != 1 || role.Groups[0] != "attempt_management" {
		t.Fatalf("groups not stored: %+v", role.Groups)
	}
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	db := testutil.DB(t)
	svc := newRoleService(db)
	ctx := context.Background()

	if _, err := svc.CreateRole(ctx, roleAdmin(), RoleRequest{Name: "助教"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateRole(ctx, roleAdmin(), RoleRequest{Name: "助教"}); !util.IsValidationError(err) {
		t.Fatalf("duplicate name must fail, got %v", err)
	}
}

func TestUpdateRoleBuiltinRenameBlocked(t *testing.T) {
	db := testutil.DB(t)
	svc := newRoleService(db)
	ctx := context.Background()

	builtin := &model.Role{Name: "student", Groups: model.StringList{"course_access"}, IsBuiltin: true}
	mustCreate(t, db, builtin)

	if _, err := svc.UpdateRole(ctx, roleAdmin(), builtin.ID, RoleRequest{Name: "pupil"}); !util.IsValidationError(err) {
		t.Fatalf("renaming a builtin role must fail, got %v", err)
	}

	// 同名之下调整权限组没问题
	updated, err := svc.UpdateRole(ctx, roleAdmin(), builtin.ID, RoleRequest{Name: "student", Groups: []string{"course_access", "attempt_own"}})
	if err != nil {
		t.Fatalf("update groups: %v", err)
	}
	if len(updated.Groups) != 2 {
		t.Fatalf("groups not updated: %+v", updated.Groups)
	}
}

func TestDeleteRoleGuards(t *testing.T) {
	db := testutil.DB(t)
	svc := newRoleService(db)
	ctx := context.Background()

	builtin := &model.Role{Name: "admin", IsBuiltin: true}
	mustCreate(t, db, builtin)
	if err := svc.DeleteRole(ctx, roleAdmin(), builtin.ID); !util.IsValidationError(err) {
		t.Fatalf("builtin role delete must fail, got %v", err)
	}

	inUse := &model.Role{Name: "临时角色"}
	mustCreate(t, db, inUse)
	mustCreate(t, db, &model.User{Name: "u", Email: "u@example.com", Password: "x", RoleID: inUse.ID})
	if err := svc.DeleteRole(ctx, roleAdmin(), inUse.ID); !util.IsValidationError(err) {
		t.Fatalf("role with users must not be deletable, got %v", err)
	}

	unused := &model.Role{Name: "空角色"}
	mustCreate(t, db, unused)
	if err := svc.DeleteRole(ctx, roleAdmin(), unused.ID); err != nil {
		t.Fatalf("unused custom role should delete: %v", err)
	}
}

func TestUserCreateInitializesLastSeen(t *testing.T) {
	db := testutil.DB(t)

	role := &model.Role{Name: "学生"}
	mustCreate(t, db, role)
	user := &model.User{Name: "新用户", Email: "new@example.com", Password: "x", RoleID: role.ID}
	mustCreate(t, db, user)

	var stored model.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.LastSeen.IsZero() {
		t.Fatal("LastSeen should be set on create")
	}
}
