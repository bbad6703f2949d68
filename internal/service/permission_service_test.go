package service

import (
	"errors"
	"testing"

	"lms_backoffice/internal/util"
)

func TestExpandGroups(t *testing.T) {
	perms, err := ExpandGroups([]string{"course_access", "attempt_own"})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	for _, want := range []string{"course:read", "enrollment:create", "quiz_attempt:start", "practice_test_attempt:submit"} {
		if _, ok := perms[want]; !ok {
			t.Fatalf("expected %q in expanded set", want)
		}
	}
	if _, ok := perms["course:create"]; ok {
		t.Fatal("course:create must not leak into learner groups")
	}
}

func TestExpandGroupsUnknownGroup(t *testing.T) {
	_, err := ExpandGroups([]string{"course_access", "no_such_group"})
	if !errors.Is(err, util.ErrUnknownPermissionGroup) {
		t.Fatalf("unknown group should fail, got %v", err)
	}
}

func TestHasPermissionExactMatchOnly(t *testing.T) {
	perms := map[string]struct{}{"quiz_attempt:read:all": {}}
	if HasPermission(perms, "quiz_attempt:read") {
		t.Fatal(":all does not imply the plain permission; matching is exact")
	}
	if !HasPermission(perms, "quiz_attempt:read:all") {
		t.Fatal("exact string should match")
	}
}

func TestCatalogReturnsCopies(t *testing.T) {
	svc := &PermissionService{}
	catalog := svc.Catalog()
	if len(catalog) == 0 {
		t.Fatal("catalog should list groups")
	}
	entries, ok := catalog["role_management"]
	if !ok || len(entries) == 0 {
		t.Fatal("role_management group missing from catalog")
	}
	entries[0] = "tampered"

	again := svc.Catalog()
	if again["role_management"][0] == "tampered" {
		t.Fatal("catalog must not expose internal slices")
	}
}
