package services

import "testing"

func TestGrantsPermissionExactMatch(t *testing.T) {
	held := []string{"project.view", "task.create"}
	if !GrantsPermission(held, "project.view") {
		t.Fatal("expected exact match to grant")
	}
	if GrantsPermission(held, "project.edit") {
		t.Fatal("expected missing permission to deny")
	}
}

func TestGrantsPermissionWildcard(t *testing.T) {
	held := []string{"project.*"}
	if !GrantsPermission(held, "project.delete") {
		t.Fatal("expected wildcard to grant project.delete")
	}
	if GrantsPermission(held, "task.delete") {
		t.Fatal("expected wildcard scoped to project only")
	}
	if GrantsPermission(held, "projectile.launch") {
		t.Fatal("wildcard must not match on a shared name prefix")
	}
}

func TestGrantsPermissionEmptyInputs(t *testing.T) {
	if GrantsPermission(nil, "project.view") {
		t.Fatal("empty set must deny")
	}
	if GrantsPermission([]string{"project.view"}, "") {
		t.Fatal("empty required permission must deny")
	}
}
