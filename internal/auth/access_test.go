package auth

import "testing"

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(DefaultPermissions())
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	return e
}

func TestCanPerformUploadMatchesTable(t *testing.T) {
	e := newTestEvaluator(t)
	perms := DefaultPermissions()

	for _, role := range Roles {
		if got, want := e.CanPerform(role, ActionUpload), perms[role].CanUpload; got != want {
			t.Fatalf("CanPerform(%s, upload) = %v, want %v", role, got, want)
		}
	}
}

func TestCanPerformOnScopes(t *testing.T) {
	e := newTestEvaluator(t)

	cases := []struct {
		role   Role
		action Action
		scope  Scope
		want   bool
	}{
		{RoleTribe1, ActionView, ScopeTribe2, false},
		{RoleTribe1, ActionView, ScopePublic, true},
		{RoleTribe1, ActionView, ScopeTribe1, true},
		{RoleAdmin, ActionView, ScopeTribe3, true},
		{RoleAdmin, ActionDelete, ScopeTribe2, true},
		{RoleTribe2, ActionEdit, ScopeTribe2, true},
		{RoleTribe2, ActionEdit, ScopePublic, false},
		{RoleGuest, ActionView, ScopePublic, true},
		{RoleGuest, ActionView, ScopeTribe1, false},
		{RoleGuest, ActionEdit, ScopePublic, false},
		{RoleGuest, ActionDelete, ScopePublic, false},
	}
	for _, tc := range cases {
		if got := e.CanPerformOn(tc.role, tc.action, tc.scope); got != tc.want {
			t.Fatalf("CanPerformOn(%s, %s, %s) = %v, want %v", tc.role, tc.action, tc.scope, got, tc.want)
		}
	}
}

func TestCanPerformWithoutScope(t *testing.T) {
	e := newTestEvaluator(t)

	// Scopeless view/edit/delete means "on at least one scope".
	if !e.CanPerform(RoleGuest, ActionView) {
		t.Fatalf("guest should be able to view something")
	}
	if e.CanPerform(RoleGuest, ActionEdit) {
		t.Fatalf("guest must not edit anything")
	}
	if e.CanPerform(RoleGuest, ActionDelete) {
		t.Fatalf("guest must not delete anything")
	}
	if !e.CanPerform(RoleAdmin, ActionManageUsers) {
		t.Fatalf("admin should manage users")
	}
	if e.CanPerform(RoleTribe3, ActionManageUsers) {
		t.Fatalf("tribe3 must not manage users")
	}
}

func TestUnknownRoleAndAction(t *testing.T) {
	e := newTestEvaluator(t)

	if e.CanPerform("superuser", ActionUpload) {
		t.Fatalf("unknown role must evaluate to false")
	}
	if e.CanPerformOn("superuser", ActionView, ScopePublic) {
		t.Fatalf("unknown role with scope must evaluate to false")
	}
	if e.CanPerform(RoleAdmin, "teleport") {
		t.Fatalf("unknown action must evaluate to false")
	}
}

func TestEvaluatorIsDeterministic(t *testing.T) {
	e := newTestEvaluator(t)
	for i := 0; i < 3; i++ {
		if !e.CanPerformOn(RoleTribe1, ActionView, ScopePublic) {
			t.Fatalf("call %d diverged", i)
		}
		if e.CanPerformOn(RoleTribe1, ActionView, ScopeTribe2) {
			t.Fatalf("call %d diverged", i)
		}
	}
}
