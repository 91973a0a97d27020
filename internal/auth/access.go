package auth

import "errors"

// Evaluator answers capability questions against a static permission table.
// All methods are pure and deterministic: no I/O, no clock, no state.
type Evaluator struct {
	perms Permissions
}

// NewEvaluator builds an evaluator over the given permission table.
func NewEvaluator(perms Permissions) (*Evaluator, error) {
	if len(perms) == 0 {
		return nil, errors.New("auth: permissions table is required")
	}
	return &Evaluator{perms: perms}, nil
}

// CanPerform reports whether role may perform action irrespective of scope.
// For view/edit/delete this means "on at least one scope". Unknown roles
// and unknown actions evaluate to false.
func (e *Evaluator) CanPerform(role Role, action Action) bool {
	set, ok := e.perms[role]
	if !ok {
		return false
	}
	switch action {
	case ActionUpload:
		return set.CanUpload
	case ActionManageUsers:
		return set.CanManageUsers
	case ActionView:
		return len(set.CanView) > 0
	case ActionEdit:
		return len(set.CanEdit) > 0
	case ActionDelete:
		return len(set.CanDelete) > 0
	}
	return false
}

// CanPerformOn reports whether role may perform action on the given scope.
// Upload and manageUsers ignore the scope. A ScopeAll entry in the role's
// list grants the verb on every scope.
func (e *Evaluator) CanPerformOn(role Role, action Action, scope Scope) bool {
	set, ok := e.perms[role]
	if !ok {
		return false
	}
	switch action {
	case ActionUpload:
		return set.CanUpload
	case ActionManageUsers:
		return set.CanManageUsers
	case ActionView:
		return scopeAllows(set.CanView, scope)
	case ActionEdit:
		return scopeAllows(set.CanEdit, scope)
	case ActionDelete:
		return scopeAllows(set.CanDelete, scope)
	}
	return false
}

// PermissionsFor returns the permission set for role, if any.
func (e *Evaluator) PermissionsFor(role Role) (PermissionSet, bool) {
	set, ok := e.perms[role]
	return set, ok
}

func scopeAllows(scopes []Scope, scope Scope) bool {
	for _, s := range scopes {
		if s == ScopeAll || s == scope {
			return true
		}
	}
	return false
}
