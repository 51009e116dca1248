package authz

import (
	"mt5panel/internal/apperr"
	"mt5panel/internal/models"
)

// Action tags the operation being attempted against a resource.
type Action int

const (
	ReadOwnAccount Action = iota
	WriteOwnAccount
	ReadBot
	WriteBot
	AdminAssign
	AdminListAll
	AdminManageUsers
)

// Caller is the already-authenticated identity making the request.
type Caller struct {
	ID   string
	Role string
}

// Resource identifies what the action targets; only the owner matters
// for the decision.
type Resource struct {
	OwnerID string
}

// Decide is the single policy function gating every store operation.
// It returns nil to allow, apperr.ErrForbidden to deny.
//
// Admin actions require the superadmin role. Linked-account actions
// require strict ownership with no role override: a superadmin does not
// implicitly own another user's broker credentials. Bot actions allow
// the owner or a superadmin.
func Decide(caller Caller, action Action, resource Resource) error {
	switch action {
	case AdminManageUsers, AdminAssign, AdminListAll:
		if caller.Role == models.RoleSuperadmin {
			return nil
		}
		return apperr.ErrForbidden
	case ReadOwnAccount, WriteOwnAccount:
		if resource.OwnerID == caller.ID {
			return nil
		}
		return apperr.ErrForbidden
	case ReadBot, WriteBot:
		if resource.OwnerID == caller.ID || caller.Role == models.RoleSuperadmin {
			return nil
		}
		return apperr.ErrForbidden
	default:
		return apperr.ErrForbidden
	}
}
