package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mt5panel/internal/apperr"
	"mt5panel/internal/models"
)

func TestDecideRuleTable(t *testing.T) {
	owner := Caller{ID: "u1", Role: models.RoleUser}
	other := Caller{ID: "u2", Role: models.RoleUser}
	admin := Caller{ID: "a1", Role: models.RoleSuperadmin}
	res := Resource{OwnerID: "u1"}

	tests := []struct {
		name   string
		caller Caller
		action Action
		allow  bool
	}{
		{"admin actions need superadmin", other, AdminManageUsers, false},
		{"admin actions need superadmin (assign)", owner, AdminAssign, false},
		{"admin actions need superadmin (list)", owner, AdminListAll, false},
		{"superadmin manages users", admin, AdminManageUsers, true},
		{"superadmin assigns", admin, AdminAssign, true},
		{"superadmin lists all", admin, AdminListAll, true},

		{"owner reads own account", owner, ReadOwnAccount, true},
		{"owner writes own account", owner, WriteOwnAccount, true},
		{"other cannot read account", other, ReadOwnAccount, false},
		{"other cannot write account", other, WriteOwnAccount, false},
		// no role override for linked accounts
		{"superadmin cannot read another user's account", admin, ReadOwnAccount, false},
		{"superadmin cannot write another user's account", admin, WriteOwnAccount, false},

		{"owner reads bot", owner, ReadBot, true},
		{"owner writes bot", owner, WriteBot, true},
		{"other cannot read bot", other, ReadBot, false},
		{"other cannot write bot", other, WriteBot, false},
		{"superadmin reads any bot", admin, ReadBot, true},
		{"superadmin writes any bot", admin, WriteBot, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Decide(tc.caller, tc.action, res)
			if tc.allow {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperr.ErrForbidden)
			}
		})
	}
}

func TestDecideUnknownActionDenied(t *testing.T) {
	err := Decide(Caller{ID: "u1", Role: models.RoleSuperadmin}, Action(99), Resource{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
