package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shift-roster/backend/internal/model"
)

func TestSuperAdminHasEveryCapability(t *testing.T) {
	s := For(model.RoleSuperAdmin)
	for _, c := range all {
		assert.True(t, s.Has(c), c)
	}
}

func TestRoleBoundaries(t *testing.T) {
	officer := For(model.RoleOfficer)
	assert.True(t, officer.Has(SubmitChoice))
	assert.False(t, officer.Has(GenerateSchedule))
	assert.False(t, officer.Has(VerifyDocuments))

	checker := For(model.RoleChecker)
	assert.True(t, checker.Has(VerifyDocuments))
	assert.False(t, checker.Has(SubmitChoice))

	admin := For(model.RoleAdmin)
	assert.True(t, admin.Has(GenerateSchedule))
	assert.True(t, admin.Has(ManageRules))
	assert.False(t, admin.Has(ManageUsers))
	assert.False(t, admin.Has(SubmitChoice))
}

func TestUnknownRoleIsEmpty(t *testing.T) {
	assert.Empty(t, For("GUEST"))
	assert.False(t, For("").Has(ViewRoster))
}
