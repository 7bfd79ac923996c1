package authz

import "testing"

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		name     string
		granted  Permission
		class    Class
		action   Action
		expected bool
	}{
		{
			name:     "Full Wildcard",
			granted:  Permission{ClassAny, ActionAny},
			class:    ClassBilling,
			action:   ActionDelete,
			expected: true,
		},
		{
			name:     "Exact Match",
			granted:  Permission{ClassFiles, ActionRead},
			class:    ClassFiles,
			action:   ActionRead,
			expected: true,
		},
		{
			name:     "Action Wildcard",
			granted:  Permission{ClassFiles, ActionAny},
			class:    ClassFiles,
			action:   ActionDelete,
			expected: true,
		},
		{
			name:     "Class Mismatch",
			granted:  Permission{ClassFiles, ActionAny},
			class:    ClassUsers,
			action:   ActionRead,
			expected: false,
		},
		{
			name:     "Action Mismatch",
			granted:  Permission{ClassFiles, ActionRead},
			class:    ClassFiles,
			action:   ActionDelete,
			expected: false,
		},
		{
			name:     "Requested Wildcard Does Not Match Narrow Grant",
			granted:  Permission{ClassFiles, ActionRead},
			class:    ClassFiles,
			action:   ActionAny,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.granted.Matches(tt.class, tt.action); got != tt.expected {
				t.Errorf("Matches(%s, %s) = %v, want %v", tt.class, tt.action, got, tt.expected)
			}
		})
	}
}

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role     Role
		class    Class
		action   Action
		expected bool
	}{
		{RoleOwner, ClassBilling, ActionDelete, true},
		{RoleOwner, ClassAudit, ActionRead, true},
		{RoleAdmin, ClassOrg, ActionUpdate, true},
		{RoleAdmin, ClassOrg, ActionDelete, false},
		{RoleAdmin, ClassUsers, ActionDelete, true},
		{RoleManager, ClassFiles, ActionDelete, true},
		{RoleManager, ClassUsers, ActionUpdate, false},
		{RoleManager, ClassAudit, ActionRead, false},
		{RoleMember, ClassFiles, ActionCreate, true},
		{RoleMember, ClassShares, ActionDelete, false},
		{RoleMember, ClassUsers, ActionRead, false},
		{RoleGuest, ClassFiles, ActionRead, true},
		{RoleGuest, ClassFiles, ActionCreate, false},
		{RoleGuest, ClassShares, ActionRead, true},
	}

	for _, tt := range tests {
		got := false
		for _, p := range PermissionsFor(tt.role) {
			if p.Matches(tt.class, tt.action) {
				got = true
				break
			}
		}
		if got != tt.expected {
			t.Errorf("%s %s:%s = %v, want %v", tt.role, tt.class, tt.action, got, tt.expected)
		}
	}
}

// Every permission a lower role holds must also be held by every higher role.
// Catches accidental table edits that would break rank monotonicity.
func TestRolePermissions_Monotonic(t *testing.T) {
	order := []Role{RoleGuest, RoleMember, RoleManager, RoleAdmin, RoleOwner}
	classes := []Class{ClassOrg, ClassUsers, ClassBilling, ClassFiles, ClassShares, ClassAudit}
	actions := []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

	holds := func(role Role, class Class, action Action) bool {
		for _, p := range PermissionsFor(role) {
			if p.Matches(class, action) {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(order)-1; i++ {
		lower, higher := order[i], order[i+1]
		for _, class := range classes {
			for _, action := range actions {
				if holds(lower, class, action) && !holds(higher, class, action) {
					t.Errorf("%s holds %s:%s but %s does not", lower, class, action, higher)
				}
			}
		}
	}
}

func TestRankOf(t *testing.T) {
	if RankOf(RoleOwner) <= RankOf(RoleAdmin) {
		t.Error("Owner must outrank Admin")
	}
	if RankOf(RoleAdmin) <= RankOf(RoleManager) {
		t.Error("Admin must outrank Manager")
	}
	if RankOf(RoleManager) <= RankOf(RoleMember) {
		t.Error("Manager must outrank Member")
	}
	if RankOf(RoleMember) <= RankOf(RoleGuest) {
		t.Error("Member must outrank Guest")
	}
	if RankOf(Role("Superuser")) != 0 {
		t.Errorf("unknown role should rank 0, got %d", RankOf(Role("Superuser")))
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []Role{RoleOwner, RoleAdmin, RoleManager, RoleMember, RoleGuest} {
		if !ValidRole(role) {
			t.Errorf("expected %s to be valid", role)
		}
	}
	if ValidRole(Role("owner")) {
		t.Error("role names are case sensitive")
	}
	if ValidRole(Role("")) {
		t.Error("empty role must be invalid")
	}
}
