package authz

// Role is one of the five fixed organization roles.
type Role string

const (
	RoleOwner   Role = "Owner"
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleMember  Role = "Member"
	RoleGuest   Role = "Guest"
)

// Class names a resource class a permission applies to. ClassAny is the
// wildcard and is never granted below Owner.
type Class string

const (
	ClassAny     Class = "*"
	ClassOrg     Class = "org"
	ClassUsers   Class = "users"
	ClassBilling Class = "billing"
	ClassFiles   Class = "files"
	ClassShares  Class = "shares"
	ClassAudit   Class = "audit"
)

// Action names an operation on a resource class.
type Action string

const (
	ActionAny    Action = "*"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Permission pairs a resource class with an action. Matching is done through
// Matches rather than raw string comparison so a mistyped class or action can
// never silently grant anything.
type Permission struct {
	Class  Class
	Action Action
}

// Matches reports whether this granted permission covers the requested
// class/action pair, honoring wildcards on the granted side only.
func (p Permission) Matches(class Class, action Action) bool {
	if p.Class == ClassAny && p.Action == ActionAny {
		return true
	}
	if p.Class != class {
		return false
	}
	return p.Action == action || p.Action == ActionAny
}

// rolePermissions is the static role table. It is built once and never
// mutated; changing it means a new deployment.
var rolePermissions = map[Role][]Permission{
	RoleOwner: {
		{ClassAny, ActionAny},
	},
	RoleAdmin: {
		{ClassOrg, ActionRead},
		{ClassOrg, ActionUpdate},
		{ClassUsers, ActionAny},
		{ClassBilling, ActionAny},
		{ClassFiles, ActionAny},
		{ClassShares, ActionAny},
		{ClassAudit, ActionRead},
	},
	RoleManager: {
		{ClassFiles, ActionAny},
		{ClassShares, ActionAny},
		{ClassUsers, ActionRead},
	},
	RoleMember: {
		{ClassFiles, ActionRead},
		{ClassFiles, ActionCreate},
		{ClassFiles, ActionUpdate},
		{ClassFiles, ActionDelete},
		{ClassShares, ActionRead},
		{ClassShares, ActionCreate},
	},
	RoleGuest: {
		{ClassFiles, ActionRead},
		{ClassShares, ActionRead},
	},
}

var roleRanks = map[Role]int{
	RoleOwner:   5,
	RoleAdmin:   4,
	RoleManager: 3,
	RoleMember:  2,
	RoleGuest:   1,
}

// PermissionsFor returns the static permission set for a role. The returned
// slice must not be modified.
func PermissionsFor(role Role) []Permission {
	return rolePermissions[role]
}

// RankOf returns the role's rank, Owner highest. Unknown roles rank 0, below
// Guest. Rank is used only for actor-manages-actor checks, never for
// resource authorization.
func RankOf(role Role) int {
	return roleRanks[role]
}

// ValidRole reports whether the role name is one of the five known roles.
func ValidRole(role Role) bool {
	_, ok := roleRanks[role]
	return ok
}
