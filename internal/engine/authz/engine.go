package authz

import (
	"context"
)

// Actor is the authorization view of an authenticated user: who they are,
// which organization they belong to, and their role.
type Actor struct {
	ID    string
	OrgID string
	Role  Role
}

// Grant is a share evaluated for authorization, stripped of storage detail.
// Exactly one of Role, UserID, Token identifies the beneficiary.
type Grant struct {
	Role        string
	UserID      string
	Token       string
	Permissions []string
}

// GrantFinder returns the non-expired grants on a resource. Implemented by
// the share registry; injected so the engine itself stays free of storage
// concerns.
type GrantFinder interface {
	ActiveGrants(ctx context.Context, orgID, resourceID string) ([]Grant, error)
}

type Engine struct {
	grants GrantFinder
}

func NewEngine(grants GrantFinder) *Engine {
	return &Engine{grants: grants}
}

// Request carries the optional share-related inputs to Authorize. ResourceID
// enables grant lookup; LinkToken is a presented bearer token, if any.
type Request struct {
	ResourceID string
	LinkToken  string
}

// Authorize decides whether the actor may perform action on the resource
// class. Checks short-circuit in order: full wildcard, exact grant, class
// wildcard, then explicit shares on the specific resource. Denial is a plain
// false, never an error; the error return is reserved for grant-lookup
// failures.
func (e *Engine) Authorize(ctx context.Context, actor Actor, class Class, action Action, req Request) (bool, error) {
	for _, p := range PermissionsFor(actor.Role) {
		if p.Matches(class, action) {
			return true, nil
		}
	}

	if req.ResourceID == "" || e.grants == nil {
		return false, nil
	}

	grants, err := e.grants.ActiveGrants(ctx, actor.OrgID, req.ResourceID)
	if err != nil {
		return false, err
	}

	want := sharePermissionFor(action)
	for _, g := range grants {
		if !grantApplies(g, actor, req.LinkToken) {
			continue
		}
		for _, perm := range g.Permissions {
			if perm == want {
				return true, nil
			}
		}
	}

	return false, nil
}

// CanActOnActor decides user-management authority. Strictly higher rank is
// required, Owners pass the rank check for everyone, Admins for everyone but
// Owners, and no role below Admin manages anyone. Shares are never consulted.
func (e *Engine) CanActOnActor(manager, target Actor) bool {
	if RankOf(manager.Role) <= RankOf(target.Role) {
		return false
	}

	switch manager.Role {
	case RoleOwner:
		return true
	case RoleAdmin:
		return target.Role != RoleOwner
	default:
		return false
	}
}

func grantApplies(g Grant, actor Actor, linkToken string) bool {
	switch {
	case g.UserID != "":
		return g.UserID == actor.ID
	case g.Role != "":
		return g.Role == string(actor.Role)
	case g.Token != "":
		return linkToken != "" && g.Token == linkToken
	}
	return false
}

// sharePermissionFor maps an authorization action onto the share permission
// vocabulary {read, write, delete, reshare}. Reshare is never implied by any
// other permission.
func sharePermissionFor(action Action) string {
	switch action {
	case ActionRead:
		return "read"
	case ActionCreate, ActionUpdate:
		return "write"
	case ActionDelete:
		return "delete"
	default:
		return string(action)
	}
}
