package shares

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docvault/internal/engine/authz"
)

// Registry creates and evaluates shares. It also serves the authorization
// engine as its grant source.
type Registry struct {
	repo *Repository
}

func NewRegistry(repo *Repository) *Registry {
	return &Registry{repo: repo}
}

// CreateParams describes the requested share. Exactly one of TargetRole and
// TargetUserID may be set; when both are empty a link share is created and a
// fresh token generated.
type CreateParams struct {
	FileID       string
	OrgID        string
	TargetRole   string
	TargetUserID string
	Permissions  []string
	ExpiresAt    *int64
	CreatedBy    string
}

func (r *Registry) CreateShare(params CreateParams) (*Share, error) {
	share := &Share{
		ID:           "shr_" + uuid.NewString(),
		FileID:       params.FileID,
		OrgID:        params.OrgID,
		TargetRole:   params.TargetRole,
		TargetUserID: params.TargetUserID,
		Permissions:  params.Permissions,
		ExpiresAt:    params.ExpiresAt,
		CreatedBy:    params.CreatedBy,
		CreatedAt:    time.Now().Unix(),
	}

	switch {
	case params.TargetRole != "":
		share.Type = TypeRole
	case params.TargetUserID != "":
		share.Type = TypeUser
	default:
		token, err := NewLinkToken()
		if err != nil {
			return nil, err
		}
		share.Type = TypeLink
		share.Token = token
	}

	if len(share.Permissions) == 0 {
		share.Permissions = []string{PermRead}
	}

	if err := share.Validate(); err != nil {
		return nil, err
	}

	if err := r.repo.Create(share); err != nil {
		return nil, err
	}

	return share, nil
}

func (r *Registry) Get(orgID, id string) (*Share, error) {
	return r.repo.GetByID(orgID, id)
}

func (r *Registry) ListForFile(orgID, fileID string) ([]*Share, error) {
	return r.repo.ListByFile(orgID, fileID)
}

func (r *Registry) Revoke(orgID, id string) error {
	return r.repo.Delete(orgID, id)
}

// ActiveGrants implements authz.GrantFinder: expired shares are filtered out
// at the query, so a lapsed link token never grants anything, not even to
// its creator.
func (r *Registry) ActiveGrants(ctx context.Context, orgID, resourceID string) ([]authz.Grant, error) {
	active, err := r.repo.ListActiveByFile(orgID, resourceID, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	grants := make([]authz.Grant, 0, len(active))
	for _, s := range active {
		grants = append(grants, authz.Grant{
			Role:        s.TargetRole,
			UserID:      s.TargetUserID,
			Token:       s.Token,
			Permissions: s.Permissions,
		})
	}
	return grants, nil
}
