package shares

import (
	"fmt"

	"docvault/internal/pkg/errors"
)

// Share types. Exactly one payload field is populated per type.
const (
	TypeRole = "role"
	TypeUser = "user"
	TypeLink = "link"
)

// Share permission vocabulary.
const (
	PermRead    = "read"
	PermWrite   = "write"
	PermDelete  = "delete"
	PermReshare = "reshare"
)

// Share is a capability: it grants Permissions on one file to whoever
// satisfies the payload predicate, independent of role defaults.
type Share struct {
	ID           string   `json:"id"`
	FileID       string   `json:"file_id"`
	OrgID        string   `json:"organization_id"`
	Type         string   `json:"type"`
	TargetRole   string   `json:"target_role,omitempty"`
	TargetUserID string   `json:"target_user_id,omitempty"`
	Token        string   `json:"token,omitempty"`
	Permissions  []string `json:"permissions"`
	ExpiresAt    *int64   `json:"expires_at,omitempty"`
	CreatedBy    string   `json:"created_by"`
	CreatedAt    int64    `json:"created_at"`
}

var validPermissions = map[string]bool{
	PermRead:    true,
	PermWrite:   true,
	PermDelete:  true,
	PermReshare: true,
}

// Validate enforces the construction invariants: a known type, a non-empty
// permission set from the vocabulary, and exactly one payload matching the
// type.
func (s *Share) Validate() error {
	if len(s.Permissions) == 0 {
		return fmt.Errorf("%w: share requires at least one permission", errors.ErrInvalidInput)
	}
	for _, p := range s.Permissions {
		if !validPermissions[p] {
			return fmt.Errorf("%w: unknown share permission %q", errors.ErrInvalidInput, p)
		}
	}

	populated := 0
	if s.TargetRole != "" {
		populated++
	}
	if s.TargetUserID != "" {
		populated++
	}
	if s.Token != "" {
		populated++
	}
	if populated != 1 {
		return fmt.Errorf("%w: share must carry exactly one of role, user, token", errors.ErrInvalidInput)
	}

	switch s.Type {
	case TypeRole:
		if s.TargetRole == "" {
			return fmt.Errorf("%w: role share missing target role", errors.ErrInvalidInput)
		}
	case TypeUser:
		if s.TargetUserID == "" {
			return fmt.Errorf("%w: user share missing target user", errors.ErrInvalidInput)
		}
	case TypeLink:
		if s.Token == "" {
			return fmt.Errorf("%w: link share missing token", errors.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown share type %q", errors.ErrInvalidInput, s.Type)
	}

	return nil
}
