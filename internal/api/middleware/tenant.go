package middleware

import (
	"context"
	"net/http"

	apiContext "docvault/internal/api/context"
	"docvault/internal/engine/authz"
	"docvault/internal/pkg/errors"
	"docvault/internal/platform/auth"
	"docvault/internal/platform/models"
	"docvault/internal/platform/repositories"
)

// TenantContext is the resolved request tenant: the organization record and
// the acting user, loaded fresh so role or status changes take effect on the
// next request, not at next login.
type TenantContext struct {
	Org   *models.Organization
	Actor *models.User
}

// AuthzActor converts the acting user to the authorization engine's view.
func (t *TenantContext) AuthzActor() authz.Actor {
	return authz.Actor{
		ID:    t.Actor.ID,
		OrgID: t.Org.ID,
		Role:  authz.Role(t.Actor.Role),
	}
}

type TenantMiddleware struct {
	orgRepo  *repositories.OrganizationRepository
	userRepo *repositories.UserRepository
}

func NewTenantMiddleware(orgRepo *repositories.OrganizationRepository, userRepo *repositories.UserRepository) *TenantMiddleware {
	return &TenantMiddleware{orgRepo: orgRepo, userRepo: userRepo}
}

func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		org, err := m.orgRepo.GetByID(claims.OrganizationID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
			return
		}
		if org == nil || org.DeletedAt != nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
			return
		}

		user, err := m.userRepo.GetByID(claims.UserID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load user", nil)
			return
		}
		if user == nil || user.DeletedAt != nil || user.OrganizationID != org.ID {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "User not found", nil)
			return
		}
		if user.Status != models.UserActive {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "User account is not active", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &TenantContext{
			Org:   org,
			Actor: user,
		})

		next(w, r.WithContext(ctx))
	}
}
