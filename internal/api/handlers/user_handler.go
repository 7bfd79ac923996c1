package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"docvault/internal/engine/authz"
	"docvault/internal/pkg/errors"
	"docvault/internal/pkg/validator"
	"docvault/internal/platform/audit"
	"docvault/internal/platform/models"
	"docvault/internal/platform/repositories"
)

type UserHandler struct {
	userRepo  *repositories.UserRepository
	engine    *authz.Engine
	sink      *audit.Sink
	inviteTTL time.Duration
}

func NewUserHandler(userRepo *repositories.UserRepository, engine *authz.Engine, sink *audit.Sink, inviteTTL time.Duration) *UserHandler {
	if inviteTTL <= 0 {
		inviteTTL = 7 * 24 * time.Hour
	}
	return &UserHandler{userRepo: userRepo, engine: engine, sink: sink, inviteTTL: inviteTTL}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	if !h.authorize(w, r, authz.ClassUsers, authz.ActionRead) {
		return
	}

	users, err := h.userRepo.ListByOrg(t.Org.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	if !h.authorize(w, r, authz.ClassUsers, authz.ActionRead) {
		return
	}

	user, err := h.loadTarget(t.Org.ID, param(r, "user_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteServiceError(w, errors.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type InviteRequest struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
}

// Invite creates an invited-status user carrying a single-use token with a
// 7-day expiry. Delivering the invitation is someone else's job.
func (h *UserHandler) Invite(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	if !h.authorize(w, r, authz.ClassUsers, authz.ActionCreate) {
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if err := validator.ValidEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	// Owner is assigned at signup only; invites top out at Admin.
	role := authz.Role(req.Role)
	if !authz.ValidRole(role) || role == authz.RoleOwner {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid role", nil)
		return
	}

	email := validator.NormalizeEmail(req.Email)
	existing, err := h.userRepo.GetByEmail(t.Org.ID, email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User already exists", nil)
		return
	}

	now := time.Now()
	expires := now.Add(h.inviteTTL).Unix()
	user := &models.User{
		ID:              "usr_" + uuid.NewString(),
		OrganizationID:  t.Org.ID,
		Email:           email,
		FullName:        req.FullName,
		Role:            string(role),
		Status:          models.UserInvited,
		InviteToken:     uuid.NewString(),
		InviteExpiresAt: &expires,
		CreatedAt:       now.Unix(),
		UpdatedAt:       now.Unix(),
	}

	if err := h.userRepo.Create(user); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create user", nil)
		return
	}

	if _, err := h.sink.Record(r.Context(), t.Org.ID, t.Actor.ID, "user.invited", "user", user.ID, map[string]interface{}{
		"email":      email,
		"role":       req.Role,
		"invited_by": t.Actor.Email,
	}); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	if !h.authorize(w, r, authz.ClassUsers, authz.ActionUpdate) {
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !authz.ValidRole(authz.Role(req.Role)) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid role", nil)
		return
	}

	target, err := h.loadTarget(t.Org.ID, param(r, "user_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if target == nil {
		errors.WriteServiceError(w, errors.ErrNotFound)
		return
	}

	if !h.engine.CanActOnActor(t.AuthzActor(), actorOf(target)) {
		errors.WriteServiceError(w, errors.ErrForbidden)
		return
	}

	if err := h.userRepo.UpdateRole(t.Org.ID, target.ID, req.Role); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update role", nil)
		return
	}

	if _, err := h.sink.Record(r.Context(), t.Org.ID, t.Actor.ID, "user.role.updated", "user", target.ID, map[string]interface{}{
		"new_role":    req.Role,
		"target_user": target.Email,
	}); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User role updated"})
}

// Remove suspends the target account. The record stays for audit history.
func (h *UserHandler) Remove(w http.ResponseWriter, r *http.Request) {
	t := tenant(r)

	if !h.authorize(w, r, authz.ClassUsers, authz.ActionDelete) {
		return
	}

	target, err := h.loadTarget(t.Org.ID, param(r, "user_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if target == nil {
		errors.WriteServiceError(w, errors.ErrNotFound)
		return
	}

	if !h.engine.CanActOnActor(t.AuthzActor(), actorOf(target)) {
		errors.WriteServiceError(w, errors.ErrForbidden)
		return
	}

	if err := h.userRepo.UpdateStatus(t.Org.ID, target.ID, models.UserSuspended); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to remove user", nil)
		return
	}

	if _, err := h.sink.Record(r.Context(), t.Org.ID, t.Actor.ID, "user.removed", "user", target.ID, map[string]interface{}{
		"target_user": target.Email,
	}); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User removed"})
}

func (h *UserHandler) authorize(w http.ResponseWriter, r *http.Request, class authz.Class, action authz.Action) bool {
	t := tenant(r)
	allowed, err := h.engine.Authorize(r.Context(), t.AuthzActor(), class, action, authz.Request{})
	if err != nil {
		errors.WriteServiceError(w, err)
		return false
	}
	if !allowed {
		errors.WriteServiceError(w, errors.ErrForbidden)
		return false
	}
	return true
}

// loadTarget enforces org scoping: a user id from another tenant reads as
// absent.
func (h *UserHandler) loadTarget(orgID, userID string) (*models.User, error) {
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.OrganizationID != orgID || user.DeletedAt != nil {
		return nil, nil
	}
	return user, nil
}

func actorOf(user *models.User) authz.Actor {
	return authz.Actor{
		ID:    user.ID,
		OrgID: user.OrganizationID,
		Role:  authz.Role(user.Role),
	}
}
