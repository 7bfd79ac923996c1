package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"docvault/internal/pkg/errors"
	"docvault/internal/pkg/validator"
	"docvault/internal/platform/auth"
	"docvault/internal/platform/models"
	"docvault/internal/platform/repositories"
)

type AuthHandler struct {
	orgRepo  *repositories.OrganizationRepository
	userRepo *repositories.UserRepository
	tokenSvc *auth.TokenService
}

func NewAuthHandler(orgRepo *repositories.OrganizationRepository, userRepo *repositories.UserRepository, tokenSvc *auth.TokenService) *AuthHandler {
	return &AuthHandler{orgRepo: orgRepo, userRepo: userRepo, tokenSvc: tokenSvc}
}

type SignupRequest struct {
	OrgName  string `json:"org_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type TokenResponse struct {
	Organization *models.Organization `json:"organization,omitempty"`
	User         *models.User         `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Signup creates an organization and its single initial Owner in one
// transaction. The org starts trialing with prefix isolation under a fresh
// unique prefix; the prefix is assigned exactly once and never reused.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.OrgName == "" || req.Password == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Organization name and password required", nil)
		return
	}
	if err := validator.ValidEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	now := time.Now().Unix()
	orgID := "org_" + uuid.NewString()

	org := &models.Organization{
		ID:             orgID,
		Name:           req.OrgName,
		QuotaBytes:     50 << 30,
		IsolationMode:  models.IsolationPrefix,
		StoragePrefix:  "org-" + orgID,
		EncryptionMode: "sse-kms",
		Plan:           "trial",
		BillingStatus:  models.BillingTrialing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	user := &models.User{
		ID:             "usr_" + uuid.NewString(),
		OrganizationID: org.ID,
		Email:          validator.NormalizeEmail(req.Email),
		PasswordHash:   string(hashedPassword),
		FullName:       req.FullName,
		Role:           "Owner",
		Status:         models.UserActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := h.orgRepo.BeginTx()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	defer tx.Rollback()

	if err := h.orgRepo.CreateTx(tx, org); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create organization", nil)
		return
	}
	if err := h.userRepo.CreateTx(tx, user); err != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Failed to create user", nil)
		return
	}
	if err := tx.Commit(); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	h.issueTokens(w, http.StatusCreated, org, user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	user, err := h.userRepo.GetByLoginEmail(validator.NormalizeEmail(req.Email))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.Status != models.UserActive {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	if err := h.userRepo.TouchLogin(user.ID); err != nil {
		log.Warn().Err(err).Str("user", user.ID).Msg("failed to record login time")
	}

	h.issueTokens(w, http.StatusOK, nil, user)
}

type AcceptInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AcceptInvite activates an invited user. The invite token is single-use and
// expires 7 days after issuance.
func (h *AuthHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Token == "" || req.Password == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Token and password required", nil)
		return
	}

	user, err := h.userRepo.GetByInviteToken(req.Token)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.Status != models.UserInvited {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Invite not found", nil)
		return
	}
	if user.InviteExpiresAt != nil && *user.InviteExpiresAt < time.Now().Unix() {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Invite not found", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	if err := h.userRepo.Activate(user.ID, string(hashedPassword)); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to activate user", nil)
		return
	}

	user.Status = models.UserActive
	h.issueTokens(w, http.StatusOK, nil, user)
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, status int, org *models.Organization, user *models.User) {
	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, user.OrganizationID, user.Role, user.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to issue token", nil)
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(user.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to issue token", nil)
		return
	}

	writeJSON(w, status, TokenResponse{
		Organization: org,
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}
