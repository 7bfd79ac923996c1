package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	apiContext "docvault/internal/api/context"
	"docvault/internal/platform/auth"
	"docvault/internal/platform/repositories"
)

func orgRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "domain", "quota_bytes", "isolation_mode", "storage_prefix", "storage_bucket",
		"encryption_mode", "plan", "billing_status", "billing_ref", "created_at", "updated_at", "deleted_at",
	}).AddRow("org_123", "Acme", "acme.com", 1<<30, "prefix", "org-acme", nil, "sse-kms", "pro", "active", "cus_1", 1234567890, 1234567890, nil)
}

func userRows(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "organization_id", "email", "password_hash", "full_name", "role", "status",
		"invite_token", "invite_expires_at", "last_login_at", "created_at", "updated_at", "deleted_at",
	}).AddRow("usr_123", "org_123", "a@acme.com", "hash", "Alex", "Member", status, "", nil, nil, 1234567890, 1234567890, nil)
}

func requestWithClaims(userID, orgID string) *http.Request {
	req, _ := http.NewRequest("GET", "/", nil)
	claims := &auth.Claims{UserID: userID, OrganizationID: orgID}
	ctx := context.WithValue(req.Context(), apiContext.Claims, claims)
	return req.WithContext(ctx)
}

func TestTenantMiddleware(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	middleware := NewTenantMiddleware(
		repositories.NewOrganizationRepository(db),
		repositories.NewUserRepository(db),
	)

	t.Run("Valid Tenant", func(t *testing.T) {
		mock.ExpectQuery("FROM organizations WHERE id = ?").
			WithArgs("org_123").
			WillReturnRows(orgRows())
		mock.ExpectQuery("FROM users WHERE id = ?").
			WithArgs("usr_123").
			WillReturnRows(userRows("active"))

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Context().Value(apiContext.Tenant).(*TenantContext)
			if tenant.Org.ID != "org_123" {
				t.Errorf("Expected org_123, got %s", tenant.Org.ID)
			}
			if tenant.Actor.ID != "usr_123" {
				t.Errorf("Expected usr_123, got %s", tenant.Actor.ID)
			}
			actor := tenant.AuthzActor()
			if string(actor.Role) != "Member" {
				t.Errorf("Expected Member role, got %s", actor.Role)
			}
			w.WriteHeader(http.StatusOK)
		})

		handler.ServeHTTP(rr, requestWithClaims("usr_123", "org_123"))

		if rr.Code != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("Organization Not Found", func(t *testing.T) {
		mock.ExpectQuery("FROM organizations WHERE id = ?").
			WithArgs("org_999").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, requestWithClaims("usr_123", "org_999"))

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("Suspended User", func(t *testing.T) {
		mock.ExpectQuery("FROM organizations WHERE id = ?").
			WithArgs("org_123").
			WillReturnRows(orgRows())
		mock.ExpectQuery("FROM users WHERE id = ?").
			WithArgs("usr_123").
			WillReturnRows(userRows("suspended"))

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, requestWithClaims("usr_123", "org_123"))

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("No Claims", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})
}
