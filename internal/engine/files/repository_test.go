package files

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	query := `
	CREATE TABLE files (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '/',
		type TEXT NOT NULL DEFAULT 'file',
		size INTEGER NOT NULL DEFAULT 0,
		content_type TEXT,
		storage_bucket TEXT NOT NULL DEFAULT '',
		storage_key TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		version INTEGER NOT NULL DEFAULT 1,
		created_by TEXT NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		deleted_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return db
}

func seedFile(t *testing.T, repo *Repository, id, orgID string) *File {
	now := time.Now().Unix()
	f := &File{
		ID:            id,
		OrgID:         orgID,
		Name:          "report.pdf",
		Path:          "/finance",
		Type:          TypeFile,
		Size:          1024,
		ContentType:   "application/pdf",
		StorageBucket: "bucket",
		StorageKey:    "org-x/finance/report.pdf",
		Status:        StatusActive,
		Version:       1,
		CreatedBy:     "usr_1",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.Create(f); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	return f
}

func TestRepository_GetByID_OrgScoped(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedFile(t, repo, "file_1", "org_1")

	f, err := repo.GetByID("org_1", "file_1")
	if err != nil {
		t.Fatalf("Failed to get file: %v", err)
	}
	if f == nil || f.Name != "report.pdf" {
		t.Fatalf("unexpected file: %+v", f)
	}

	other, err := repo.GetByID("org_2", "file_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other != nil {
		t.Error("file must not be visible to another organization")
	}
}

func TestRepository_UpdateMetadata_VersionCheck(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedFile(t, repo, "file_1", "org_1")

	affected, err := repo.UpdateMetadata("org_1", "file_1", "renamed.pdf", 1)
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row, got %d", affected)
	}

	f, _ := repo.GetByID("org_1", "file_1")
	if f.Name != "renamed.pdf" {
		t.Errorf("expected renamed.pdf, got %s", f.Name)
	}
	if f.Version != 2 {
		t.Errorf("expected version 2, got %d", f.Version)
	}

	// A writer still holding version 1 must lose.
	affected, err = repo.UpdateMetadata("org_1", "file_1", "stale.pdf", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 0 {
		t.Error("stale version must touch zero rows")
	}

	f, _ = repo.GetByID("org_1", "file_1")
	if f.Name != "renamed.pdf" || f.Version != 2 {
		t.Errorf("stale write must leave the row untouched: %+v", f)
	}
}

func TestRepository_Finalize_Idempotent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	f := seedFile(t, repo, "file_1", "org_1")
	f.Status = StatusPending
	if _, err := repo.db.Exec(`UPDATE files SET status = ? WHERE id = ?`, StatusPending, f.ID); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := repo.Finalize("org_1", "file_1"); err != nil {
		t.Fatalf("Failed to finalize: %v", err)
	}
	got, _ := repo.GetByID("org_1", "file_1")
	if got.Status != StatusActive {
		t.Fatalf("expected active, got %s", got.Status)
	}

	if err := repo.Finalize("org_1", "file_1"); err != nil {
		t.Fatalf("second finalize must not fail: %v", err)
	}
}

func TestRepository_SoftDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedFile(t, repo, "file_1", "org_1")

	if err := repo.SoftDelete("org_1", "file_1"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	f, _ := repo.GetByID("org_1", "file_1")
	if f == nil {
		t.Fatal("soft-deleted row must still be readable by id")
	}
	if !f.IsDeleted || f.DeletedAt == nil {
		t.Errorf("expected deletion markers, got %+v", f)
	}

	list, err := repo.ListByPath("org_1", "/finance", 0)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("deleted files must not list, got %d", len(list))
	}
}

func TestRepository_ListByPath(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedFile(t, repo, "file_1", "org_1")
	seedFile(t, repo, "file_2", "org_2")

	list, err := repo.ListByPath("org_1", "/finance", 0)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "file_1" {
		t.Errorf("expected only org_1 files, got %+v", list)
	}
}
