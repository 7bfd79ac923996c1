package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	errs "docvault/internal/pkg/errors"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	query := `
	CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		metadata TEXT,
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return db
}

func TestSink_Record(t *testing.T) {
	sink := NewSink(setupTestDB(t))

	ctx := WithClientInfo(context.Background(), ClientInfo{
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent",
	})

	rec, err := sink.Record(ctx, "org_1", "usr_1", "file.deleted", "file", "file_1", map[string]interface{}{
		"file_name": "report.pdf",
	})
	if err != nil {
		t.Fatalf("Failed to record: %v", err)
	}
	if rec.IPAddress != "203.0.113.7" || rec.UserAgent != "test-agent" {
		t.Errorf("client info not captured: %+v", rec)
	}

	records, err := sink.Query(ctx, "org_1", 0, 0, 10)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Action != "file.deleted" {
		t.Errorf("expected file.deleted, got %s", records[0].Action)
	}
	if records[0].Metadata["file_name"] != "report.pdf" {
		t.Errorf("metadata round-trip failed: %v", records[0].Metadata)
	}
}

// A failed audit write must surface as an error so the caller reports the
// whole mutation as failed.
func TestSink_Record_FailClosed(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	defer db.Close()
	// No audit_logs table: every insert fails.

	sink := NewSink(db)
	rec, err := sink.Record(context.Background(), "org_1", "usr_1", "file.deleted", "file", "file_1", nil)
	if err == nil {
		t.Fatal("expected error from failed audit write")
	}
	if !errors.Is(err, errs.ErrDependency) {
		t.Errorf("expected ErrDependency, got %v", err)
	}
	if rec != nil {
		t.Error("no record must be returned on failure")
	}
}

func TestSink_Query_Scoping(t *testing.T) {
	sink := NewSink(setupTestDB(t))
	ctx := context.Background()

	if _, err := sink.Record(ctx, "org_1", "usr_1", "a.one", "file", "f1", nil); err != nil {
		t.Fatalf("Failed to record: %v", err)
	}
	if _, err := sink.Record(ctx, "org_2", "usr_2", "a.two", "file", "f2", nil); err != nil {
		t.Fatalf("Failed to record: %v", err)
	}

	records, err := sink.Query(ctx, "org_1", 0, 0, 10)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(records) != 1 || records[0].Action != "a.one" {
		t.Errorf("query must be org scoped, got %+v", records)
	}
}
