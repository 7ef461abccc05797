package repository

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// testSchema mirrors migrations/000001_init.up.sql in SQLite dialect.
const testSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'RESEARCHER',
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE ai_models (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    huggingface_url TEXT NOT NULL UNIQUE,
    uploaded_by TEXT NOT NULL,
    uploaded_at TIMESTAMP NOT NULL
);

CREATE TABLE classification_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER,
    timestamp TIMESTAMP NOT NULL,
    model_name TEXT NOT NULL,
    model_type TEXT NOT NULL,
    source_type TEXT NOT NULL DEFAULT 'github',
    issue_url TEXT NOT NULL,
    issue_title TEXT NOT NULL DEFAULT '',
    issue_number TEXT NOT NULL DEFAULT '',
    result_count INTEGER NOT NULL,
    results_json TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'completed'
);
`

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "classifier-test.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("opening test database failed: %v", err)
	}
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("creating test schema failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogrus() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func testZap() *zap.Logger {
	return zap.NewNop()
}
