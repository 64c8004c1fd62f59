package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		is_super_admin INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS org_members (
		user_id TEXT NOT NULL,
		org_id TEXT NOT NULL,
		PRIMARY KEY (user_id, org_id)
	);

	CREATE TABLE IF NOT EXISTS ai_agents (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		name TEXT NOT NULL,
		agent_type TEXT NOT NULL,
		role_title TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		personality TEXT NOT NULL DEFAULT '',
		is_system_provided INTEGER NOT NULL DEFAULT 0,
		can_call_builtin INTEGER NOT NULL DEFAULT 0,
		can_be_orchestrated INTEGER NOT NULL DEFAULT 0,
		specialist_key TEXT NOT NULL DEFAULT '',
		context_scopes TEXT NOT NULL DEFAULT '[]',
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE (org_id, name)
	);
	CREATE INDEX IF NOT EXISTS idx_agents_org ON ai_agents(org_id);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		title TEXT NOT NULL,
		mode TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_org ON conversations(org_id);

	CREATE TABLE IF NOT EXISTS conversation_participants (
		conversation_id TEXT NOT NULL,
		participant_type TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (conversation_id, participant_type, participant_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		author_type TEXT NOT NULL,
		author_id TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		goal_type INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		parent_id TEXT,
		current_value REAL NOT NULL DEFAULT 0,
		target_value REAL NOT NULL DEFAULT 0,
		unit TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		due_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_goals_org ON goals(org_id, goal_type);
	CREATE INDEX IF NOT EXISTS idx_goals_parent ON goals(parent_id);

	CREATE TABLE IF NOT EXISTS roles (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		title TEXT NOT NULL,
		purpose TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE (org_id, title)
	);

	CREATE TABLE IF NOT EXISTS functions (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE (org_id, name)
	);

	CREATE TABLE IF NOT EXISTS role_functions (
		role_id TEXT NOT NULL,
		function_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (role_id, function_id)
	);
	CREATE INDEX IF NOT EXISTS idx_role_functions_fn ON role_functions(function_id);

	CREATE TABLE IF NOT EXISTS canvases (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		name TEXT NOT NULL,
		scope_type TEXT NOT NULL,
		scope_ref TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_canvases_org ON canvases(org_id, scope_type);

	CREATE TABLE IF NOT EXISTS canvas_blocks (
		id TEXT PRIMARY KEY,
		canvas_id TEXT NOT NULL,
		block_type TEXT NOT NULL,
		position INTEGER NOT NULL,
		items_json TEXT NOT NULL DEFAULT '[]',
		updated_at INTEGER NOT NULL,
		UNIQUE (canvas_id, block_type)
	);

	CREATE TABLE IF NOT EXISTS partners (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		name TEXT NOT NULL,
		partner_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE (org_id, name)
	);

	CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		name TEXT NOT NULL,
		channel_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE (org_id, name)
	);

	CREATE TABLE IF NOT EXISTS value_propositions (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		name TEXT NOT NULL,
		segment TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE (org_id, name)
	);

	CREATE TABLE IF NOT EXISTS help_articles (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
