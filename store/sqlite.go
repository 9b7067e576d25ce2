package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var sqliteTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		profile_photo TEXT NOT NULL DEFAULT '',
		password      TEXT NOT NULL,
		last_seen_at  DATETIME NULL,
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS follows (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		follower_id INTEGER NOT NULL,
		followed_id INTEGER NOT NULL,
		status      TEXT NOT NULL,
		created_at  DATETIME NOT NULL,
		UNIQUE (follower_id, followed_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_followed ON follows (followed_id)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		user_a_id            INTEGER NOT NULL,
		user_b_id            INTEGER NOT NULL,
		last_message_at      DATETIME NULL,
		last_message_preview TEXT NULL,
		unread_a             INTEGER NOT NULL DEFAULT 0,
		unread_b             INTEGER NOT NULL DEFAULT 0,
		created_at           DATETIME NOT NULL,
		UNIQUE (user_a_id, user_b_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL,
		sender_id       INTEGER NOT NULL,
		content         TEXT NOT NULL,
		is_sticker      INTEGER NOT NULL DEFAULT 0,
		sticker_code    TEXT NOT NULL DEFAULT '',
		created_at      DATETIME NOT NULL,
		read_at         DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conv_time ON messages (conversation_id, created_at)`,
}

// OpenSQLite opens a file-backed store, mainly for development and tests.
func OpenSQLite(path string) (ChatStore, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent requests.
	db.SetMaxOpenConns(1)

	for _, table := range sqliteTables {
		if _, err := db.Exec(table); err != nil {
			db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}

	return &sqlStore{db: db, isDup: isSQLiteDuplicate}, nil
}

func isSQLiteDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
