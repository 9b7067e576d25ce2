package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

var mysqlTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(50) NOT NULL,
		display_name  VARCHAR(100) NOT NULL,
		profile_photo VARCHAR(255) NOT NULL DEFAULT '',
		password      VARCHAR(255) NOT NULL,
		last_seen_at  DATETIME(6) NULL,
		created_at    DATETIME(6) NOT NULL,
		UNIQUE KEY uk_username (username)
	)`,
	`CREATE TABLE IF NOT EXISTS follows (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		follower_id BIGINT NOT NULL,
		followed_id BIGINT NOT NULL,
		status      VARCHAR(16) NOT NULL,
		created_at  DATETIME(6) NOT NULL,
		UNIQUE KEY uk_edge (follower_id, followed_id),
		INDEX idx_followed (followed_id)
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id                   BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_a_id            BIGINT NOT NULL,
		user_b_id            BIGINT NOT NULL,
		last_message_at      DATETIME(6) NULL,
		last_message_preview VARCHAR(64) NULL,
		unread_a             INT NOT NULL DEFAULT 0,
		unread_b             INT NOT NULL DEFAULT 0,
		created_at           DATETIME(6) NOT NULL,
		UNIQUE KEY uk_pair (user_a_id, user_b_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              BIGINT AUTO_INCREMENT PRIMARY KEY,
		conversation_id BIGINT NOT NULL,
		sender_id       BIGINT NOT NULL,
		content         TEXT NOT NULL,
		is_sticker      TINYINT(1) NOT NULL DEFAULT 0,
		sticker_code    VARCHAR(32) NOT NULL DEFAULT '',
		created_at      DATETIME(6) NOT NULL,
		read_at         DATETIME(6) NULL,
		INDEX idx_conv_time (conversation_id, created_at)
	)`,
}

func OpenMySQL(dsn string) (ChatStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	for _, table := range mysqlTables {
		if _, err := db.Exec(table); err != nil {
			db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}

	return &sqlStore{db: db, isDup: isMySQLDuplicate}, nil
}

func isMySQLDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
