package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations on PostgreSQL.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              VARCHAR(36)  PRIMARY KEY,
			email           VARCHAR(255) UNIQUE,
			phone_number    VARCHAR(20)  UNIQUE,
			hashed_password VARCHAR(255) NOT NULL,
			full_name       VARCHAR(255),
			profile_picture VARCHAR(255),
			is_active       BOOLEAN      NOT NULL DEFAULT TRUE,
			is_verified     BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS groups (
			id            VARCHAR(36)  PRIMARY KEY,
			name          VARCHAR(255) NOT NULL,
			description   TEXT,
			group_picture VARCHAR(255),
			created_by    VARCHAR(36)  NOT NULL REFERENCES users(id),
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS group_members (
			id        VARCHAR(36) PRIMARY KEY,
			group_id  VARCHAR(36) NOT NULL REFERENCES groups(id),
			user_id   VARCHAR(36) NOT NULL REFERENCES users(id),
			is_admin  BOOLEAN     NOT NULL DEFAULT FALSE,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (group_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id           VARCHAR(36)  PRIMARY KEY,
			sender_id    VARCHAR(36)  NOT NULL REFERENCES users(id),
			receiver_id  VARCHAR(36)  REFERENCES users(id),
			group_id     VARCHAR(36)  REFERENCES groups(id),
			content      TEXT         NOT NULL,
			message_type VARCHAR(10)  NOT NULL DEFAULT 'text',
			file_url     VARCHAR(255),
			status       VARCHAR(10)  NOT NULL DEFAULT 'sent',
			is_deleted   BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone_number)`,
		`CREATE INDEX IF NOT EXISTS idx_group_members_group ON group_members(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_direct ON messages(sender_id, receiver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_group ON messages(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
