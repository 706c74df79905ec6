package mysql

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the MySQL driver.
	_ "github.com/go-sql-driver/mysql"

	"github.com/usetaskchat/taskchat/internal/profile"
	"github.com/usetaskchat/taskchat/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a MySQL database specified by the profile's DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}
	mysqlDB, err := sql.Open("mysql", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	return &DB{db: mysqlDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            VARCHAR(36) NOT NULL PRIMARY KEY,
			email         VARCHAR(255) NOT NULL UNIQUE,
			nickname      VARCHAR(256) NOT NULL,
			password_hash VARCHAR(256) NOT NULL,
			created_ts    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_ts    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id          INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			creator_id  VARCHAR(36) NOT NULL,
			title       VARCHAR(256) NOT NULL,
			description TEXT NOT NULL,
			completed   BOOLEAN NOT NULL DEFAULT FALSE,
			created_ts  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_ts  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_tasks_creator_id (creator_id),
			KEY idx_tasks_creator_completed (creator_id, completed)
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id         INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			creator_id VARCHAR(36) NOT NULL,
			created_ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_conversations_creator_id (creator_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id              INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			conversation_id INT NOT NULL,
			creator_id      VARCHAR(36) NOT NULL,
			role            VARCHAR(20) NOT NULL,
			content         TEXT NOT NULL,
			created_ts      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_messages_conversation_id (conversation_id),
			KEY idx_messages_conversation_created (conversation_id, created_ts),
			CONSTRAINT fk_messages_conversation FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to create schema")
		}
	}
	return nil
}
