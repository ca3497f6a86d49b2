package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the three tables the service owns.  Username and email
// uniqueness live here as well as in the service layer: the service checks
// give readable errors, the constraints are what actually hold under
// concurrent registrations.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS fd_users (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		first_name      VARCHAR(255) NOT NULL,
		last_name       VARCHAR(255) NOT NULL,
		username        VARCHAR(255) NOT NULL,
		password        VARCHAR(255) NOT NULL,
		email           VARCHAR(255) NOT NULL,
		profile_picture TEXT NULL,
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_fd_users_username (username),
		UNIQUE KEY uq_fd_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE IF NOT EXISTS blacklist (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		access_token TEXT NOT NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY ix_blacklist_token (access_token(255)),
		KEY ix_blacklist_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE IF NOT EXISTS post (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id         BIGINT UNSIGNED NOT NULL,
		food_name       VARCHAR(255) NOT NULL,
		image           TEXT NULL,
		restaurant_name VARCHAR(255) NULL,
		rating          DOUBLE NOT NULL,
		review          TEXT NOT NULL,
		tags            VARCHAR(512) NULL,
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY ix_post_user_id (user_id),
		CONSTRAINT ck_post_rating CHECK (rating BETWEEN 1 AND 5),
		CONSTRAINT fk_post_user FOREIGN KEY (user_id) REFERENCES fd_users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  Existing tables are left untouched.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
