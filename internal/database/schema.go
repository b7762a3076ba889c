package database

import (
	"context"
	"database/sql"
)

// schema lists the DDL for every table the service owns.  Statements are
// idempotent so EnsureSchema can run on every startup.  Uniqueness
// invariants the application depends on live here as unique indexes:
// account email, one game_status row per account, and one score record per
// (account, song) pair.  Duplicate-key errors from these indexes are the
// conflict signal surfaced by the repositories.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name          VARCHAR(100)    NOT NULL,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(100)    NOT NULL,
		is_admin      TINYINT(1)      NOT NULL DEFAULT 0,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_accounts_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bans (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		reason     TEXT            NOT NULL,
		issued_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME        NULL,
		banned_by  BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (id),
		KEY idx_bans_user (user_id),
		KEY idx_bans_expires (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS game_status (
		id                   BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id              BIGINT UNSIGNED NOT NULL,
		unlocked_songs       JSON            NOT NULL,
		unlocked_instruments JSON            NOT NULL,
		highscore            JSON            NOT NULL,
		song_token           BIGINT          NOT NULL DEFAULT 0,
		instrument_token     BIGINT          NOT NULL DEFAULT 0,
		PRIMARY KEY (id),
		UNIQUE KEY uq_game_status_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS score_records (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		song_id    BIGINT UNSIGNED NOT NULL,
		easy_score BIGINT          NOT NULL DEFAULT 0,
		easy_state VARCHAR(2)      NOT NULL DEFAULT 'NC',
		hard_score BIGINT          NOT NULL DEFAULT 0,
		hard_state VARCHAR(2)      NOT NULL DEFAULT 'NC',
		PRIMARY KEY (id),
		UNIQUE KEY uq_scores_user_song (user_id, song_id),
		KEY idx_scores_song (song_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS songs (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		song_name         VARCHAR(255)    NOT NULL,
		composer          VARCHAR(255)    NOT NULL,
		genre             VARCHAR(100)    NOT NULL,
		bpm               INT             NOT NULL,
		info              TEXT            NOT NULL,
		is_default        TINYINT(1)      NOT NULL DEFAULT 0,
		audio_clip        VARCHAR(512)    NOT NULL DEFAULT '',
		easy_midi         VARCHAR(512)    NOT NULL DEFAULT '',
		hard_midi         VARCHAR(512)    NOT NULL DEFAULT '',
		easy_note_timings JSON            NOT NULL,
		hard_note_timings JSON            NOT NULL,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS blob_files (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		filename   VARCHAR(512)    NOT NULL,
		length     BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_blob_files_name (filename)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS blob_chunks (
		id      BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		file_id BIGINT UNSIGNED NOT NULL,
		seq     INT UNSIGNED    NOT NULL,
		data    LONGBLOB        NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_blob_chunks_file_seq (file_id, seq)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing tables.  It runs once at startup before
// the HTTP server begins accepting requests.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
