package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// buildDSN assembles the MySQL connection string. parseTime maps DATETIME
// columns onto time.Time and loc=UTC keeps ban expiries and issue times in
// one zone end to end. maxAllowedPacket=0 asks the driver to use the
// server's limit, which matters for the 255 KiB blob-chunk inserts.
func buildDSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = user + ":" + pass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&maxAllowedPacket=0",
		auth, host, port, name)
}

// Open connects to MySQL, verifies the connection and bootstraps any
// missing tables, returning a pool shared by every repository for the
// process lifetime.
func Open(ctx context.Context, user, pass, host, port, name string) (*sql.DB, error) {
	db, err := sql.Open("mysql", buildDSN(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	// Catalog traffic is short bursts of small queries, but blob uploads and
	// downloads hold a connection for the whole transfer, so the pool leaves
	// headroom beyond the handful of concurrent API requests expected.
	db.SetMaxOpenConns(32)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema bootstrap: %w", err)
	}
	return db, nil
}
