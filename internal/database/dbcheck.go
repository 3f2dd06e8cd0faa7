package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// ConnectionInfo describes the server reached by CheckConnection
type ConnectionInfo struct {
	Database string
	Version  string
}

// CheckConnection opens a plain database/sql connection with the lib/pq
// driver and reports which server it reached. It does not touch gorm.
func CheckConnection(ctx context.Context, dsn string) (*ConnectionInfo, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	return checkConnection(ctx, db)
}

func checkConnection(ctx context.Context, db *sql.DB) (*ConnectionInfo, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	info := &ConnectionInfo{}
	if err := db.QueryRowContext(ctx, "SELECT current_database(), version()").Scan(&info.Database, &info.Version); err != nil {
		return nil, fmt.Errorf("failed to query server version: %w", err)
	}

	return info, nil
}
