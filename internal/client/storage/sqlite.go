package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/appstate/internal/dbx"
	"github.com/dmitrijs2005/appstate/internal/filex"
	_ "modernc.org/sqlite"
)

// OpenSQLite opens (creating if needed) the state file at path and migrates
// it. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, *sql.DB, error) {
	dsn := path
	if filex.IsPlainPath(path) {
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, nil, err
		}
	}
	if path != ":memory:" {
		if strings.Contains(dsn, "?") {
			dsn += "&"
		} else {
			dsn += "?"
		}
		dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := RunMigrations(ctx, db, dbx.DialectSQLite); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return NewSQLStore(db, dbx.DialectSQLite), db, nil
}
