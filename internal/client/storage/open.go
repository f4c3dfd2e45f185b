package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/appstate/internal/common"
)

// Backend drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Options select and configure the backend.
type Options struct {
	Driver string
	// DSN is the sqlite file path or the postgres connection string.
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Namespace prefixes redis keys and salts the sealing key.
	Namespace string
	// Passphrase enables at-rest sealing when non-empty.
	Passphrase string
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Open builds the configured backend. The returned closer releases its
// connections.
func Open(ctx context.Context, opts Options) (Store, io.Closer, error) {
	if opts.Namespace == "" {
		opts.Namespace = common.AppName
	}

	var (
		store  Store
		closer io.Closer = closerFunc(func() error { return nil })
	)

	switch opts.Driver {
	case DriverSQLite, "":
		path := opts.DSN
		if path == "" {
			path = common.DefaultSQLitePath
		}
		s, db, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, db

	case DriverPostgres:
		s, db, err := OpenPostgres(ctx, opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, db

	case DriverRedis:
		s, err := OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.Namespace)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s

	case DriverMemory:
		store = NewMemoryStore()

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}

	if opts.Passphrase != "" {
		store = NewSealed(store, opts.Passphrase, opts.Namespace)
	}
	return store, closer, nil
}
