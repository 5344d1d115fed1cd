// Package database opens the store selected by config.Database.
//
// Drivers:
//
//	LocalStore              – modernc.org/sqlite ("sqlite"), pure Go.
//	RemoteStore  postgres   – github.com/lib/pq ("postgres").
//	RemoteStore  mysql      – github.com/go-sql-driver/mysql ("mysql").
//
// Public entry points:
//
//	Open(ctx, db)                              – conservative pool sizes.
//	OpenWithOptions(ctx, db, maxOpen, maxIdle) – fine-grained control.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Nothing here runs during config.Load; the serve command
// calls Open after settings are final.
package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/yanizio/ecomm/internal/config"
)

const (
	memoryPath   = ":memory:"
	sqlitePragma = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
)

// ErrUnsupportedEngine is returned for a descriptor no driver handles.
var ErrUnsupportedEngine = errors.New("unsupported database engine")

// DriverName returns the database/sql driver for db.
func DriverName(db config.Database) (string, error) {
	switch d := db.(type) {
	case config.LocalStore:
		return "sqlite", nil
	case config.RemoteStore:
		switch d.Driver {
		case config.EnginePostgres:
			return "postgres", nil
		case config.EngineMySQL:
			return "mysql", nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEngine, d.Driver)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedEngine, db)
	}
}

// DSN renders db in the form its driver expects.
func DSN(db config.Database) (string, error) {
	switch d := db.(type) {
	case config.LocalStore:
		if d.Path == memoryPath {
			return memoryPath, nil
		}
		return d.Path + "?" + sqlitePragma, nil
	case config.RemoteStore:
		switch d.Driver {
		case config.EnginePostgres:
			return postgresDSN(d), nil
		case config.EngineMySQL:
			return mysqlDSN(d), nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEngine, d.Driver)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedEngine, db)
	}
}

func postgresDSN(d config.RemoteStore) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	q := url.Values{}
	for _, k := range d.OptionKeys() {
		q.Set(k, d.Options[k])
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func mysqlDSN(d config.RemoteStore) string {
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	mc.DBName = d.Name
	mc.ParseTime = true
	for _, k := range d.OptionKeys() {
		if k == "tls" {
			mc.TLSConfig = d.Options[k]
			continue
		}
		if mc.Params == nil {
			mc.Params = make(map[string]string)
		}
		mc.Params[k] = d.Options[k]
	}
	return mc.FormatDSN()
}

// Open returns a *sqlx.DB with sane defaults: 15 max open, 5 idle.  Local
// stores are pinned to one connection because SQLite serialises writers.
func Open(ctx context.Context, db config.Database) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, db, 15, 5)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle per pool.
func OpenWithOptions(ctx context.Context, db config.Database, maxOpen, maxIdle int) (*sqlx.DB, error) {
	driver, err := DriverName(db)
	if err != nil {
		return nil, err
	}
	dsn, err := DSN(db)
	if err != nil {
		return nil, err
	}

	if local, ok := db.(config.LocalStore); ok && local.Path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(local.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", db.Engine(), err)
	}
	configurePool(conn, db, maxOpen, maxIdle)

	if err := Ping(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", describe(db), err)
	}
	return conn, nil
}

// configurePool applies the reuse policy carried by the descriptor.
func configurePool(conn *sqlx.DB, db config.Database, maxOpen, maxIdle int) {
	switch d := db.(type) {
	case config.LocalStore:
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	case config.RemoteStore:
		conn.SetMaxOpenConns(maxOpen)
		conn.SetMaxIdleConns(maxIdle)
		conn.SetConnMaxLifetime(d.ConnMaxAge)
	}
}

// Ping checks connectivity with ctx.
func Ping(ctx context.Context, conn *sqlx.DB) error {
	return conn.PingContext(ctx)
}

// Healthcheck runs a trivial query.  Used by /healthz.
func Healthcheck(ctx context.Context, conn *sqlx.DB) error {
	var one int
	if err := conn.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return err
	}
	if one != 1 {
		return fmt.Errorf("healthcheck: unexpected result %d", one)
	}
	return nil
}

// describe is a log-safe label for db.
func describe(db config.Database) string {
	switch d := db.(type) {
	case config.RemoteStore:
		return d.String()
	case config.LocalStore:
		return "sqlite:" + strings.TrimSpace(d.Path)
	}
	return fmt.Sprintf("%T", db)
}
