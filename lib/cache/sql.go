package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"
	"unifeed-backend/lib/timezone"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

const schema = `
create table if not exists cache_entries (
	key text primary key,
	value blob not null,
	expires_at integer not null
);
create index if not exists cache_entries_expires_at on cache_entries(expires_at);
`

// SQL is a Store kept in a sqlite dialect database, either a local file through
// modernc.org/sqlite or a remote libsql server.
type SQL struct {
	db     *sql.DB
	driver string
	now    timezone.Clock
}

// SQLConfig selects the database, File is used when Url is empty.
type SQLConfig struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// OpenSQL opens the configured database and makes sure the table exists.
func OpenSQL(cfg SQLConfig, now timezone.Clock) (*SQL, error) {
	var db *sql.DB
	var driver string
	var err error

	switch {
	case cfg.Url != "":
		driver = "libsql"
		dsn := cfg.Url
		if cfg.AuthToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", cfg.Url, cfg.AuthToken)
		}
		db, err = sql.Open("libsql", dsn)
	case cfg.File != "":
		driver = "sqlite"
		db, err = sql.Open("sqlite", cfg.File)
		if err == nil {
			// see this stackoverflow post for information on why the following
			// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
			db.SetMaxOpenConns(1)
			_, err = db.Exec("PRAGMA journal_mode=WAL")
		}
	default:
		return nil, fmt.Errorf("sql cache: a file or url was not specified")
	}
	if err != nil {
		return nil, err
	}

	return NewSQL(db, driver, now)
}

// NewSQL wraps an already open database.
func NewSQL(db *sql.DB, driver string, now timezone.Clock) (*SQL, error) {
	_, err := db.Exec(schema)
	if err != nil {
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	slog.Info("opened sql cache", "driver", driver)
	return &SQL{db: db, driver: driver, now: now.OrNow()}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "sql:get")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	var value []byte
	var expiresAt int64
	err := s.db.QueryRowContext(
		ctx,
		"select value, expires_at from cache_entries where key = ?",
		key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		recordLookup(ctx, s.driver, ErrNotFound)
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query cache entry")
		recordLookup(ctx, s.driver, err)
		return nil, err
	}

	if s.now().UnixMilli() >= expiresAt {
		_, err = s.db.ExecContext(ctx, "delete from cache_entries where key = ? and expires_at = ?", key, expiresAt)
		if err != nil {
			span.RecordError(err)
		}
		recordLookup(ctx, s.driver, ErrNotFound)
		return nil, ErrNotFound
	}

	recordLookup(ctx, s.driver, nil)
	return value, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "sql:set")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	_, err := s.db.ExecContext(
		ctx,
		`insert into cache_entries (key, value, expires_at) values (?, ?, ?)
		on conflict(key) do update set value = excluded.value, expires_at = excluded.expires_at`,
		key, value, s.now().Add(ttl).UnixMilli(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert cache entry")
	}
	return err
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "delete from cache_entries where key = ?", key)
	return err
}

func (s *SQL) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	res, err := s.db.ExecContext(
		ctx,
		"delete from cache_entries where substr(key, 1, ?) = ?",
		utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ Sweeper = (*SQL)(nil)

// Sweep removes every expired row, reads already ignore them.
func (s *SQL) Sweep(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "delete from cache_entries where expires_at <= ?", s.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQL) Close() error {
	return s.db.Close()
}
