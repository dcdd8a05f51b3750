package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Config struct {
	DSN   string `envconfig:"DSN" split_words:"true" required:"true"`
	Debug bool   `split_words:"true" default:"false"`
}

// New opens a lazily-connecting bun handle. Call PingContext to verify
// the connection before serving traffic.
func New(cfg Config) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(&queryLogger{})
	}

	return db, nil
}

func MustNew(cfg Config) *bun.DB {
	db, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return db
}

// queryLogger traces every query at debug level.
type queryLogger struct{}

var _ bun.QueryHook = (*queryLogger)(nil)

func (*queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (*queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	evt := log.Debug().
		Dur("duration", time.Since(event.StartTime)).
		Str("query", event.Query)
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		evt = evt.Err(event.Err)
	}
	evt.Msg("query executed")
}
