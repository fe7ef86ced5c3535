package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type PoolOptions struct {
	URL      string
	MaxConns int32
	MinConns int32
	// SlowQuery is the latency above which statements are logged at warn.
	// Zero disables query logging.
	SlowQuery time.Duration
	Logger    zerolog.Logger
}

// NewPool opens a pgx connection pool and verifies it with a ping.
func NewPool(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.SlowQuery > 0 {
		cfg.ConnConfig.Tracer = &slowQueryTracer{
			threshold: opts.SlowQuery,
			logger:    opts.Logger.With().Str("component", "db").Logger(),
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

type queryStartKey struct{}

type queryStart struct {
	at  time.Time
	sql string
}

// slowQueryTracer logs statements that fail or exceed threshold.
type slowQueryTracer struct {
	threshold time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func (t *slowQueryTracer) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: t.clock(), sql: data.SQL})
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := t.clock().Sub(start.at)

	switch {
	case data.Err != nil:
		t.logger.Debug().Err(data.Err).Str("sql", start.sql).Dur("elapsed", elapsed).Msg("query failed")
	case elapsed >= t.threshold:
		t.logger.Warn().
			Str("sql", start.sql).
			Dur("elapsed", elapsed).
			Str("command", data.CommandTag.String()).
			Msg("slow query")
	}
}
