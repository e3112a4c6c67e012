package store

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edupulse/conversion-relay/internal/capi"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the optional dispatch log: one row per relay attempt,
// kept for campaign-side reconciliation. It is not the session dedup ledger
// and never gates a dispatch.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// RecordDispatch appends one relay outcome. The (event_id, status) constraint
// makes a replayed write idempotent, so a retried log call for the same
// attempt cannot double-count.
func (p *PostgresStore) RecordDispatch(ctx context.Context, env capi.Envelope, status, detail string) error {
	if env.EventID == "" || status == "" {
		return errors.New("eventID/status required")
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO dispatch_log(event_id, event_name, status, detail, source_url)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (event_id, status) DO NOTHING
	`, env.EventID, string(env.EventName), status, detail, env.EventSourceURL)

	return err
}

// CountDispatches returns the number of logged outcomes for (eventName,
// status) in the half-open window [from,to), for reconciliation queries.
func (p *PostgresStore) CountDispatches(
	ctx context.Context,
	eventName string,
	status string,
	from time.Time,
	to time.Time,
) (int64, error) {

	var count int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM dispatch_log
		WHERE event_name=$1
		  AND status=$2
		  AND created_at >= $3
		  AND created_at <  $4
	`, eventName, status, from, to).Scan(&count)

	return count, err
}
