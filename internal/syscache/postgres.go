package syscache

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/tariff-cli/internal/db"
)

// PostgresCache implements Cache on a pgx pool.
type PostgresCache struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres wraps a pool. closeFn may be nil when the pool's lifecycle is
// owned elsewhere.
func NewPostgres(pool db.Pool, closeFn func()) *PostgresCache {
	return &PostgresCache{pool: pool, closeFn: closeFn}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS system_settings (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (c *PostgresCache) Migrate(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "syscache: migrate")
}

func (c *PostgresCache) Close() error {
	if c.closeFn != nil {
		c.closeFn()
	}
	return nil
}

func (c *PostgresCache) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.pool.QueryRow(ctx,
		`SELECT value FROM system_settings WHERE key = $1`, key,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "syscache: get %s", key)
	}
	return value, nil
}

func (c *PostgresCache) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO system_settings (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	return eris.Wrapf(err, "syscache: put %s", key)
}

func (c *PostgresCache) Delete(ctx context.Context, key string) error {
	_, err := c.pool.Exec(ctx,
		`DELETE FROM system_settings WHERE key = $1`, key,
	)
	return eris.Wrapf(err, "syscache: delete %s", key)
}
