package vecstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-cli/internal/db"
	"github.com/sells-group/tariff-cli/internal/embed"
	"github.com/sells-group/tariff-cli/internal/model"
	"github.com/sells-group/tariff-cli/internal/syscache"
)

// PostgresIndex mirrors SQLiteIndex on a shared Postgres: attributes live
// in a JSONB column filtered with ->>, embeddings in BYTEA. Rebuild bulk
// loads rows with COPY inside a transaction.
type PostgresIndex struct {
	pool  db.Pool
	cache syscache.Cache
	table string
	embed embed.Func
}

func NewPostgres(pool db.Pool, cache syscache.Cache, table string, embedFn embed.Func) (*PostgresIndex, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	return &PostgresIndex{pool: pool, cache: cache, table: table, embed: embedFn}, nil
}

func (p *PostgresIndex) Rebuild(ctx context.Context, records []model.ReferenceRecord, schema model.SchemaDescriptor) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "begin rebuild")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		attrs JSONB NOT NULL,
		embedding BYTEA NOT NULL
	)`, p.table)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return eris.Wrapf(err, "create table %s", p.table)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", p.table)); err != nil {
		return eris.Wrapf(err, "clear table %s", p.table)
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		vec, err := p.embed(ctx, rec.Text)
		if err != nil {
			return eris.Wrapf(err, "embed %q", rec.Text)
		}
		attrs, err := json.Marshal(rec.Attributes)
		if err != nil {
			return eris.Wrap(err, "marshal attrs")
		}
		rows = append(rows, []any{uuid.NewString(), rec.Text, attrs, embed.EncodeVector(vec)})
	}
	if _, err := db.CopyFrom(ctx, tx, p.table, []string{"id", "content", "attrs", "embedding"}, rows); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "commit rebuild")
	}
	if err := syscache.PutSchema(ctx, p.cache, p.table, schema); err != nil {
		return err
	}
	zap.S().Infow("index rebuilt", "table", p.table, "rows", len(records))
	return nil
}

func (p *PostgresIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]model.CodeMatch, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT id, content, attrs, embedding FROM %s", p.table)
	var (
		conds []string
		args  []any
	)
	for k, v := range filter {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("attrs->>'%s' = $%d", k, len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, eris.Wrapf(model.ErrNotInitialized, "table %s", p.table)
		}
		return nil, eris.Wrapf(err, "query %s", p.table)
	}
	defer rows.Close()

	var cands []candidate
	for rows.Next() {
		var (
			c     candidate
			attrs []byte
			blob  []byte
		)
		if err := rows.Scan(&c.id, &c.content, &attrs, &blob); err != nil {
			return nil, eris.Wrap(err, "scan row")
		}
		if err := json.Unmarshal(attrs, &c.attrs); err != nil {
			return nil, eris.Wrap(err, "unmarshal attrs")
		}
		c.vector, err = embed.DecodeVector(blob)
		if err != nil {
			return nil, eris.Wrapf(err, "decode embedding for %s", c.id)
		}
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate rows")
	}

	return rank(vector, cands, topK), nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

func (p *PostgresIndex) Drop(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", p.table)); err != nil {
		return eris.Wrapf(err, "drop table %s", p.table)
	}
	if err := p.cache.Delete(ctx, p.table); err != nil {
		return err
	}
	zap.S().Infow("index dropped", "table", p.table)
	return nil
}
