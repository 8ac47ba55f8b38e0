package vecstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-cli/internal/embed"
	"github.com/sells-group/tariff-cli/internal/model"
	"github.com/sells-group/tariff-cli/internal/syscache"
)

// SQLiteIndex stores one table per reference dataset: row id, content
// text, attributes as a JSON document filtered with json_extract, and the
// embedding as a little-endian float32 blob.
type SQLiteIndex struct {
	db    *sql.DB
	cache syscache.Cache
	table string
	embed embed.Func
}

func NewSQLite(db *sql.DB, cache syscache.Cache, table string, embedFn embed.Func) (*SQLiteIndex, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	return &SQLiteIndex{db: db, cache: cache, table: table, embed: embedFn}, nil
}

func (s *SQLiteIndex) Rebuild(ctx context.Context, records []model.ReferenceRecord, schema model.SchemaDescriptor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin rebuild")
	}
	defer tx.Rollback() //nolint:errcheck

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		attrs TEXT NOT NULL,
		embedding BLOB NOT NULL
	)`, s.table)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return eris.Wrapf(err, "create table %s", s.table)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return eris.Wrapf(err, "clear table %s", s.table)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, content, attrs, embedding) VALUES (?, ?, ?, ?)", s.table))
	if err != nil {
		return eris.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for _, rec := range records {
		vec, err := s.embed(ctx, rec.Text)
		if err != nil {
			return eris.Wrapf(err, "embed %q", rec.Text)
		}
		attrs, err := json.Marshal(rec.Attributes)
		if err != nil {
			return eris.Wrap(err, "marshal attrs")
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), rec.Text, string(attrs), embed.EncodeVector(vec)); err != nil {
			return eris.Wrapf(err, "insert into %s", s.table)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "commit rebuild")
	}
	// Schema is recorded only after the data commit succeeds. A failure
	// here leaves the table populated but unreadable through the
	// resolver, which treats a missing schema as uninitialized.
	if err := syscache.PutSchema(ctx, s.cache, s.table, schema); err != nil {
		return err
	}
	zap.S().Infow("index rebuilt", "table", s.table, "rows", len(records))
	return nil
}

func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]model.CodeMatch, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT id, content, attrs, embedding FROM %s", s.table)
	var (
		conds []string
		args  []any
	)
	for k, v := range filter {
		conds = append(conds, fmt.Sprintf("json_extract(attrs, '$.%s') = ?", k))
		args = append(args, v)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, eris.Wrapf(model.ErrNotInitialized, "table %s", s.table)
		}
		return nil, eris.Wrapf(err, "query %s", s.table)
	}
	defer rows.Close()

	var cands []candidate
	for rows.Next() {
		var (
			c         candidate
			attrsJSON string
			blob      []byte
		)
		if err := rows.Scan(&c.id, &c.content, &attrsJSON, &blob); err != nil {
			return nil, eris.Wrap(err, "scan row")
		}
		if err := json.Unmarshal([]byte(attrsJSON), &c.attrs); err != nil {
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

func (s *SQLiteIndex) Drop(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", s.table)); err != nil {
		return eris.Wrapf(err, "drop table %s", s.table)
	}
	if err := s.cache.Delete(ctx, s.table); err != nil {
		return err
	}
	zap.S().Infow("index dropped", "table", s.table)
	return nil
}
