// Package syscache is the durable key→JSON metadata cache. Its main job is
// remembering each code index's attribute schema across process restarts:
// a resolver whose schema key is absent has never been built and must not
// be queried.
package syscache

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tariff-cli/internal/model"
)

// Cache defines the durable key-value mapping. Get returns (nil, nil) when
// the key is absent; Put upserts.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	Migrate(ctx context.Context) error
	Close() error
}

// GetSchema loads a persisted schema descriptor. Absence is reported as
// (nil, nil), leaving the not-initialized decision to the caller.
func GetSchema(ctx context.Context, c Cache, key string) (*model.SchemaDescriptor, error) {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var schema model.SchemaDescriptor
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, eris.Wrapf(err, "syscache: unmarshal schema %s", key)
	}
	return &schema, nil
}

// PutSchema persists a schema descriptor under the given key.
func PutSchema(ctx context.Context, c Cache, key string, schema model.SchemaDescriptor) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return eris.Wrapf(err, "syscache: marshal schema %s", key)
	}
	return c.Put(ctx, key, raw)
}
