// Package resolver turns free-text names into reference codes by semantic
// search over a built vector index.
package resolver

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tariff-cli/internal/embed"
	"github.com/sells-group/tariff-cli/internal/model"
	"github.com/sells-group/tariff-cli/internal/syscache"
	"github.com/sells-group/tariff-cli/internal/vecstore"
)

// CodeResolver searches one reference dataset. Every search first checks
// that the dataset's schema has been persisted: an index that was never
// built fails fast instead of returning an empty result that looks like
// "no match".
type CodeResolver struct {
	index vecstore.Index
	cache syscache.Cache
	table string
	embed embed.Func
	topK  int
}

// New builds a resolver over an index. topK is the default result count
// for searches that do not specify one.
func New(index vecstore.Index, cache syscache.Cache, table string, embedFn embed.Func, topK int) *CodeResolver {
	if topK <= 0 {
		topK = 1
	}
	return &CodeResolver{index: index, cache: cache, table: table, embed: embedFn, topK: topK}
}

// Table returns the dataset table this resolver searches.
func (r *CodeResolver) Table() string { return r.table }

// Search embeds the query and returns the closest records passing the
// filter, most similar first. Filter keys must exist in the dataset's
// schema. An unsynced dataset returns ErrNotInitialized.
func (r *CodeResolver) Search(ctx context.Context, query string, topK int, filter map[string]string) ([]model.CodeMatch, error) {
	schema, err := syscache.GetSchema(ctx, r.cache, r.table)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, eris.Wrapf(model.ErrNotInitialized, "dataset %s has not been synced", r.table)
	}

	for key := range filter {
		if !schema.Has(key) {
			return nil, eris.Errorf("resolver: filter column %q not in %s schema (have %v)", key, r.table, schema.Names())
		}
	}

	vec, err := r.embed(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "embed query %q", query)
	}

	if topK <= 0 {
		topK = r.topK
	}
	return r.index.Query(ctx, vec, topK, filter)
}
