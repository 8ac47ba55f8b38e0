package refdata

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-cli/internal/fetcher"
	"github.com/sells-group/tariff-cli/internal/model"
	"github.com/sells-group/tariff-cli/internal/syscache"
	"github.com/sells-group/tariff-cli/internal/vecstore"
)

// Syncer downloads reference documents and rebuilds the corresponding
// vector indexes. Rebuilds are serialized per dataset; concurrent Sync
// calls for the same dataset queue up rather than interleave.
type Syncer struct {
	registry *Registry
	fetch    fetcher.Fetcher
	cache    syscache.Cache
	indexes  map[string]vecstore.Index
	baseURL  string
	locks    map[string]*sync.Mutex
}

func NewSyncer(registry *Registry, fetch fetcher.Fetcher, cache syscache.Cache, indexes map[string]vecstore.Index, baseURL string) *Syncer {
	locks := make(map[string]*sync.Mutex, len(registry.AllNames()))
	for _, name := range registry.AllNames() {
		locks[name] = &sync.Mutex{}
	}
	return &Syncer{
		registry: registry,
		fetch:    fetch,
		cache:    cache,
		indexes:  indexes,
		baseURL:  baseURL,
		locks:    locks,
	}
}

// Sync fetches, parses, and rebuilds one dataset, returning the number of
// records loaded.
func (s *Syncer) Sync(ctx context.Context, name string) (int, error) {
	src, err := s.registry.Get(name)
	if err != nil {
		return 0, err
	}
	idx, ok := s.indexes[name]
	if !ok {
		return 0, eris.Errorf("refdata: no index wired for dataset %q", name)
	}

	s.locks[name].Lock()
	defer s.locks[name].Unlock()

	url := src.URL(s.baseURL)
	body, err := s.fetch.Download(ctx, url)
	if err != nil {
		return 0, eris.Wrapf(model.ErrSourceUnavailable, "fetch %s: %s", name, err)
	}
	defer body.Close()

	records, schema, err := src.Parse(body)
	if err != nil {
		return 0, eris.Wrapf(err, "parse %s", name)
	}

	if err := idx.Rebuild(ctx, records, schema); err != nil {
		return 0, eris.Wrapf(err, "rebuild %s", name)
	}

	zap.S().Infow("reference dataset synced", "dataset", name, "rows", len(records))
	return len(records), nil
}

// Status returns the persisted schema for a dataset, or nil when it has
// never been synced.
func (s *Syncer) Status(ctx context.Context, name string) (*model.SchemaDescriptor, error) {
	src, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return syscache.GetSchema(ctx, s.cache, src.Table())
}

// Drop removes a dataset's index and schema.
func (s *Syncer) Drop(ctx context.Context, name string) error {
	if _, err := s.registry.Get(name); err != nil {
		return err
	}
	idx, ok := s.indexes[name]
	if !ok {
		return eris.Errorf("refdata: no index wired for dataset %q", name)
	}

	s.locks[name].Lock()
	defer s.locks[name].Unlock()

	return idx.Drop(ctx)
}
