package refdata

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/sells-group/tariff-cli/internal/embed"
	"github.com/sells-group/tariff-cli/internal/syscache"
	"github.com/sells-group/tariff-cli/internal/vecstore"
)

// stubFetcher serves canned bodies by URL.
type stubFetcher struct {
	bodies map[string]string
	urls   []string
}

func (f *stubFetcher) Download(_ context.Context, url string) (io.ReadCloser, error) {
	f.urls = append(f.urls, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *stubFetcher) Get(_ context.Context, url string, _ map[string]string) (int, io.ReadCloser, error) {
	return 0, nil, io.ErrUnexpectedEOF
}

func newTestSyncer(t *testing.T, fetch *stubFetcher) (*Syncer, syscache.Cache) {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	cache := syscache.NewSQLiteFromDB(conn)
	require.NoError(t, cache.Migrate(context.Background()))

	reg := NewRegistry()
	indexes := make(map[string]vecstore.Index)
	for _, src := range reg.All() {
		idx, err := vecstore.NewSQLite(conn, cache, src.Table(), embed.Local(64))
		require.NoError(t, err)
		indexes[src.Name()] = idx
	}

	return NewSyncer(reg, fetch, cache, indexes, "https://wits.worldbank.org/API/V1"), cache
}

func TestSyncerSync(t *testing.T) {
	url := "https://wits.worldbank.org/API/V1/wits/datasource/trn/country/ALL"
	fetch := &stubFetcher{bodies: map[string]string{url: countryXML}}
	syncer, _ := newTestSyncer(t, fetch)
	ctx := context.Background()

	n, err := syncer.Sync(ctx, "country")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{url}, fetch.urls)

	schema, err := syncer.Status(ctx, "country")
	require.NoError(t, err)
	require.NotNil(t, schema)
	assert.True(t, schema.Has("isreporter"))
}

func TestSyncerSyncUnknownDataset(t *testing.T) {
	syncer, _ := newTestSyncer(t, &stubFetcher{})

	_, err := syncer.Sync(context.Background(), "bogus")
	assert.Error(t, err)
}

func TestSyncerSyncFetchFailure(t *testing.T) {
	syncer, _ := newTestSyncer(t, &stubFetcher{bodies: map[string]string{}})

	_, err := syncer.Sync(context.Background(), "hs")
	assert.Error(t, err)
}

func TestSyncerStatusNeverSynced(t *testing.T) {
	syncer, _ := newTestSyncer(t, &stubFetcher{})

	schema, err := syncer.Status(context.Background(), "hs")
	require.NoError(t, err)
	assert.Nil(t, schema)
}

func TestSyncerDrop(t *testing.T) {
	url := "https://wits.worldbank.org/API/V1/wits/datasource/trn/product/all"
	fetch := &stubFetcher{bodies: map[string]string{url: productXML}}
	syncer, _ := newTestSyncer(t, fetch)
	ctx := context.Background()

	_, err := syncer.Sync(ctx, "hs")
	require.NoError(t, err)
	require.NoError(t, syncer.Drop(ctx, "hs"))

	schema, err := syncer.Status(ctx, "hs")
	require.NoError(t, err)
	assert.Nil(t, schema)
}
