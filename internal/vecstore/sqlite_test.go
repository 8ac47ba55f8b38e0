package vecstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/sells-group/tariff-cli/internal/embed"
	"github.com/sells-group/tariff-cli/internal/model"
	"github.com/sells-group/tariff-cli/internal/syscache"
)

func newTestIndex(t *testing.T) (*SQLiteIndex, syscache.Cache) {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	cache := syscache.NewSQLiteFromDB(conn)
	require.NoError(t, cache.Migrate(context.Background()))

	idx, err := NewSQLite(conn, cache, "hs_code_vectors", embed.Local(64))
	require.NoError(t, err)
	return idx, cache
}

var hsRecords = []model.ReferenceRecord{
	{Text: "Headphones and earphones, wireless earbuds", Attributes: map[string]string{"productcode": "851830"}},
	{Text: "Live bovine animals", Attributes: map[string]string{"productcode": "010200"}},
	{Text: "Telephone sets, smartphones", Attributes: map[string]string{"productcode": "851712"}},
}

var hsSchema = model.SchemaDescriptor{
	Columns: []model.Column{{Name: "productcode"}},
}

func TestRebuildThenQueryRanksBySimilarity(t *testing.T) {
	idx, cache := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Rebuild(ctx, hsRecords, hsSchema))

	embedFn := embed.Local(64)
	vec, err := embedFn(ctx, "wireless earbuds headphones")
	require.NoError(t, err)

	matches, err := idx.Query(ctx, vec, 3, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "851830", matches[0].Attributes["productcode"])
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}

	schema, err := syscache.GetSchema(ctx, cache, "hs_code_vectors")
	require.NoError(t, err)
	require.NotNil(t, schema)
	assert.True(t, schema.Has("productcode"))
}

func TestQueryTopKTruncates(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Rebuild(ctx, hsRecords, hsSchema))

	vec, err := embed.Local(64)(ctx, "animals")
	require.NoError(t, err)

	matches, err := idx.Query(ctx, vec, 1, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestQueryFilterAppliedBeforeRanking(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	records := []model.ReferenceRecord{
		{Text: "United States of America", Attributes: map[string]string{"countrycode": "840", "isreporter": "1"}},
		{Text: "United Arab Emirates", Attributes: map[string]string{"countrycode": "784", "isreporter": "0"}},
		{Text: "United Kingdom", Attributes: map[string]string{"countrycode": "826", "isreporter": "1"}},
	}
	schema := model.SchemaDescriptor{Columns: []model.Column{
		{Name: "countrycode"}, {Name: "isreporter"},
	}}
	require.NoError(t, idx.Rebuild(ctx, records, schema))

	vec, err := embed.Local(64)(ctx, "united arab emirates")
	require.NoError(t, err)

	// With topK=1 and no filter the non-reporter row wins, so a
	// post-filter would return nothing. Filtering first must still
	// surface the best reporter row.
	matches, err := idx.Query(ctx, vec, 1, map[string]string{"isreporter": "1"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "1", matches[0].Attributes["isreporter"])
}

func TestQueryRejectsInvalidFilterKey(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Rebuild(ctx, hsRecords, hsSchema))

	_, err := idx.Query(ctx, make([]float32, 64), 1, map[string]string{"x'; DROP TABLE": "1"})
	assert.Error(t, err)
}

func TestRebuildReplacesPreviousContent(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Rebuild(ctx, hsRecords, hsSchema))

	replacement := []model.ReferenceRecord{
		{Text: "Coffee, not roasted", Attributes: map[string]string{"productcode": "090111"}},
	}
	require.NoError(t, idx.Rebuild(ctx, replacement, hsSchema))

	vec, err := embed.Local(64)(ctx, "coffee")
	require.NoError(t, err)

	matches, err := idx.Query(ctx, vec, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "090111", matches[0].Attributes["productcode"])
}

func TestDropRemovesTableAndSchema(t *testing.T) {
	idx, cache := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Rebuild(ctx, hsRecords, hsSchema))
	require.NoError(t, idx.Drop(ctx))

	schema, err := syscache.GetSchema(ctx, cache, "hs_code_vectors")
	require.NoError(t, err)
	assert.Nil(t, schema)

	_, err = idx.Query(ctx, make([]float32, 64), 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotInitialized)
}

func TestQueryBeforeFirstRebuild(t *testing.T) {
	idx, _ := newTestIndex(t)

	_, err := idx.Query(context.Background(), make([]float32, 64), 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotInitialized)
}
