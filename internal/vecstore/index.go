// Package vecstore implements the semantic code index: nearest-neighbor
// search over embedded reference rows with attribute equality filters.
// Filters are applied in SQL before ranking, never as a post-filter on an
// already-truncated top-K.
package vecstore

import (
	"context"
	"regexp"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tariff-cli/internal/embed"
	"github.com/sells-group/tariff-cli/internal/model"
)

// Index is the code-index storage contract. Rebuild replaces all content
// atomically: readers observe either the old complete index or the new
// one, never a partial state. Query ranks only rows passing the filter,
// deterministically for identical inputs.
type Index interface {
	Rebuild(ctx context.Context, records []model.ReferenceRecord, schema model.SchemaDescriptor) error
	Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]model.CodeMatch, error)
	Drop(ctx context.Context) error
}

// identRe vets table and attribute names interpolated into SQL. Filter
// values are always bound parameters; only names pass through here.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return eris.Errorf("vecstore: invalid identifier %q", name)
	}
	return nil
}

func checkFilter(filter map[string]string) error {
	for k := range filter {
		if err := checkIdent(k); err != nil {
			return err
		}
	}
	return nil
}

// candidate is a filtered row awaiting ranking.
type candidate struct {
	id      string
	content string
	attrs   map[string]string
	vector  []float32
}

// rank orders candidates by descending cosine similarity to the query
// vector, breaking ties by row id so results are stable, and truncates to
// topK.
func rank(queryVec []float32, cands []candidate, topK int) []model.CodeMatch {
	type scored struct {
		candidate
		score float64
	}
	rows := make([]scored, 0, len(cands))
	for _, c := range cands {
		rows = append(rows, scored{candidate: c, score: embed.Cosine(queryVec, c.vector)})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].id < rows[j].id
	})

	if topK > 0 && len(rows) > topK {
		rows = rows[:topK]
	}

	out := make([]model.CodeMatch, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.CodeMatch{Text: r.content, Attributes: r.attrs, Score: r.score})
	}
	return out
}
