package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Local returns a deterministic bag-of-tokens embedder: each lowercased
// token is hashed into one of dims buckets and the bucket counts are
// L2-normalized. It has no notion of semantics beyond shared vocabulary,
// which is enough for offline use and for reproducible tests; production
// deployments configure a remote embedding model instead.
func Local(dims int) Func {
	if dims <= 0 {
		dims = 256
	}
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, dims)
		for _, tok := range tokenize(text) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(tok))
			vec[int(h.Sum32())%dims]++
		}

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm > 0 {
			inv := 1 / math.Sqrt(norm)
			for i := range vec {
				vec[i] = float32(float64(vec[i]) * inv)
			}
		}
		return vec, nil
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
