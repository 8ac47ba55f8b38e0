// Package embed defines the pluggable text→vector function used by the
// code indexes. The model itself is a black box: anything deterministic
// that maps equal inputs to equal fixed-length vectors satisfies the
// contract.
package embed

import "context"

// Func embeds a single text into a fixed-length vector. Implementations
// must be deterministic for identical input.
type Func func(ctx context.Context, text string) ([]float32, error)
