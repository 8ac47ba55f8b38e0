// Package refdata manages the reference datasets behind the code
// resolvers: the product classification and country code lists published
// by the primary trade-data source. Each dataset knows how to locate and
// parse its upstream document; the Syncer turns that into a rebuilt
// vector index.
package refdata

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tariff-cli/internal/model"
)

// Source defines one reference dataset.
type Source interface {
	// Name is the unique identifier used on the CLI and HTTP surface.
	Name() string

	// Table is the vector-index table the dataset loads into. It doubles
	// as the schema key in the system cache.
	Table() string

	// URL returns the upstream document location under the source base URL.
	URL(base string) string

	// ContentField names the parsed attribute whose text is embedded.
	ContentField() string

	// Parse reads the upstream document into records plus the attribute
	// schema observed in it.
	Parse(r io.Reader) ([]model.ReferenceRecord, model.SchemaDescriptor, error)
}

// Registry maps dataset names to their implementations, preserving
// registration order for deterministic listings.
type Registry struct {
	sources map[string]Source
	order   []string
}

// NewRegistry returns a registry populated with every reference dataset.
func NewRegistry() *Registry {
	r := &Registry{sources: make(map[string]Source)}
	r.Register(&HSCodes{})
	r.Register(&CountryCodes{})
	return r
}

// Register adds a dataset to the registry.
func (r *Registry) Register(s Source) {
	name := s.Name()
	r.sources[name] = s
	r.order = append(r.order, name)
}

// Get returns a dataset by name.
func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, eris.Errorf("refdata: unknown dataset %q", name)
	}
	return s, nil
}

// All returns every dataset in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sources[name])
	}
	return out
}

// AllNames returns registered dataset names in registration order.
func (r *Registry) AllNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
