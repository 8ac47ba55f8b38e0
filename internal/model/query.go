package model

// WorldPartner is the partner code for the world aggregate: a
// partner-independent tariff figure reported against "all partners".
const WorldPartner = "000"

// TariffQuery identifies a single tariff lookup against the primary source.
// Reporter and Partner are 3-digit country codes; ProductCode is a 2-, 4- or
// 6-digit classification code. Immutable once constructed.
type TariffQuery struct {
	Reporter    string `json:"reporter"`
	Partner     string `json:"partner"`
	ProductCode string `json:"product_code"`
	TargetYear  int    `json:"target_year"`
}

// WantsWorld reports whether the query already targets the world aggregate.
func (q TariffQuery) WantsWorld() bool {
	return q.Partner == WorldPartner
}

// Dimension names an axis the cascade may relax.
type Dimension string

const (
	DimYear        Dimension = "year"
	DimPartner     Dimension = "partner"
	DimGranularity Dimension = "granularity"
)

// TraceEvent records one substitution the cascade made: the dimension
// relaxed, the requested value, and the value actually used.
type TraceEvent struct {
	Dimension Dimension `json:"dimension"`
	From      string    `json:"from"`
	To        string    `json:"to"`
}

// FallbackTrace is the auditable record of a cascade run. An empty Events
// slice means the exact requested combination was served. Notes carry
// zero-rate observations, cross-reference outcomes, and the final-selection
// rationale. LastURL is the last query attempted against a data source,
// kept for debugging whether or not the run succeeded.
type FallbackTrace struct {
	Events  []TraceEvent `json:"events,omitempty"`
	Notes   []string     `json:"notes,omitempty"`
	LastURL string       `json:"last_url,omitempty"`
}

// Relax appends a relaxation event.
func (t *FallbackTrace) Relax(dim Dimension, from, to string) {
	t.Events = append(t.Events, TraceEvent{Dimension: dim, From: from, To: to})
}

// Note appends a free-form trace note.
func (t *FallbackTrace) Note(s string) {
	t.Notes = append(t.Notes, s)
}

// Relaxed reports whether the given dimension was relaxed.
func (t *FallbackTrace) Relaxed(dim Dimension) bool {
	for _, e := range t.Events {
		if e.Dimension == dim {
			return true
		}
	}
	return false
}

// TariffResult is the cascade output. Rate is nil only when every
// relaxation was exhausted without finding data; the trace then explains
// what was attempted.
type TariffResult struct {
	Rate  *float64      `json:"rate,omitempty"`
	Trace FallbackTrace `json:"trace"`
}
