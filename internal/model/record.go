package model

// ReferenceRecord is one embedded entity in a code index: the text that gets
// embedded plus auxiliary attributes usable as equality filters. Text is
// immutable once indexed; changing reference content requires a full
// rebuild.
type ReferenceRecord struct {
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Column describes one attribute of a code index.
type Column struct {
	Name     string `json:"name"`
	Nullable bool   `json:"nullable"`
}

// SchemaDescriptor is the ordered attribute schema of a code index. It is
// persisted in the metadata cache when the index is built; its absence means
// the index has never been built and must not be queried.
type SchemaDescriptor struct {
	Columns []Column `json:"columns"`
}

// Has reports whether the schema contains an attribute with the given name.
func (s SchemaDescriptor) Has(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Names returns the attribute names in schema order.
func (s SchemaDescriptor) Names() []string {
	names := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	return names
}

// CodeMatch is one resolver hit: the matched reference text, its attributes,
// and a similarity score where higher means closer.
type CodeMatch struct {
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Score      float64           `json:"score"`
}
