package refdata

import (
	"io"

	"github.com/sells-group/tariff-cli/internal/model"
)

// HSCodes is the harmonized-system product classification list. The
// upstream document is one <product> element per code with the code as an
// attribute and the description as a child element; the description text
// is what gets embedded.
type HSCodes struct{}

func (h *HSCodes) Name() string  { return "hs" }
func (h *HSCodes) Table() string { return "hs_code_vectors" }

func (h *HSCodes) URL(base string) string {
	return base + "/wits/datasource/trn/product/all"
}

func (h *HSCodes) ContentField() string { return "productdescription" }

func (h *HSCodes) Parse(r io.Reader) ([]model.ReferenceRecord, model.SchemaDescriptor, error) {
	return parseReference(r, "product", h.ContentField())
}
