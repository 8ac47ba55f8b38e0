package refdata

import (
	"io"

	"github.com/sells-group/tariff-cli/internal/model"
)

// CountryCodes is the reporter/partner country list. Each <country>
// element carries the numeric code and reporter/partner flags as
// attributes and the display name as a child element; the name is what
// gets embedded.
type CountryCodes struct{}

func (c *CountryCodes) Name() string  { return "country" }
func (c *CountryCodes) Table() string { return "country_code_vectors" }

func (c *CountryCodes) URL(base string) string {
	return base + "/wits/datasource/trn/country/ALL"
}

func (c *CountryCodes) ContentField() string { return "name" }

func (c *CountryCodes) Parse(r io.Reader) ([]model.ReferenceRecord, model.SchemaDescriptor, error) {
	return parseReference(r, "country", c.ContentField())
}
