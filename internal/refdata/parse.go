package refdata

import (
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tariff-cli/internal/fetcher"
	"github.com/sells-group/tariff-cli/internal/model"
)

// witsElement captures one record element from the reference XML without
// committing to a fixed shape: the upstream documents carry some fields as
// attributes and others as child elements, and both end up in the record's
// attribute map.
type witsElement struct {
	Attrs    []xml.Attr  `xml:",any,attr"`
	Children []witsChild `xml:",any"`
}

type witsChild struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

// parseReference streams every element with the given local name out of a
// reference document, flattening attributes and child elements into each
// record's attribute map. The schema lists attribute names in order of
// first appearance across the whole document.
func parseReference(r io.Reader, element, contentField string) ([]model.ReferenceRecord, model.SchemaDescriptor, error) {
	ctx := context.Background()
	elems, errs := fetcher.StreamXML[witsElement](ctx, r, element)

	var (
		records []model.ReferenceRecord
		schema  model.SchemaDescriptor
		seen    = make(map[string]bool)
	)
	note := func(name string) {
		if !seen[name] {
			seen[name] = true
			schema.Columns = append(schema.Columns, model.Column{Name: name, Nullable: true})
		}
	}

	for el := range elems {
		attrs := make(map[string]string, len(el.Attrs)+len(el.Children))
		for _, a := range el.Attrs {
			name := strings.ToLower(a.Name.Local)
			attrs[name] = a.Value
			note(name)
		}
		for _, c := range el.Children {
			name := strings.ToLower(c.XMLName.Local)
			attrs[name] = strings.TrimSpace(c.Text)
			note(name)
		}

		text := attrs[contentField]
		if text == "" {
			continue
		}
		records = append(records, model.ReferenceRecord{Text: text, Attributes: attrs})
	}
	if err := <-errs; err != nil {
		return nil, model.SchemaDescriptor{}, err
	}
	if len(records) == 0 {
		return nil, model.SchemaDescriptor{}, eris.Errorf("refdata: no %s records in document", element)
	}

	return records, schema, nil
}
