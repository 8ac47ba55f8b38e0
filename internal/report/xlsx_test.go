package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/tariff-cli/internal/model"
)

func TestWriteXLSX(t *testing.T) {
	rate := 8.0
	res := &model.Resolution{
		ProductCode: "851830",
		Countries:   model.CountryCodes{Reporter: "076", Partner: "368"},
		ProductMatch: &model.CodeMatch{
			Text:  "Headphones, earphones and wireless earbuds",
			Score: 0.91,
		},
		Tariff: model.TariffResult{
			Rate: &rate,
			Trace: model.FallbackTrace{
				Events:  []model.TraceEvent{{Dimension: model.DimPartner, From: "368", To: "000"}},
				Notes:   []string{"zero rate observed for product 8518, partner 368"},
				LastURL: "https://wits.worldbank.org/API/V1/SDMX/V21/...",
			},
		},
	}
	req := model.ResolveRequest{Product: "wireless earbuds", Reporter: "Brazil", Partner: "Iraq", TargetYear: 2021}

	path := filepath.Join(t.TempDir(), "resolution.xlsx")
	require.NoError(t, WriteXLSX(path, req, res))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	summary := f.Sheets[0]
	assert.Equal(t, "Summary", summary.Name)
	assert.Equal(t, "Product code", summary.Rows[5].Cells[0].String())
	assert.Equal(t, "851830", summary.Rows[5].Cells[1].String())
	assert.Equal(t, "8", summary.Rows[8].Cells[1].String())

	trace := f.Sheets[1]
	assert.Equal(t, "Trace", trace.Name)
	assert.Equal(t, "relaxation", trace.Rows[1].Cells[0].String())
	assert.Equal(t, "partner", trace.Rows[1].Cells[1].String())
	assert.Equal(t, "note", trace.Rows[2].Cells[0].String())
}

func TestWriteXLSXNoRate(t *testing.T) {
	res := &model.Resolution{
		ProductCode: "851830",
		Countries:   model.CountryCodes{Reporter: "076", Partner: "000"},
	}
	req := model.ResolveRequest{Product: "earbuds", Reporter: "Brazil", Partner: "World", TargetYear: 2021}

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(path, req, res))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "no data", f.Sheets[0].Rows[8].Cells[1].String())
}
