// Package report exports resolutions to spreadsheet workbooks for
// sharing outside the CLI.
package report

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/tariff-cli/internal/model"
)

// WriteXLSX writes a resolution to an .xlsx workbook with two sheets: a
// summary of the resolved codes and rate, and the full fallback trace.
func WriteXLSX(path string, req model.ResolveRequest, res *model.Resolution) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	writeRow(summary, "Field", "Value")
	writeRow(summary, "Product", req.Product)
	writeRow(summary, "Reporter", req.Reporter)
	writeRow(summary, "Partner", req.Partner)
	writeRow(summary, "Target year", fmt.Sprintf("%d", req.TargetYear))
	writeRow(summary, "Product code", res.ProductCode)
	writeRow(summary, "Reporter code", res.Countries.Reporter)
	writeRow(summary, "Partner code", res.Countries.Partner)
	writeRow(summary, "Tariff rate", rateString(res.Tariff.Rate))
	if res.ProductMatch != nil {
		writeRow(summary, "Product match", res.ProductMatch.Text)
		writeRow(summary, "Product score", fmt.Sprintf("%.4f", res.ProductMatch.Score))
	}

	trace, err := f.AddSheet("Trace")
	if err != nil {
		return eris.Wrap(err, "report: add trace sheet")
	}
	writeRow(trace, "Kind", "Detail", "From", "To")
	for _, ev := range res.Tariff.Trace.Events {
		writeRow(trace, "relaxation", string(ev.Dimension), ev.From, ev.To)
	}
	for _, note := range res.Tariff.Trace.Notes {
		writeRow(trace, "note", note, "", "")
	}
	if res.Tariff.Trace.LastURL != "" {
		writeRow(trace, "last url", res.Tariff.Trace.LastURL, "", "")
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func writeRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func rateString(rate *float64) string {
	if rate == nil {
		return "no data"
	}
	return fmt.Sprintf("%g", *rate)
}
