// Package export writes analysis reports to external destinations.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/decklens/decklens-cli/pkg/deckapi"
)

// WriteScorecard writes the VC analytics scorecard for one deck to an XLSX
// file at path.
func WriteScorecard(path, deckID string, a *deckapi.Analytics) error {
	if a == nil {
		return eris.New("export: no analytics to write")
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Scorecard")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Deck", "Category", "Score", "Weight", "Rationale"} {
		header.AddCell().Value = h
	}

	for _, cat := range a.Categories {
		row := sheet.AddRow()
		row.AddCell().Value = deckID
		row.AddCell().Value = cat.Name
		row.AddCell().SetFloat(cat.Score)
		row.AddCell().SetFloat(cat.Weight)
		row.AddCell().Value = cat.Rationale
	}

	total := sheet.AddRow()
	total.AddCell().Value = deckID
	total.AddCell().Value = "Overall"
	total.AddCell().SetFloat(a.OverallScore)

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
