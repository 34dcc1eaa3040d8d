package pipeline

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/andes-hr/asistencia-cli/internal/fetcher"
	"github.com/andes-hr/asistencia-cli/internal/model"
	"github.com/andes-hr/asistencia-cli/internal/schema"
)

// BuildCatalog parses the shift codification table into the code lookup.
// Missing code or range columns are a configuration error: nothing downstream
// can run without the catalog.
func BuildCatalog(t *fetcher.Table, m schema.Mapping) (*model.Catalog, error) {
	if !m.Has(schema.ColShiftCode) {
		return nil, eris.Errorf("codification table %s: shift code column (Sigla) not found", t.Source)
	}
	if !m.Has(schema.ColRangeText) {
		return nil, eris.Errorf("codification table %s: shift range column (Horario) not found", t.Source)
	}

	var entries []model.CatalogEntry
	for _, row := range t.Rows {
		code := m.Cell(row, schema.ColShiftCode)
		if code == "" {
			continue
		}
		rangeText := m.Cell(row, schema.ColRangeText)
		entries = append(entries, model.CatalogEntry{
			Code:      code,
			NormCode:  strings.ToUpper(code),
			RangeText: rangeText,
			Range:     ParseShiftRange(rangeText),
		})
	}

	return model.NewCatalog(entries), nil
}
