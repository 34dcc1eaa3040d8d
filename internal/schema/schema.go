// Package schema maps the free-form spreadsheet headers of the HR exports to
// canonical column names in a single pass at ingestion, so no synonym lists
// leak into the pipeline stages.
package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical column keys used by the pipeline stages.
const (
	ColWorkerID       = "worker_id"
	ColWorkerName     = "worker_name"
	ColArea           = "area"
	ColSupervisor     = "supervisor"
	ColShiftCode      = "shift_code"
	ColRangeText      = "range_text"
	ColEntryDate      = "entry_date"
	ColExitDate       = "exit_date"
	ColEntryTime      = "entry_time"
	ColExitTime       = "exit_time"
	ColDay            = "day"
	ColDeclaredShift  = "declared_shift"
	ColShiftDelta     = "shift_delta"
	ColIncidentKind   = "incident_kind"
	ColClassification = "classification"
)

// synonyms lists accepted headers per canonical column, diacritic- and
// case-insensitively. Earlier entries win when several headers match.
var synonyms = map[string][]string{
	ColWorkerID:       {"rut", "run", "dni", "documento", "id colaborador", "identificacion"},
	ColWorkerName:     {"nombre del colaborador", "nombre colaborador", "nombre", "colaborador", "trabajador"},
	ColArea:           {"area", "area de trabajo", "centro de costo"},
	ColSupervisor:     {"supervisor", "jefatura", "jefe directo"},
	ColShiftCode:      {"sigla", "codigo turno", "codigo", "cod turno"},
	ColRangeText:      {"horario", "rango horario", "horario turno"},
	ColEntryDate:      {"fecha entrada", "fecha ingreso"},
	ColExitDate:       {"fecha salida", "fecha egreso"},
	ColEntryTime:      {"hora entrada", "hora ingreso"},
	ColExitTime:       {"hora salida", "hora egreso"},
	ColDay:            {"dia", "fecha"},
	ColDeclaredShift:  {"turno", "turno declarado"},
	ColShiftDelta:     {"diferencia turno real", "diferencia turno", "dif turno real"},
	ColIncidentKind:   {"tipo incidencia", "tipo de incidencia"},
	ColClassification: {"comprobacion incidencia", "comprobacion de incidencia"},
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases, trims, strips diacritics, and collapses interior runs of
// whitespace, making "Área " match "area".
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// NormalizeWorkerID applies the worker-identifier normalization rule used at
// every join boundary: trim, uppercase, strip periods and interior spaces.
// Hyphens are preserved ("12.345.678-9" and "12345678-9" normalize equal).
func NormalizeWorkerID(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, " ", "")
}

// Mapping resolves canonical column keys to positions in one table's header.
type Mapping struct {
	cols map[string]int
}

// BuildMapping matches a header row against the synonym table plus caller
// overrides (canonical key -> exact header as written). The first header
// matching a canonical column claims it.
func BuildMapping(headers []string, overrides map[string]string) Mapping {
	m := Mapping{cols: make(map[string]int)}

	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = Fold(h)
	}

	for key, override := range overrides {
		want := Fold(override)
		for i, h := range folded {
			if h == want {
				m.cols[key] = i
				break
			}
		}
	}

	for key, names := range synonyms {
		if _, done := m.cols[key]; done {
			continue
		}
	match:
		for _, name := range names {
			for i, h := range folded {
				if h == name {
					m.cols[key] = i
					break match
				}
			}
		}
	}

	return m
}

// Index returns the header position of a canonical column.
func (m Mapping) Index(key string) (int, bool) {
	i, ok := m.cols[key]
	return i, ok
}

// Has reports whether the table carries a canonical column.
func (m Mapping) Has(key string) bool {
	_, ok := m.cols[key]
	return ok
}

// Cell reads a canonical column from one row, empty when the column is absent
// or the row is short.
func (m Mapping) Cell(row []string, key string) string {
	i, ok := m.cols[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
