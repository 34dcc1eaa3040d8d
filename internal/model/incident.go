package model

import "time"

// IncidentKind is the detected deviation type. The values are the exact
// labels written to the report and are part of the output contract.
type IncidentKind string

const (
	KindMissingEntry IncidentKind = "Sin marcaje entrada"
	KindMissingExit  IncidentKind = "Sin marcaje salida"
	KindLateEntry    IncidentKind = "Entrada tardía"
	KindEarlyExit    IncidentKind = "Salida anticipada"
	KindShiftDelta   IncidentKind = "Diferencia turno real"
)

// Classification labels for the reviewer-edited column. Every detected
// incident starts as ClassUndefined; the pipeline never resolves one itself.
const (
	ClassUndefined   = "Indefinido"
	ClassApplies     = "Procede"
	ClassShiftChange = "No procede/Cambio turno"
)

// DefaultLabels is the canonical closed set for the classification column.
func DefaultLabels() []string {
	return []string{ClassUndefined, ClassApplies, ClassShiftChange}
}

// Incident is a detected deviation between a worker's expected and actual
// clock-in/out on a scheduled day.
type Incident struct {
	Worker         string
	Date           time.Time
	RawToken       string // the scheduled shift as written in the roster
	ExpectedEntry  time.Time
	ExpectedExit   time.Time
	ActualEntry    *time.Time
	ActualExit     *time.Time
	Kind           IncidentKind
	Classification string
}
