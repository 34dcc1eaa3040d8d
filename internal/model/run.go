package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// PhaseStatus represents the current state of a pipeline stage.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// RunInputs records which files and parameters a run was started with.
type RunInputs struct {
	Codification     string `json:"codification"`
	Roster           string `json:"roster"`
	Attendance       string `json:"attendance"`
	Detail           string `json:"detail,omitempty"`
	Manual           string `json:"manual,omitempty"`
	Classified       string `json:"classified,omitempty"`
	ToleranceMinutes int    `json:"tolerance_minutes"`
	AreaFilter       string `json:"area_filter,omitempty"`
}

// RunResult holds the final counts of a run.
type RunResult struct {
	CatalogEntries int            `json:"catalog_entries"`
	Workers        int            `json:"workers"`
	ScheduledDays  int            `json:"scheduled_days"`
	AttendanceRows int            `json:"attendance_rows"`
	Incidents      int            `json:"incidents"`
	ByKind         map[string]int `json:"by_kind,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Run is one recorded pipeline invocation.
type Run struct {
	ID        string     `json:"id"`
	Inputs    RunInputs  `json:"inputs"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunPhase is one recorded pipeline stage within a run.
type RunPhase struct {
	ID        string      `json:"id"`
	RunID     string      `json:"run_id"`
	Name      string      `json:"name"`
	Status    PhaseStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
	StartedAt time.Time   `json:"started_at"`
}
