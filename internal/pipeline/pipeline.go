// Package pipeline implements the shift-normalization and incidence-detection
// stages: catalog build, roster expansion, attendance normalization, incident
// detection, and report aggregation.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andes-hr/asistencia-cli/internal/config"
	"github.com/andes-hr/asistencia-cli/internal/fetcher"
	"github.com/andes-hr/asistencia-cli/internal/model"
	"github.com/andes-hr/asistencia-cli/internal/schema"
	"github.com/andes-hr/asistencia-cli/internal/store"
)

// Inputs are the uploaded workbook paths for one batch. Codification, Roster,
// and Attendance are required; the rest are optional. Detail is read and
// acknowledged but feeds no rule yet.
type Inputs struct {
	Codification string
	Roster       string
	Attendance   string
	Detail       string
	Manual       string
	Classified   string
}

// Result is everything one batch produced.
type Result struct {
	RunID      string
	Catalog    *model.Catalog
	Shifts     []model.ScheduledShift
	Attendance []model.AttendanceRecord
	Incidents  []model.Incident
	Summary    Summary
}

// Pipeline runs the full batch: load, normalize, detect, aggregate. A nil
// store disables run history.
type Pipeline struct {
	cfg *config.Config
	st  store.Store
}

// New creates a Pipeline.
func New(cfg *config.Config, st store.Store) *Pipeline {
	return &Pipeline{cfg: cfg, st: st}
}

type loadedTables struct {
	codification *fetcher.Table
	roster       *fetcher.Table
	attendance   *fetcher.Table
	detail       *fetcher.Table
	manual       *fetcher.Table
	classified   *fetcher.Table
}

// Run processes one batch of uploads. The stages themselves are sequential;
// only the file parsing fans out.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Result, error) {
	log := zap.L().With(zap.String("roster", in.Roster), zap.String("attendance", in.Attendance))
	log.Info("pipeline: starting batch")

	runID := p.createRun(ctx, in)

	res, err := p.run(ctx, in, runID, log)

	if p.st != nil && runID != "" {
		status := model.RunStatusComplete
		result := &model.RunResult{}
		if err != nil {
			status = model.RunStatusFailed
			result.Error = err.Error()
		} else {
			result = runResult(res)
			res.RunID = runID
		}
		if storeErr := p.st.CompleteRun(ctx, runID, status, result); storeErr != nil {
			log.Warn("pipeline: failed to record run result", zap.Error(storeErr))
		}
	}

	return res, err
}

func (p *Pipeline) run(ctx context.Context, in Inputs, runID string, log *zap.Logger) (*Result, error) {
	overrides, err := schema.LoadOverrides(p.cfg.Pipeline.SchemaOverrides)
	if err != nil {
		return nil, err
	}

	tables, err := loadTables(ctx, in)
	if err != nil {
		return nil, err
	}
	if tables.detail != nil {
		log.Info("pipeline: detail table loaded", zap.Int("rows", len(tables.detail.Rows)))
	}

	res := &Result{}

	err = p.phase(ctx, runID, "catalog", func() error {
		m := schema.BuildMapping(tables.codification.Headers, overrides.Codification)
		cat, err := BuildCatalog(tables.codification, m)
		if err != nil {
			return err
		}
		res.Catalog = cat
		log.Info("pipeline: catalog built", zap.Int("entries", cat.Len()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.phase(ctx, runID, "roster", func() error {
		m := schema.BuildMapping(tables.roster.Headers, overrides.Roster)
		shifts, err := ExpandRoster(tables.roster, m, res.Catalog, p.cfg.Pipeline.AreaFilter)
		if err != nil {
			return err
		}
		res.Shifts = shifts
		log.Info("pipeline: roster expanded", zap.Int("shifts", len(shifts)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.phase(ctx, runID, "attendance", func() error {
		m := schema.BuildMapping(tables.attendance.Headers, overrides.Attendance)
		records, err := NormalizeAttendance(tables.attendance, m, res.Catalog)
		if err != nil {
			return err
		}
		res.Attendance = records
		log.Info("pipeline: attendance normalized", zap.Int("records", len(records)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.phase(ctx, runID, "detect", func() error {
		var manual []model.Incident
		if tables.manual != nil {
			m := schema.BuildMapping(tables.manual.Headers, overrides.Manual)
			manual = ParseManualIncidents(tables.manual, m)
			log.Info("pipeline: manual incidents appended", zap.Int("count", len(manual)))
		}

		opts := DetectOptions{
			Tolerance:       time.Duration(p.cfg.Pipeline.ToleranceMinutes) * time.Minute,
			ShiftDeltaHours: p.cfg.Pipeline.ShiftDeltaHours,
		}
		res.Incidents = DetectIncidents(res.Shifts, res.Attendance, manual, opts)

		if tables.classified != nil {
			m := schema.BuildMapping(tables.classified.Headers, nil)
			applied := ApplyClassifications(res.Incidents, tables.classified, m, p.cfg.Pipeline.Labels)
			log.Info("pipeline: reviewer classifications applied", zap.Int("applied", applied))
		}

		log.Info("pipeline: incidents detected", zap.Int("count", len(res.Incidents)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.phase(ctx, runID, "aggregate", func() error {
		res.Summary = BuildSummary(res.Shifts, res.Attendance, res.Incidents, p.cfg.Pipeline.AppliesLabel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func loadTables(ctx context.Context, in Inputs) (*loadedTables, error) {
	if in.Codification == "" || in.Roster == "" || in.Attendance == "" {
		return nil, eris.New("pipeline: codification, roster, and attendance files are required")
	}

	tables := &loadedTables{}
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		tables.codification, err = fetcher.ReadTable(in.Codification, fetcher.XLSXOptions{})
		return err
	})
	g.Go(func() (err error) {
		tables.roster, err = fetcher.ReadTable(in.Roster, fetcher.XLSXOptions{})
		return err
	})
	g.Go(func() (err error) {
		tables.attendance, err = fetcher.ReadTable(in.Attendance, fetcher.XLSXOptions{SheetName: attendanceSheet(in.Attendance)})
		return err
	})
	if in.Detail != "" {
		g.Go(func() (err error) {
			tables.detail, err = fetcher.ReadTable(in.Detail, fetcher.XLSXOptions{})
			return err
		})
	}
	if in.Manual != "" {
		g.Go(func() (err error) {
			tables.manual, err = fetcher.ReadTable(in.Manual, fetcher.XLSXOptions{})
			return err
		})
	}
	if in.Classified != "" {
		g.Go(func() (err error) {
			tables.classified, err = fetcher.ReadTable(in.Classified, fetcher.XLSXOptions{})
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// attendanceSheet picks the attendance sheet of the PBI export, which ships
// absences and attendance as two sheets. Empty means first sheet.
func attendanceSheet(path string) string {
	names, err := fetcher.SheetNames(path)
	if err != nil || len(names) < 2 {
		return ""
	}
	for _, name := range names {
		if strings.Contains(schema.Fold(name), "asistencia") {
			return name
		}
	}
	return ""
}

func (p *Pipeline) createRun(ctx context.Context, in Inputs) string {
	if p.st == nil {
		return ""
	}
	run, err := p.st.CreateRun(ctx, model.RunInputs{
		Codification:     in.Codification,
		Roster:           in.Roster,
		Attendance:       in.Attendance,
		Detail:           in.Detail,
		Manual:           in.Manual,
		Classified:       in.Classified,
		ToleranceMinutes: p.cfg.Pipeline.ToleranceMinutes,
		AreaFilter:       p.cfg.Pipeline.AreaFilter,
	})
	if err != nil {
		zap.L().Warn("pipeline: failed to record run", zap.Error(err))
		return ""
	}
	return run.ID
}

// phase wraps one stage with run_phases bookkeeping.
func (p *Pipeline) phase(ctx context.Context, runID, name string, fn func() error) error {
	var phase *model.RunPhase
	if p.st != nil && runID != "" {
		var err error
		phase, err = p.st.CreatePhase(ctx, runID, name)
		if err != nil {
			zap.L().Warn("pipeline: failed to record phase", zap.String("phase", name), zap.Error(err))
			phase = nil
		}
	}

	err := fn()

	if phase != nil {
		status := model.PhaseStatusComplete
		msg := ""
		if err != nil {
			status = model.PhaseStatusFailed
			msg = err.Error()
		}
		if storeErr := p.st.CompletePhase(ctx, phase.ID, status, msg); storeErr != nil {
			zap.L().Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(storeErr))
		}
	}

	return err
}

func runResult(res *Result) *model.RunResult {
	byKind := make(map[string]int)
	for _, inc := range res.Incidents {
		byKind[string(inc.Kind)]++
	}
	workers := make(map[string]struct{})
	scheduled := 0
	for _, s := range res.Shifts {
		workers[s.Worker] = struct{}{}
		if s.Range != nil {
			scheduled++
		}
	}
	return &model.RunResult{
		CatalogEntries: res.Catalog.Len(),
		Workers:        len(workers),
		ScheduledDays:  scheduled,
		AttendanceRows: len(res.Attendance),
		Incidents:      len(res.Incidents),
		ByKind:         byKind,
	}
}
