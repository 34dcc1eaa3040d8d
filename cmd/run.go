package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andes-hr/asistencia-cli/internal/export"
	"github.com/andes-hr/asistencia-cli/internal/pipeline"
)

var (
	runInputs    pipeline.Inputs
	runOut       string
	runTolerance int
	runArea      string
	runSchema    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline and write the report workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("tolerance") {
			if runTolerance < 0 {
				return eris.Errorf("tolerance must be non-negative, got %d", runTolerance)
			}
			cfg.Pipeline.ToleranceMinutes = runTolerance
		}
		if cmd.Flags().Changed("area") {
			cfg.Pipeline.AreaFilter = runArea
		}
		if cmd.Flags().Changed("schema") {
			cfg.Pipeline.SchemaOverrides = runSchema
		}

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		result, err := pipeline.New(cfg, st).Run(ctx, runInputs)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		w := export.New(cfg.Pipeline.Labels)
		if err := w.WriteFile(runOut, result); err != nil {
			return err
		}

		zap.L().Info("report written",
			zap.String("path", runOut),
			zap.Int("shifts", len(result.Shifts)),
			zap.Int("attendance_rows", len(result.Attendance)),
			zap.Int("incidents", len(result.Incidents)),
		)

		summary := struct {
			RunID     string `json:"run_id,omitempty"`
			Report    string `json:"report"`
			Catalog   int    `json:"catalog_entries"`
			Shifts    int    `json:"shifts"`
			Records   int    `json:"attendance_rows"`
			Incidents int    `json:"incidents"`
		}{
			RunID:     result.RunID,
			Report:    runOut,
			Catalog:   result.Catalog.Len(),
			Shifts:    len(result.Shifts),
			Records:   len(result.Attendance),
			Incidents: len(result.Incidents),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInputs.Codification, "codification", "", "shift codification workbook (required)")
	runCmd.Flags().StringVar(&runInputs.Roster, "roster", "", "active-worker roster workbook (required)")
	runCmd.Flags().StringVar(&runInputs.Attendance, "attendance", "", "attendance workbook (required)")
	runCmd.Flags().StringVar(&runInputs.Detail, "detail", "", "attendance detail workbook (read, not yet used by rules)")
	runCmd.Flags().StringVar(&runInputs.Manual, "manual", "", "manual incidents workbook")
	runCmd.Flags().StringVar(&runInputs.Classified, "classified", "", "previously exported incident workbook with reviewer classifications")
	runCmd.Flags().StringVar(&runOut, "out", "reporte_asistencia.xlsx", "report workbook path")
	runCmd.Flags().IntVar(&runTolerance, "tolerance", 0, "tolerance in minutes for late entry / early exit (default from config)")
	runCmd.Flags().StringVar(&runArea, "area", "", "only process roster rows of this area")
	runCmd.Flags().StringVar(&runSchema, "schema", "", "YAML file mapping nonstandard column headers to canonical names")
	_ = runCmd.MarkFlagRequired("codification")
	_ = runCmd.MarkFlagRequired("roster")
	_ = runCmd.MarkFlagRequired("attendance")
	rootCmd.AddCommand(runCmd)
}
