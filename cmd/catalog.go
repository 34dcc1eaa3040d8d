package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andes-hr/asistencia-cli/internal/export"
	"github.com/andes-hr/asistencia-cli/internal/fetcher"
	"github.com/andes-hr/asistencia-cli/internal/pipeline"
	"github.com/andes-hr/asistencia-cli/internal/schema"
)

var (
	catalogIn     string
	catalogOut    string
	catalogSchema string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Normalize the shift codification table and export it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("schema") {
			cfg.Pipeline.SchemaOverrides = catalogSchema
		}
		overrides, err := schema.LoadOverrides(cfg.Pipeline.SchemaOverrides)
		if err != nil {
			return err
		}

		table, err := fetcher.ReadTable(catalogIn, fetcher.XLSXOptions{})
		if err != nil {
			return err
		}

		m := schema.BuildMapping(table.Headers, overrides.Codification)
		cat, err := pipeline.BuildCatalog(table, m)
		if err != nil {
			return err
		}

		f, err := export.New(cfg.Pipeline.Labels).CatalogWorkbook(cat)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := f.SaveAs(catalogOut); err != nil {
			return eris.Wrapf(err, "save catalog %s", catalogOut)
		}

		zap.L().Info("catalog exported",
			zap.String("path", catalogOut),
			zap.Int("entries", cat.Len()),
		)
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogIn, "codification", "", "shift codification workbook (required)")
	catalogCmd.Flags().StringVar(&catalogOut, "out", "catalogo_turnos.xlsx", "output workbook path")
	catalogCmd.Flags().StringVar(&catalogSchema, "schema", "", "YAML file mapping nonstandard column headers to canonical names")
	_ = catalogCmd.MarkFlagRequired("codification")
	rootCmd.AddCommand(catalogCmd)
}
