package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/terra/internal/cluster"
	"github.com/sells-group/terra/internal/farm"
	"github.com/sells-group/terra/internal/report"
	"github.com/sells-group/terra/internal/store"
	"github.com/sells-group/terra/internal/viewport"
)

var farmCmd = &cobra.Command{
	Use:   "farm",
	Short: "Whole-farm views, soil surveys and reports",
}

var farmViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Compute the map viewport that frames the farm",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initFarm(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		vp, err := env.Service.Viewport(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, vp, func(w io.Writer) { formatViewport(w, vp) })
	},
}

var farmSurveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Look up and score the soil of every field",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initFarm(ctx, "lookup")
		if err != nil {
			return err
		}
		defer env.Close()

		survey, err := env.Service.SurveySoil(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("soil survey complete",
			zap.Int("assessed", len(survey.Assessed)),
			zap.Int("failed", len(survey.Failed)),
		)

		return render(cmd.OutOrStdout(), outputFormat, survey, func(w io.Writer) { formatSurvey(w, survey) })
	},
}

var farmReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export fields as an XLSX workbook or GeoJSON",
	Example: `  terra farm report --xlsx farm.xlsx
  terra farm report --geojson farm.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		geojsonPath, _ := cmd.Flags().GetString("geojson")
		if (xlsxPath == "") == (geojsonPath == "") {
			return eris.New("exactly one of --xlsx or --geojson is required")
		}

		env, err := initFarm(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Service.Fields(ctx, store.ListFilter{})
		if err != nil {
			return err
		}

		if geojsonPath != "" {
			data, err := report.MarshalGeoJSON(records)
			if err != nil {
				return err
			}
			if err := os.WriteFile(geojsonPath, data, 0o644); err != nil {
				return eris.Wrapf(err, "write %s", geojsonPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d fields to %s\n", len(records), geojsonPath)
			return nil
		}

		var vp *viewport.Viewport
		if len(records) > 0 {
			var opts []cluster.Option
			if cfg.Cluster.Seed != 0 {
				opts = append(opts, cluster.WithSeed(cfg.Cluster.Seed))
			}
			v, _, err := farm.ViewportFor(records, cfg.Cluster.K, opts...)
			if err != nil {
				return err
			}
			vp = &v
		}

		f, err := os.Create(xlsxPath)
		if err != nil {
			return eris.Wrapf(err, "create %s", xlsxPath)
		}
		if err := report.WriteXLSX(f, records, vp); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "close %s", xlsxPath)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d fields to %s\n", len(records), xlsxPath)
		return nil
	},
}

func formatSurvey(w io.Writer, s *farm.Survey) {
	formatFieldsTable(w, s.Assessed)
	if len(s.Failed) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d fields could not be assessed:\n", len(s.Failed))
	for _, f := range s.Failed {
		fmt.Fprintf(w, "  %s (%s): %s\n", f.Name, f.FieldID, f.Error)
	}
}

func init() {
	farmReportCmd.Flags().String("xlsx", "", "write an XLSX workbook to this path")
	farmReportCmd.Flags().String("geojson", "", "write a GeoJSON FeatureCollection to this path")

	farmCmd.AddCommand(farmViewCmd, farmSurveyCmd, farmReportCmd)
	rootCmd.AddCommand(farmCmd)
}
