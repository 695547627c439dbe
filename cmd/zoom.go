package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/terra/internal/viewport"
)

var zoomCmd = &cobra.Command{
	Use:   "zoom",
	Short: "Map zoom level for an area",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("area-m2") {
			return eris.New("--area-m2 is required")
		}
		area, _ := cmd.Flags().GetFloat64("area-m2")

		z := viewport.ZoomForArea(area)
		return render(cmd.OutOrStdout(), outputFormat, map[string]int{"zoom": z}, func(w io.Writer) {
			fmt.Fprintf(w, "%d\n", z)
		})
	},
}

func init() {
	zoomCmd.Flags().Float64("area-m2", 0, "area in square metres")
	rootCmd.AddCommand(zoomCmd)
}
