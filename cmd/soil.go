package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/soil"
)

var soilCmd = &cobra.Command{
	Use:   "soil",
	Short: "Score soil samples",
}

var soilAssessCmd = &cobra.Command{
	Use:     "assess",
	Short:   "Score a soil sample",
	Example: `  terra soil assess --clay 30 --sand 30 --oc 40 --ph 6.5`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var s soil.Sample
		s.Clay, _ = cmd.Flags().GetFloat64("clay")
		s.Sand, _ = cmd.Flags().GetFloat64("sand")
		s.OrganicCarbon, _ = cmd.Flags().GetFloat64("oc")
		s.PH, _ = cmd.Flags().GetFloat64("ph")
		if err := s.Validate(); err != nil {
			return err
		}

		scorer, err := soil.NewScorer(cfg.Soil.Weights)
		if err != nil {
			return err
		}
		a := scorer.Assess(s)
		return render(cmd.OutOrStdout(), outputFormat, a, func(w io.Writer) { formatAssessment(w, a) })
	},
}

var soilLookupCmd = &cobra.Command{
	Use:     "lookup",
	Short:   "Fetch and score the soil at a point from SoilGrids",
	Example: `  terra soil lookup --lat 38.95 --lng -92.33`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		if !(geometry.GeoPoint{Lat: lat, Lng: lng}).Finite() || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return eris.Errorf("invalid point %v,%v", lat, lng)
		}
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		scorer, err := soil.NewScorer(cfg.Soil.Weights)
		if err != nil {
			return err
		}
		sample, err := initSoilClient().Query(cmd.Context(), lat, lng)
		if err != nil {
			return err
		}
		a := scorer.Assess(*sample)
		return render(cmd.OutOrStdout(), outputFormat, a, func(w io.Writer) { formatAssessment(w, a) })
	},
}

func init() {
	soilAssessCmd.Flags().Float64("clay", 0, "clay content (%)")
	soilAssessCmd.Flags().Float64("sand", 0, "sand content (%)")
	soilAssessCmd.Flags().Float64("oc", 0, "organic carbon (g/kg)")
	soilAssessCmd.Flags().Float64("ph", 0, "pH in water")

	soilLookupCmd.Flags().Float64("lat", 0, "latitude")
	soilLookupCmd.Flags().Float64("lng", 0, "longitude")
	_ = soilLookupCmd.MarkFlagRequired("lat")
	_ = soilLookupCmd.MarkFlagRequired("lng")

	soilCmd.AddCommand(soilAssessCmd, soilLookupCmd)
	rootCmd.AddCommand(soilCmd)
}
