package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/store"
)

var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Manage farm fields",
}

var fieldAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a field from drawn vertices",
	Example: `  terra field add --name "North 40" --crop corn --points "38.95,-92.33;38.95,-92.32;38.96,-92.32"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		name, _ := cmd.Flags().GetString("name")
		crop, _ := cmd.Flags().GetString("crop")
		raw, _ := cmd.Flags().GetString("points")

		boundary, err := geometry.ParsePoints(raw)
		if err != nil {
			return err
		}

		env, err := initFarm(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := env.Service.AddField(ctx, name, crop, boundary)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, r, func(w io.Writer) { formatField(w, r) })
	},
}

var fieldListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fields",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		crop, _ := cmd.Flags().GetString("crop")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		env, err := initFarm(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Service.Fields(ctx, store.ListFilter{Crop: crop, Limit: limit, Offset: offset})
		if err != nil {
			return eris.Wrap(err, "field list")
		}
		if len(records) == 0 && outputFormat == formatTable {
			fmt.Fprintln(os.Stderr, "No fields found.")
			return nil
		}
		return render(cmd.OutOrStdout(), outputFormat, records, func(w io.Writer) { formatFieldsTable(w, records) })
	},
}

var fieldShowCmd = &cobra.Command{
	Use:   "show <field-id>",
	Short: "Show a field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initFarm(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := env.Service.Field(ctx, args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, r, func(w io.Writer) { formatField(w, r) })
	},
}

var fieldRedrawCmd = &cobra.Command{
	Use:   "redraw <field-id>",
	Short: "Replace a field's boundary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		raw, _ := cmd.Flags().GetString("points")
		boundary, err := geometry.ParsePoints(raw)
		if err != nil {
			return err
		}

		env, err := initFarm(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := env.Service.RedrawField(ctx, args[0], boundary)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, r, func(w io.Writer) { formatField(w, r) })
	},
}

var fieldCropCmd = &cobra.Command{
	Use:   "crop <field-id> <crop>",
	Short: `Assign a crop to a field ("" clears it)`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initFarm(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := env.Service.AssignCrop(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, r, func(w io.Writer) { formatField(w, r) })
	},
}

var fieldDeleteCmd = &cobra.Command{
	Use:   "delete <field-id>",
	Short: "Delete a field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initFarm(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.DeleteField(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var fieldAssessCmd = &cobra.Command{
	Use:   "assess <field-id>",
	Short: "Look up and score the soil at a field's center",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initFarm(ctx, "lookup")
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := env.Service.AssessField(ctx, args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, r, func(w io.Writer) { formatField(w, r) })
	},
}

var fieldImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import field boundaries from GeoJSON or a shapefile",
	Example: `  terra field import --geojson farm.json
  terra field import --shp parcels.shp --crop soybeans`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		geojsonPath, _ := cmd.Flags().GetString("geojson")
		shpPath, _ := cmd.Flags().GetString("shp")
		crop, _ := cmd.Flags().GetString("crop")

		polys, err := readBoundaries("", geojsonPath, shpPath)
		if err != nil {
			return eris.Wrap(err, "field import")
		}

		env, err := initFarm(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		created, err := env.Service.ImportFields(ctx, polys, crop)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, created, func(w io.Writer) {
			fmt.Fprintf(w, "Imported %d fields\n", len(created))
			for _, r := range created {
				fmt.Fprintf(w, "  %s  %s  %s\n", r.ID, r.Name, formatArea(r.Area))
			}
		})
	},
}

func init() {
	fieldAddCmd.Flags().String("name", "", "field name")
	fieldAddCmd.Flags().String("crop", "", "crop grown on the field")
	fieldAddCmd.Flags().String("points", "", `boundary vertices as "lat,lng;lat,lng;..."`)
	_ = fieldAddCmd.MarkFlagRequired("name")
	_ = fieldAddCmd.MarkFlagRequired("points")

	fieldListCmd.Flags().String("crop", "", "only fields growing this crop")
	fieldListCmd.Flags().Int("limit", 0, "maximum number of fields (0 = all)")
	fieldListCmd.Flags().Int("offset", 0, "skip this many fields")

	fieldRedrawCmd.Flags().String("points", "", `new boundary vertices as "lat,lng;lat,lng;..."`)
	_ = fieldRedrawCmd.MarkFlagRequired("points")

	fieldImportCmd.Flags().String("geojson", "", "GeoJSON file with Polygon or MultiPolygon features")
	fieldImportCmd.Flags().String("shp", "", "ESRI shapefile with polygon records")
	fieldImportCmd.Flags().String("crop", "", "crop for every imported field")

	fieldCmd.AddCommand(fieldAddCmd, fieldListCmd, fieldShowCmd, fieldRedrawCmd, fieldCropCmd, fieldDeleteCmd, fieldAssessCmd, fieldImportCmd)
	rootCmd.AddCommand(fieldCmd)
}
