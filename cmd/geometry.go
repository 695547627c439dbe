package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/viewport"
)

var geometryCmd = &cobra.Command{
	Use:   "geometry",
	Short: "Polygon area and center",
}

type areaResult struct {
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`
	Area     float64           `json:"area_m2" yaml:"area_m2"`
	Hectares float64           `json:"hectares" yaml:"hectares"`
	Center   geometry.GeoPoint `json:"center" yaml:"center"`
	Zoom     int               `json:"zoom" yaml:"zoom"`
}

var geometryAreaCmd = &cobra.Command{
	Use:   "area",
	Short: "Compute the area, center and zoom of one or more polygons",
	Example: `  terra geometry area --points "38.95,-92.33;38.95,-92.32;38.96,-92.32"
  terra geometry area --geojson fields.json -o json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		points, _ := cmd.Flags().GetString("points")
		geojsonPath, _ := cmd.Flags().GetString("geojson")
		shpPath, _ := cmd.Flags().GetString("shp")

		polys, err := readBoundaries(points, geojsonPath, shpPath)
		if err != nil {
			return err
		}

		results := make([]areaResult, 0, len(polys))
		for _, p := range polys {
			if err := p.Boundary.Validate(); err != nil {
				return eris.Wrapf(err, "%s", displayName(p.Name))
			}
			center, err := geometry.Centroid(p.Boundary)
			if err != nil {
				return err
			}
			a := geometry.Area(p.Boundary)
			results = append(results, areaResult{
				Name:     p.Name,
				Area:     a,
				Hectares: geometry.Hectares(a),
				Center:   center,
				Zoom:     viewport.ZoomForArea(a),
			})
		}

		return render(cmd.OutOrStdout(), outputFormat, results, func(w io.Writer) {
			for _, r := range results {
				if r.Name != "" {
					fmt.Fprintf(w, "%s\n", r.Name)
				}
				fmt.Fprintf(w, "  Area:   %s\n", formatArea(r.Area))
				fmt.Fprintf(w, "  Center: %.6f, %.6f\n", r.Center.Lat, r.Center.Lng)
				fmt.Fprintf(w, "  Zoom:   %d\n", r.Zoom)
			}
		})
	},
}

// readBoundaries reads polygons from exactly one of the three sources.
func readBoundaries(points, geojsonPath, shpPath string) ([]geometry.NamedPolygon, error) {
	set := 0
	for _, s := range []string{points, geojsonPath, shpPath} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, eris.New("exactly one of --points, --geojson or --shp is required")
	}

	switch {
	case points != "":
		pts, err := geometry.ParsePoints(points)
		if err != nil {
			return nil, err
		}
		return []geometry.NamedPolygon{{Boundary: pts}}, nil
	case geojsonPath != "":
		data, err := os.ReadFile(geojsonPath)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", geojsonPath)
		}
		return geometry.ParseGeoJSON(data)
	default:
		if !strings.EqualFold(filepath.Ext(shpPath), ".shp") {
			return nil, eris.Errorf("%s is not a .shp file", shpPath)
		}
		return geometry.ReadShapefile(shpPath)
	}
}

func displayName(name string) string {
	if name == "" {
		return "polygon"
	}
	return name
}

func addBoundaryFlags(cmd *cobra.Command) {
	cmd.Flags().String("points", "", `vertices as "lat,lng;lat,lng;..."`)
	cmd.Flags().String("geojson", "", "GeoJSON file with Polygon or MultiPolygon features")
	cmd.Flags().String("shp", "", "ESRI shapefile with polygon records")
}

func init() {
	addBoundaryFlags(geometryAreaCmd)
	geometryCmd.AddCommand(geometryAreaCmd)
	rootCmd.AddCommand(geometryCmd)
}
