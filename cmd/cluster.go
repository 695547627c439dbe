package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/terra/internal/cluster"
	"github.com/sells-group/terra/internal/geometry"
)

type clusterOutput struct {
	Center         geometry.GeoPoint `json:"center" yaml:"center"`
	cluster.Result `yaml:",inline"`
}

var clusterCmd = &cobra.Command{
	Use:     "cluster",
	Short:   "Cluster points with k-means and report the largest cluster's centroid",
	Example: `  terra cluster --points "38.95,-92.33;38.96,-92.33;40.1,-95.0" --k 2 --seed 42`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, _ := cmd.Flags().GetString("points")
		k := cfg.Cluster.K
		if cmd.Flags().Changed("k") {
			k, _ = cmd.Flags().GetInt("k")
		}

		points, err := geometry.ParsePoints(raw)
		if err != nil {
			return err
		}

		var opts []cluster.Option
		seed := cfg.Cluster.Seed
		if cmd.Flags().Changed("seed") {
			seed, _ = cmd.Flags().GetUint64("seed")
		}
		if seed != 0 || cmd.Flags().Changed("seed") {
			opts = append(opts, cluster.WithSeed(seed))
		}

		res, err := cluster.KMeans(points, k, opts...)
		if err != nil {
			return err
		}
		out := clusterOutput{Center: res.Centroids[res.Largest()], Result: res}

		return render(cmd.OutOrStdout(), outputFormat, out, func(w io.Writer) {
			fmt.Fprintf(w, "Center: %.6f, %.6f\n", out.Center.Lat, out.Center.Lng)
			for i, c := range res.Centroids {
				fmt.Fprintf(w, "  cluster %d: %d points at %.6f, %.6f\n", i, res.Sizes[i], c.Lat, c.Lng)
			}
			fmt.Fprintf(w, "Iterations: %d (converged: %t)\n", res.Iterations, res.Converged)
		})
	},
}

func init() {
	clusterCmd.Flags().String("points", "", `points as "lat,lng;lat,lng;..."`)
	clusterCmd.Flags().Int("k", 0, "number of clusters (default cluster.k)")
	clusterCmd.Flags().Uint64("seed", 0, "seed for reproducible initialization (default cluster.seed)")
	_ = clusterCmd.MarkFlagRequired("points")
	rootCmd.AddCommand(clusterCmd)
}
