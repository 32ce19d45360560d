// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"math"

	"github.com/jcodagnone/haversine/record"
	"github.com/jcodagnone/haversine/spatial"
	"github.com/jcodagnone/haversine/utils/stopwatch"
	"github.com/spf13/cobra"
)

var (
	calculateCrossCheck bool
	calculateH3Res      int
)

var calculateCmd = &cobra.Command{
	Use:   "calculate <path>",
	Short: "Recomputes the average distance of a result file",
	Long: `Reads a result file written by generate, recomputes the haversine distance
of every pair using the stored radius and prints both the stored and the
recomputed averages.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runCalculate(cmd.OutOrStdout(), args[0], calculateCrossCheck, calculateH3Res)

		return err
	},
}

// runCalculate returns the recomputed average.
func runCalculate(out io.Writer, path string, crossCheck bool, h3Res int) (float64, error) {
	if err := validateH3Flag(h3Res); err != nil {
		return 0, err
	}

	sw := stopwatch.Start()

	rec, err := record.Load(path)
	if err != nil {
		return 0, err
	}

	parseTime := sw.Lap()

	p0, p1 := rec.Points()

	distances, err := spatial.HaversineDistances(p0, p1, rec.Radius)
	if err != nil {
		return 0, err
	}

	avg, err := spatial.Average(distances)
	if err != nil {
		return 0, fmt.Errorf("%s has no pairs: %w", path, err)
	}

	computeTime := sw.Lap()

	fmt.Fprintln(out, "Read average distance:", rec.AvgDist)
	fmt.Fprintln(out, "Computed average distance:", avg)
	fmt.Fprintln(out, "Relative difference:", relativeDifference(rec.AvgDist, avg))
	fmt.Fprintln(out, "Parsing time:", parseTime.Seconds())
	fmt.Fprintln(out, "Computing time:", computeTime.Seconds())

	if crossCheck {
		check, err := spatial.CrossCheckDistances(p0, p1, distances, rec.Radius)
		if err != nil {
			return 0, err
		}

		fmt.Fprintln(out, "S2 average distance:", check.Average)
		fmt.Fprintln(out, "S2 max deviation:", check.MaxDeviation)
	}

	if h3Res >= 0 {
		cells, err := spatial.CellCoverage(p0, h3Res)
		if err != nil {
			return 0, err
		}

		fmt.Fprintf(out, "H3 cells (res %d): %d\n", h3Res, cells)
	}

	return avg, nil
}

func relativeDifference(want, got float64) float64 {
	if want == got {
		return 0
	}

	return math.Abs(want-got) / math.Max(math.Abs(want), math.Abs(got))
}

func init() {
	rootCmd.AddCommand(calculateCmd)
	calculateCmd.Flags().BoolVar(&calculateCrossCheck, "crosscheck", false,
		"Also compute the distances with the s2 library and report the deviation")
	calculateCmd.Flags().IntVar(&calculateH3Res, "h3-res", -1, "H3 resolution for the coverage report, -1 disables it")
}
