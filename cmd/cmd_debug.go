// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jcodagnone/haversine/spatial"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugRadius float64

var debugHaversineCmd = &cobra.Command{
	Use:   "haversine",
	Short: "Computes the distance between the points read from stdin",
	Long: `Reads one pair per line as "lng0 lat0 lng1 lat1 [radius]" and prints the line
followed by the haversine distance.

$ echo 0 0 180 0 6371 | haversine debug haversine
0 0 180 0 6371	20015.086796020572
	`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		input := os.Stdin
		if isatty.IsTerminal(input.Fd()) {
			fmt.Fprintln(os.Stderr, "Enter pairs to measure, one per line…")
		}

		return debugHaversine(input, cmd.OutOrStdout(), debugRadius)
	},
}

func parseDebugLine(line string, radius float64) (p0, p1 spatial.Point, r float64, err error) {
	fields := strings.Fields(line)
	if len(fields) != 4 && len(fields) != 5 {
		return p0, p1, 0, fmt.Errorf("want 4 or 5 numbers, got %d", len(fields))
	}

	values := make([]float64, len(fields))
	for i, f := range fields {
		if values[i], err = strconv.ParseFloat(f, 64); err != nil {
			return p0, p1, 0, err
		}
	}

	r = radius
	if len(values) == 5 {
		r = values[4]
	}

	return spatial.Point{Lng: values[0], Lat: values[1]}, spatial.Point{Lng: values[2], Lat: values[3]}, r, nil
}

func debugHaversine(in io.Reader, out io.Writer, radius float64) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		p0, p1, r, err := parseDebugLine(line, radius)
		if err == nil {
			err = spatial.ValidateRadius(r)
		}

		if err != nil {
			fmt.Fprintf(out, "%s\t%q\n", line, err)

			continue
		}

		fmt.Fprintf(out, "%s\t%v\n", line, spatial.Haversine(p0, p1, r))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugHaversineCmd)
	debugHaversineCmd.Flags().Float64Var(&debugRadius, "radius", 1.0, "Radius used when a line doesn't carry one")
}
