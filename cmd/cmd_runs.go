// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcodagnone/haversine/record"
	"github.com/jcodagnone/haversine/store"
	"github.com/spf13/cobra"
)

var runsDbPath string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Access the runs stored in a DuckDB database",
}

func withRuns(fn func(repo store.RunRepository) error) (err error) {
	repo, closeDB, err := openRunRepository(runsDbPath)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, closeDB())
	}()

	return fn(repo)
}

func runIDArg(args []string) (int64, error) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	return id, nil
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the stored runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuns(func(repo store.RunRepository) error {
			return listRuns(cmd.OutOrStdout(), repo)
		})
	},
}

func listRuns(out io.Writer, repo store.RunRepository) error {
	runs, err := repo.ListRuns()
	if err != nil {
		return err
	}

	a, b, c, d := strings.Repeat("─", 6), strings.Repeat("─", 19), strings.Repeat("─", 12), strings.Repeat("─", 22)
	fmt.Fprintf(out, "╭─%6s─┬─%-19s─┬─%12s─┬─%8s─┬─%-9s─┬─%22s─╮\n", a, b, c, strings.Repeat("─", 8), strings.Repeat("─", 9), d)
	fmt.Fprintf(out, "│ %6s │ %-19s │ %12s │ %8s │ %-9s │ %22s │\n", "Id", "Created", "Pairs", "Clusters", "Policy", "Average distance")
	fmt.Fprintf(out, "├─%6s─┼─%-19s─┼─%12s─┼─%8s─┼─%-9s─┼─%22s─┤\n", a, b, c, strings.Repeat("─", 8), strings.Repeat("─", 9), d)

	for _, run := range runs {
		fmt.Fprintf(out, "│ %6d │ %-19s │ %12d │ %8d │ %-9s │ %22.12g │\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Emitted, run.Clusters, run.Policy, run.AvgDist)
	}

	fmt.Fprintf(out, "╰─%6s─┴─%-19s─┴─%12s─┴─%8s─┴─%-9s─┴─%22s─╯\n", a, b, c, strings.Repeat("─", 8), strings.Repeat("─", 9), d)

	return nil
}

var runsCalculateCmd = &cobra.Command{
	Use:   "calculate <id>",
	Short: "Recomputes the average distance of a stored run in Go and in SQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := runIDArg(args)
		if err != nil {
			return err
		}

		return withRuns(func(repo store.RunRepository) error {
			return calculateRun(cmd.OutOrStdout(), repo, id)
		})
	},
}

func calculateRun(out io.Writer, repo store.RunRepository, id int64) error {
	rec, err := repo.LoadRecord(id)
	if err != nil {
		return err
	}

	avg, err := rec.Recompute()
	if err != nil {
		return fmt.Errorf("run %d: %w", id, err)
	}

	sqlAvg, err := repo.AverageDistance(id)
	if err != nil {
		return fmt.Errorf("run %d: %w", id, err)
	}

	cells, err := repo.CellCount(id)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Read average distance:", rec.AvgDist)
	fmt.Fprintln(out, "Computed average distance:", avg)
	fmt.Fprintln(out, "SQL average distance:", sqlAvg)
	fmt.Fprintln(out, "H3 cells:", cells)

	return nil
}

var runsExportOutput string

var runsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Writes a stored run as a result file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := runIDArg(args)
		if err != nil {
			return err
		}

		return withRuns(func(repo store.RunRepository) error {
			rec, err := repo.LoadRecord(id)
			if err != nil {
				return err
			}

			if err := record.Save(runsExportOutput, rec, nil); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Saved result in:", runsExportOutput)

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsCalculateCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.PersistentFlags().StringVar(&runsDbPath, "db", "pairs.duckdb", "DuckDB database")
	runsExportCmd.Flags().StringVar(&runsExportOutput, "output", "pairs.json", "Result file")
}
