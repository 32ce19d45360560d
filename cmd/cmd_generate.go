// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/jcodagnone/haversine/gendata"
	"github.com/jcodagnone/haversine/record"
	"github.com/jcodagnone/haversine/spatial"
	"github.com/jcodagnone/haversine/store"
	"github.com/jcodagnone/haversine/utils/stopwatch"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	gendata.Options
	Radius   float64
	Clusters int
	Output   string
	DbPath   string
	H3Res    int
}

var generateOpts = &generateOptions{}

var generateCmd = &cobra.Command{
	Use:   "generate <pairs>",
	Short: "Generates random pairs of points and their average distance",
	Long: `Generates random pairs of points on the sphere grouped in clusters,
computes the average haversine distance between the points of each pair and
saves the result in a JSON file (gzip compressed when it ends in .gz).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid number of pairs %q: %w", args[0], err)
		}

		return runGenerate(cmd.OutOrStdout(), n, generateOpts)
	},
}

func runGenerate(out io.Writer, n int, opts *generateOptions) error {
	if err := spatial.ValidateRadius(opts.Radius); err != nil {
		return err
	}

	if err := validateH3Flag(opts.H3Res); err != nil {
		return err
	}

	for opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}

	fmt.Fprintln(out, "Pairs:", n)
	fmt.Fprintln(out, "Radius:", opts.Radius)
	fmt.Fprintln(out, "Clusters:", opts.Clusters)
	fmt.Fprintln(out, "Policy:", opts.Policy)
	fmt.Fprintln(out, "Seed:", opts.Seed)
	fmt.Fprintln(out, "Output:", opts.Output)

	sw := stopwatch.Start()

	pairs, err := gendata.New(&opts.Options).GeneratePairs(n, opts.Clusters)
	if err != nil {
		return err
	}

	genTime := sw.Lap()

	p0, p1 := gendata.Split(pairs)

	avg, err := spatial.AverageDistance(p0, p1, opts.Radius)
	if errors.Is(err, spatial.ErrEmpty) {
		return fmt.Errorf("no pairs were sampled (%d requested, %d clusters, %s policy): %w",
			n, opts.Clusters, opts.Policy, err)
	} else if err != nil {
		return err
	}

	mathTime := sw.Lap()

	fmt.Fprintln(out, "Result:", avg)
	fmt.Fprintln(out, "Generate:", genTime.Seconds(), "seconds")
	fmt.Fprintln(out, "Math:", mathTime.Seconds(), "seconds")
	fmt.Fprintln(out, "Total:", sw.Total().Seconds(), "seconds")
	printer.Fprintf(out, "Throughput: %.0f haversines/second\n", sw.Throughput(len(pairs)))

	if opts.H3Res >= 0 {
		cells, err := spatial.CellCoverage(p0, opts.H3Res)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "H3 cells (res %d): %d\n", opts.H3Res, cells)
	}

	rec, err := record.FromPoints(p0, p1, avg, opts.Radius)
	if err != nil {
		return err
	}

	if err := saveRecord(opts.Output, rec); err != nil {
		return err
	}

	fmt.Fprintln(out, "Saved result in:", opts.Output)

	if opts.DbPath != "" {
		id, err := storeRun(opts.DbPath, &store.Run{
			NPairs:   n,
			Clusters: opts.Clusters,
			Policy:   opts.Policy.String(),
			Seed:     opts.Seed,
		}, rec)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Stored run %d in: %s\n", id, opts.DbPath)
	}

	return nil
}

// validateH3Flag accepts -1, which disables the coverage report.
func validateH3Flag(res int) error {
	if res == -1 {
		return nil
	}

	return spatial.ValidateH3Res(res)
}

func saveRecord(path string, rec *record.Record) (err error) {
	defer stopwatch.Time("save")(&err)

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(rec.Pairs),
			progressbar.OptionSetDescription("Saving "+path),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}

	onPair := logMilestones(path, len(rec.Pairs))
	if bar != nil {
		onPair = func() { _ = bar.Add(1) }
	}

	return record.Save(path, rec, onPair)
}

// logMilestones returns a callback that logs every tenth of total.
func logMilestones(path string, total int) func() {
	step := max(total/10, 1)
	done := 0

	return func() {
		done++
		if done%step == 0 || done == total {
			log.Printf("Saving %s - %d/%d pairs", path, done, total)
		}
	}
}

func storeRun(dbPath string, run *store.Run, rec *record.Record) (id int64, err error) {
	defer stopwatch.Time("store")(&err)

	repo, closeDB, err := openRunRepository(dbPath)
	if err != nil {
		return 0, err
	}

	defer func() {
		err = errors.Join(err, closeDB())
	}()

	if id, err = repo.SaveRun(run, rec); err != nil {
		return 0, fmt.Errorf("storing run: %w", err)
	}

	log.Printf("Stored %d pairs", len(rec.Pairs))

	return id, nil
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Float64Var(&generateOpts.Radius, "radius", 1.0, "Radius of the sphere")
	generateCmd.Flags().IntVar(&generateOpts.Clusters, "clusters", 1, "Number of clusters")
	generateCmd.Flags().StringVar(&generateOpts.Output, "output", "pairs.json", "Result file")
	generateCmd.Flags().Uint64Var(&generateOpts.Seed, "seed", 0, "Random seed, 0 picks one")
	generateCmd.Flags().Var(&generateOpts.Policy, "policy",
		"Sampled clusters: faithful (all but the last one) or corrected (all)")
	generateCmd.Flags().StringVar(&generateOpts.DbPath, "db", "", "DuckDB database where the run is also stored")
	generateCmd.Flags().IntVar(&generateOpts.H3Res, "h3-res", 2, "H3 resolution for the coverage report, -1 disables it")
}
