// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"

	"github.com/jcodagnone/haversine/server"
	"github.com/jcodagnone/haversine/store"
	"github.com/spf13/cobra"
)

var (
	serveOptions = &server.Options{}
	serveDbPath  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves pair generation and distance verification over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) (err error) {
		var runs store.RunRepository

		if serveDbPath != "" {
			var closeDB func() error

			runs, closeDB, err = openRunRepository(serveDbPath)
			if err != nil {
				return err
			}

			defer func() {
				err = errors.Join(err, closeDB())
			}()
		}

		return server.NewServer(serveOptions, runs).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.Addr, "addr", "localhost:8080", "Listen address")
	serveCmd.Flags().IntVar(&serveOptions.MaxPairs, "max-pairs", 1_000_000, "Largest n accepted by /api/pairs")
	serveCmd.Flags().StringVar(&serveDbPath, "db", "", "DuckDB database with stored runs")
}
