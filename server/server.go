// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes pair generation and distance verification over HTTP.
package server

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/haversine/gendata"
	"github.com/jcodagnone/haversine/record"
	"github.com/jcodagnone/haversine/spatial"
	"github.com/jcodagnone/haversine/store"
)

// Options configure the server.
type Options struct {
	Addr string
	// MaxPairs bounds the n parameter of /api/pairs.
	MaxPairs int
}

type Server struct {
	options *Options
	runs    store.RunRepository // nil when no database is configured
}

// NewServer creates a server. runs may be nil.
func NewServer(options *Options, runs store.RunRepository) *Server {
	return &Server{options: options, runs: runs}
}

// Router returns the gin engine with all the routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/pairs", s.generatePairs)
	r.POST("/api/distance", s.computeDistance)

	if s.runs != nil {
		r.GET("/api/runs", s.listRuns)
		r.GET("/api/runs/:id", s.getRun)
	}

	return r
}

func (s *Server) Run() error {
	log.Printf("Listening on %s", s.options.Addr)

	return s.Router().Run(s.options.Addr)
}

func queryInt(ctx *gin.Context, name string, def int) (int, error) {
	v := ctx.Query(name)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}

	return n, nil
}

func queryFloat(ctx *gin.Context, name string, def float64) (float64, error) {
	v := ctx.Query(name)
	if v == "" {
		return def, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}

	return f, nil
}

func badRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) generatePairs(ctx *gin.Context) {
	n, err := queryInt(ctx, "n", 0)
	if err != nil {
		badRequest(ctx, err)

		return
	}

	if n <= 0 {
		badRequest(ctx, errors.New("n must be positive"))

		return
	}

	if s.options.MaxPairs > 0 && n > s.options.MaxPairs {
		badRequest(ctx, fmt.Errorf("n must be between 1 and %d", s.options.MaxPairs))

		return
	}

	clusters, err := queryInt(ctx, "clusters", 1)
	if err != nil {
		badRequest(ctx, err)

		return
	}

	// more clusters than pairs only adds empty clusters
	if clusters < 1 || clusters > n {
		badRequest(ctx, fmt.Errorf("clusters must be between 1 and %d", n))

		return
	}

	radius, err := queryFloat(ctx, "radius", 1)
	if err != nil {
		badRequest(ctx, err)

		return
	}

	if err := spatial.ValidateRadius(radius); err != nil {
		badRequest(ctx, err)

		return
	}

	opts := &gendata.Options{Seed: rand.Uint64()}

	if v := ctx.Query("seed"); v != "" {
		if opts.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			badRequest(ctx, errors.New("invalid seed parameter"))

			return
		}
	}

	if v := ctx.Query("policy"); v != "" {
		if opts.Policy, err = gendata.ParsePolicy(v); err != nil {
			badRequest(ctx, err)

			return
		}
	}

	pairs, err := gendata.New(opts).GeneratePairs(n, clusters)
	if err != nil {
		badRequest(ctx, err)

		return
	}

	p0, p1 := gendata.Split(pairs)

	avg, err := spatial.AverageDistance(p0, p1, radius)
	if err != nil {
		badRequest(ctx, err)

		return
	}

	rec, err := record.FromPoints(p0, p1, avg, radius)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Header("X-Seed", strconv.FormatUint(opts.Seed, 10))
	ctx.JSON(http.StatusOK, rec)
}

// DistanceResponse is the body returned by POST /api/distance.
type DistanceResponse struct {
	Pairs       int     `json:"pairs"`
	ReadAvgDist float64 `json:"read_avg_dist"`
	AvgDist     float64 `json:"avg_dist"`
}

func (s *Server) computeDistance(ctx *gin.Context) {
	rec, err := record.Decode(ctx.Request.Body)
	if err != nil {
		badRequest(ctx, err)

		return
	}

	avg, err := rec.Recompute()
	if err != nil {
		badRequest(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, DistanceResponse{
		Pairs:       len(rec.Pairs),
		ReadAvgDist: rec.AvgDist,
		AvgDist:     avg,
	})
}

func (s *Server) listRuns(ctx *gin.Context) {
	runs, err := s.runs.ListRuns()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if runs == nil {
		runs = []*store.Run{}
	}

	ctx.JSON(http.StatusOK, runs)
}

func (s *Server) getRun(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid id parameter"})

		return
	}

	rec, err := s.runs.LoadRecord(id)
	if errors.Is(err, store.ErrRunNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	} else if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, rec)
}
