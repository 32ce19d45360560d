// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package gendata samples random pairs of points on the sphere grouped in
// randomly placed clusters.
package gendata

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/jcodagnone/haversine/spatial"
)

var (
	ErrInvalidClusters = errors.New("gendata: number of clusters must be positive")
	ErrNegativePairs   = errors.New("gendata: number of pairs can't be negative")
)

// Pair is one sampled observation.
type Pair [2]spatial.Point

// Cluster is a neighbourhood from which Count pairs are sampled. Points
// deviate from Center at most DLng and DLat degrees before clamping.
type Cluster struct {
	Center spatial.Point
	DLng   float64
	DLat   float64
	Count  int
}

// Options configure a Generator.
type Options struct {
	Seed   uint64
	Policy Policy
}

// Generator samples clustered pairs from an explicit random source.
type Generator struct {
	rng    *rand.Rand
	policy Policy
}

// New creates a generator backed by a PCG source seeded with opts.Seed.
func New(opts *Options) *Generator {
	return NewWithRand(rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)), opts.Policy)
}

// NewWithRand creates a generator that draws from rng.
func NewWithRand(rng *rand.Rand, policy Policy) *Generator {
	return &Generator{rng: rng, policy: policy}
}

// uniform draws from [lo, hi).
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*g.rng.Float64()
}

func validate(nPairs, nClusters int) error {
	if nClusters <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidClusters, nClusters)
	}

	if nPairs < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePairs, nPairs)
	}

	return nil
}

// Partition splits nPairs across nClusters as the differences of
// floor(linspace(0, nPairs, nClusters+1)). The counts sum to nPairs.
func Partition(nPairs, nClusters int) []int {
	if nClusters <= 0 {
		return nil
	}

	step := float64(nPairs) / float64(nClusters)
	counts := make([]int, nClusters)

	prev := 0
	for i := 1; i <= nClusters; i++ {
		next := nPairs
		if i < nClusters {
			next = int(math.Floor(float64(i) * step))
		}

		counts[i-1] = next - prev
		prev = next
	}

	return counts
}

// EmittedPairs returns how many pairs GeneratePairs emits for the arguments.
func EmittedPairs(nPairs, nClusters int, policy Policy) int {
	counts := Partition(nPairs, nClusters)
	if counts == nil {
		return 0
	}

	total := 0
	for _, c := range counts[:policy.SampledClusters(nClusters)] {
		total += c
	}

	return total
}

// Clusters draws nClusters centers uniformly over the sphere's coordinate
// ranges and assigns each its share of nPairs. All longitudes are drawn
// before all latitudes.
func (g *Generator) Clusters(nPairs, nClusters int) ([]Cluster, error) {
	if err := validate(nPairs, nClusters); err != nil {
		return nil, err
	}

	lngs := make([]float64, nClusters)
	for i := range lngs {
		lngs[i] = g.uniform(spatial.MinLng, spatial.MaxLng)
	}

	lats := make([]float64, nClusters)
	for i := range lats {
		lats[i] = g.uniform(spatial.MinLat, spatial.MaxLat)
	}

	counts := Partition(nPairs, nClusters)
	dLng := (spatial.MaxLng - spatial.MinLng) / float64(nClusters)
	dLat := (spatial.MaxLat - spatial.MinLat) / float64(nClusters)

	clusters := make([]Cluster, nClusters)
	for i := range clusters {
		clusters[i] = Cluster{
			Center: spatial.Point{Lng: lngs[i], Lat: lats[i]},
			DLng:   dLng,
			DLat:   dLat,
			Count:  counts[i],
		}
	}

	return clusters, nil
}

// SampleCluster draws c.Count pairs around the cluster center. Coordinates
// out of range are clamped, never rejected.
func (g *Generator) SampleCluster(c *Cluster) []Pair {
	pairs := make([]Pair, c.Count)

	for i := range pairs {
		for j := range pairs[i] {
			pairs[i][j].Lng = c.Center.Lng + g.uniform(-c.DLng, c.DLng)
		}
	}

	for i := range pairs {
		for j := range pairs[i] {
			pairs[i][j].Lat = c.Center.Lat + g.uniform(-c.DLat, c.DLat)
			pairs[i][j] = pairs[i][j].Clamp()
		}
	}

	return pairs
}

// SamplePairs samples the clusters selected by the generator's policy, in
// order, and concatenates their pairs.
func (g *Generator) SamplePairs(clusters []Cluster) []Pair {
	sampled := clusters[:min(g.policy.SampledClusters(len(clusters)), len(clusters))]

	total := 0
	for _, c := range sampled {
		total += c.Count
	}

	pairs := make([]Pair, 0, total)
	for i := range sampled {
		pairs = append(pairs, g.SampleCluster(&sampled[i])...)
	}

	return pairs
}

// GeneratePairs samples pairs grouped in nClusters random clusters. With
// PolicyFaithful fewer than nPairs pairs may be returned, see EmittedPairs.
func (g *Generator) GeneratePairs(nPairs, nClusters int) ([]Pair, error) {
	clusters, err := g.Clusters(nPairs, nClusters)
	if err != nil {
		return nil, err
	}

	return g.SamplePairs(clusters), nil
}

// Split separates the pairs into the first and second points, the layout
// the distance functions take.
func Split(pairs []Pair) (p0, p1 []spatial.Point) {
	p0 = make([]spatial.Point, len(pairs))
	p1 = make([]spatial.Point, len(pairs))

	for i, pair := range pairs {
		p0[i], p1[i] = pair[0], pair[1]
	}

	return p0, p1
}
