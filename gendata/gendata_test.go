// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package gendata

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/haversine/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		nPairs, nClusters int
		expected          []int
	}{
		{4, 2, []int{2, 2}},
		{10, 1, []int{10}},
		{10, 3, []int{3, 3, 4}},
		{10, 4, []int{2, 3, 2, 3}},
		{7, 7, []int{1, 1, 1, 1, 1, 1, 1}},
		{2, 5, []int{0, 0, 1, 0, 1}},
		{0, 3, []int{0, 0, 0}},
		{1000000, 64, nil},
	}

	for _, test := range tests {
		got := Partition(test.nPairs, test.nClusters)
		require.Len(t, got, test.nClusters)

		sum := 0
		for _, c := range got {
			assert.GreaterOrEqual(t, c, 0)
			sum += c
		}

		assert.Equal(t, test.nPairs, sum, "Partition(%d, %d)", test.nPairs, test.nClusters)

		if test.expected != nil {
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Errorf("Partition(%d, %d) mismatch (-want +got):\n%s", test.nPairs, test.nClusters, diff)
			}
		}
	}

	assert.Nil(t, Partition(10, 0))
}

func TestEmittedPairs(t *testing.T) {
	tests := []struct {
		nPairs, nClusters int
		policy            Policy
		expected          int
	}{
		{4, 2, PolicyFaithful, 2},
		{4, 2, PolicyCorrected, 4},
		{10, 1, PolicyFaithful, 10},
		{10, 1, PolicyCorrected, 10},
		{10, 3, PolicyFaithful, 6},
		{10, 3, PolicyCorrected, 10},
		{0, 5, PolicyFaithful, 0},
		{10, 0, PolicyFaithful, 0},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, EmittedPairs(test.nPairs, test.nClusters, test.policy),
			"EmittedPairs(%d, %d, %s)", test.nPairs, test.nClusters, test.policy)
	}
}

func TestGeneratePairsCounts(t *testing.T) {
	for _, policy := range []Policy{PolicyFaithful, PolicyCorrected} {
		for _, nClusters := range []int{1, 2, 3, 7, 16} {
			for _, nPairs := range []int{0, 1, 4, 100, 1001} {
				g := New(&Options{Seed: uint64(nPairs*31 + nClusters), Policy: policy})

				pairs, err := g.GeneratePairs(nPairs, nClusters)
				require.NoError(t, err)
				assert.Len(t, pairs, EmittedPairs(nPairs, nClusters, policy),
					"policy=%s pairs=%d clusters=%d", policy, nPairs, nClusters)

				for _, pair := range pairs {
					assert.True(t, pair[0].Valid(), "%v", pair[0])
					assert.True(t, pair[1].Valid(), "%v", pair[1])
				}
			}
		}
	}
}

func TestGeneratePairsFourPairsTwoClusters(t *testing.T) {
	g := New(&Options{Seed: 1})
	pairs, err := g.GeneratePairs(4, 2)
	require.NoError(t, err)
	assert.Len(t, pairs, 2)

	g = New(&Options{Seed: 1, Policy: PolicyCorrected})
	pairs, err = g.GeneratePairs(4, 2)
	require.NoError(t, err)
	assert.Len(t, pairs, 4)
}

func TestSampleClusterCenteredAtOrigin(t *testing.T) {
	g := New(&Options{Seed: 7})
	c := &Cluster{Center: spatial.Point{}, DLng: 180, DLat: 90, Count: 500}

	pairs := g.SampleCluster(c)
	require.Len(t, pairs, 500)

	for _, pair := range pairs {
		for _, p := range pair {
			assert.True(t, p.Valid(), "%v", p)
		}
	}
}

func TestSampleClusterClampsAtEdges(t *testing.T) {
	g := New(&Options{Seed: 11})
	c := &Cluster{Center: spatial.Point{Lng: 179, Lat: 89}, DLng: 90, DLat: 45, Count: 1000}

	clampedLng, clampedLat := 0, 0

	for _, pair := range g.SampleCluster(c) {
		for _, p := range pair {
			require.True(t, p.Valid(), "%v", p)
			assert.GreaterOrEqual(t, p.Lng, 89.0)
			assert.GreaterOrEqual(t, p.Lat, 44.0)

			if p.Lng == spatial.MaxLng {
				clampedLng++
			}

			if p.Lat == spatial.MaxLat {
				clampedLat++
			}
		}
	}

	// roughly half of the draws land past the edge and pile up on it
	assert.Greater(t, clampedLng, 500)
	assert.Greater(t, clampedLat, 500)
}

func TestClusters(t *testing.T) {
	g := New(&Options{Seed: 3})
	clusters, err := g.Clusters(10, 4)
	require.NoError(t, err)
	require.Len(t, clusters, 4)

	counts := make([]int, 0, len(clusters))
	for _, c := range clusters {
		assert.True(t, c.Center.Valid())
		assert.InDelta(t, 90.0, c.DLng, 1e-12)
		assert.InDelta(t, 45.0, c.DLat, 1e-12)
		counts = append(counts, c.Count)
	}

	assert.Equal(t, Partition(10, 4), counts)
}

func TestSamplePairsFollowsClusterOrder(t *testing.T) {
	clusters := []Cluster{
		{Center: spatial.Point{Lng: -100, Lat: -45}, DLng: 1, DLat: 1, Count: 3},
		{Center: spatial.Point{Lng: 100, Lat: 45}, DLng: 1, DLat: 1, Count: 2},
		{Center: spatial.Point{Lng: 0, Lat: 0}, DLng: 1, DLat: 1, Count: 5},
	}

	pairs := NewWithRand(rand.New(rand.NewPCG(1, 2)), PolicyFaithful).SamplePairs(clusters)
	require.Len(t, pairs, 5)

	for _, pair := range pairs[:3] {
		assert.InDelta(t, -100, pair[0].Lng, 1)
		assert.InDelta(t, -45, pair[1].Lat, 1)
	}

	for _, pair := range pairs[3:] {
		assert.InDelta(t, 100, pair[0].Lng, 1)
		assert.InDelta(t, 45, pair[1].Lat, 1)
	}

	pairs = NewWithRand(rand.New(rand.NewPCG(1, 2)), PolicyCorrected).SamplePairs(clusters)
	require.Len(t, pairs, 10)

	for _, pair := range pairs[5:] {
		assert.InDelta(t, 0, pair[0].Lng, 1)
	}
}

func TestGeneratePairsReproducible(t *testing.T) {
	a, err := New(&Options{Seed: 42}).GeneratePairs(100, 4)
	require.NoError(t, err)

	b, err := New(&Options{Seed: 42}).GeneratePairs(100, 4)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different pairs (-a +b):\n%s", diff)
	}

	c, err := New(&Options{Seed: 43}).GeneratePairs(100, 4)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGeneratePairsPreconditions(t *testing.T) {
	g := New(&Options{})

	_, err := g.GeneratePairs(10, 0)
	require.ErrorIs(t, err, ErrInvalidClusters)

	_, err = g.GeneratePairs(10, -3)
	require.ErrorIs(t, err, ErrInvalidClusters)

	_, err = g.GeneratePairs(-1, 2)
	require.ErrorIs(t, err, ErrNegativePairs)
}

func TestSplit(t *testing.T) {
	pairs := []Pair{
		{{Lng: 1, Lat: 2}, {Lng: 3, Lat: 4}},
		{{Lng: 5, Lat: 6}, {Lng: 7, Lat: 8}},
	}

	p0, p1 := Split(pairs)
	assert.Equal(t, []spatial.Point{{Lng: 1, Lat: 2}, {Lng: 5, Lat: 6}}, p0)
	assert.Equal(t, []spatial.Point{{Lng: 3, Lat: 4}, {Lng: 7, Lat: 8}}, p1)
}
