// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// CentralAngle returns the angle in radians between p0 and p1 as computed by
// the s2 library. It does not share any code with Haversine and is used to
// cross-check it.
func CentralAngle(p0, p1 Point) float64 {
	a := s2.LatLngFromDegrees(p0.Lat, p0.Lng)
	b := s2.LatLngFromDegrees(p1.Lat, p1.Lng)

	return a.Distance(b).Radians()
}

// CrossCheck summarises how far the s2 distances are from the haversine ones.
type CrossCheck struct {
	Average      float64
	MaxDeviation float64
}

// CrossCheckDistances recomputes every distance with CentralAngle and compares
// it with the already computed haversine distances.
func CrossCheckDistances(p0, p1 []Point, distances []float64, radius float64) (*CrossCheck, error) {
	if len(p0) != len(p1) || len(p0) != len(distances) {
		return nil, fmt.Errorf("%w: %d, %d and %d", ErrLengthMismatch, len(p0), len(p1), len(distances))
	}

	if len(p0) == 0 {
		return nil, ErrEmpty
	}

	var (
		sum    float64
		maxDev float64
	)

	for i := range p0 {
		d := radius * CentralAngle(p0[i], p1[i])
		sum += d
		maxDev = math.Max(maxDev, math.Abs(d-distances[i]))
	}

	return &CrossCheck{
		Average:      sum / float64(len(p0)),
		MaxDeviation: maxDev,
	}, nil
}
