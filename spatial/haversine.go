// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius, handy as a --radius value.
const EarthRadiusKm = 6371.0

var (
	ErrLengthMismatch = errors.New("spatial: coordinate sequences have different lengths")
	ErrInvalidRadius  = errors.New("spatial: radius must be a positive finite number")
	ErrEmpty          = errors.New("spatial: average of an empty distance set")
)

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance between p0 and p1 on a sphere
// of the given radius. The result has the same unit as radius.
func Haversine(p0, p1 Point, radius float64) float64 {
	dLng := radians(p0.Lng - p1.Lng)
	lat0 := radians(p0.Lat)
	lat1 := radians(p1.Lat)
	dLat := lat1 - lat0

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	a := sinLat*sinLat + math.Cos(lat0)*math.Cos(lat1)*sinLng*sinLng

	// rounding can push a slightly outside [0, 1] for near-antipodal points
	a = math.Min(math.Max(a, 0), 1)

	return 2 * radius * math.Asin(math.Sqrt(a))
}

// HaversineDistances computes the distance for every aligned pair
// (p0[i], p1[i]). Both sequences must have the same length.
func HaversineDistances(p0, p1 []Point, radius float64) ([]float64, error) {
	if len(p0) != len(p1) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(p0), len(p1))
	}

	if err := ValidateRadius(radius); err != nil {
		return nil, err
	}

	distances := make([]float64, len(p0))
	for i := range p0 {
		distances[i] = Haversine(p0[i], p1[i], radius)
	}

	return distances, nil
}

// ValidateRadius rejects zero, negative, NaN and infinite radii.
func ValidateRadius(radius float64) error {
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}

	return nil
}

// Average returns the arithmetic mean of the distances.
func Average(distances []float64) (float64, error) {
	if len(distances) == 0 {
		return 0, ErrEmpty
	}

	var sum float64
	for _, d := range distances {
		sum += d
	}

	return sum / float64(len(distances)), nil
}

// AverageDistance is HaversineDistances followed by Average.
func AverageDistance(p0, p1 []Point, radius float64) (float64, error) {
	distances, err := HaversineDistances(p0, p1, radius)
	if err != nil {
		return 0, err
	}

	return Average(distances)
}
