// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"
	"math"
)

const (
	MinLng, MaxLng = -180.0, 180.0
	MinLat, MaxLat = -90.0, 90.0
)

// Point represents a point on the sphere, longitude and latitude in degrees.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Valid reports whether the point lies within the longitude and latitude ranges.
func (p Point) Valid() bool {
	return p.Lng >= MinLng && p.Lng <= MaxLng && p.Lat >= MinLat && p.Lat <= MaxLat
}

// Clamp returns the point with its coordinates clamped to the valid ranges.
func (p Point) Clamp() Point {
	return Point{
		Lng: math.Min(math.Max(p.Lng, MinLng), MaxLng),
		Lat: math.Min(math.Max(p.Lat, MinLat), MaxLat),
	}
}
