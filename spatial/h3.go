// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"fmt"

	"github.com/uber/h3-go/v4"
)

// MaxH3Res is the finest H3 resolution.
const MaxH3Res = 15

var ErrInvalidH3Res = errors.New("spatial: h3 resolution must be between 0 and 15")

// ValidateH3Res rejects resolutions H3 doesn't define.
func ValidateH3Res(res int) error {
	if res < 0 || res > MaxH3Res {
		return fmt.Errorf("%w: %d", ErrInvalidH3Res, res)
	}

	return nil
}

// Cell returns the H3 cell containing the point at the given resolution.
func (p Point) Cell(res int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
	}

	return cell, nil
}

// CellCoverage counts the distinct H3 cells at resolution res touched by
// the points. Tightly clustered points cover few cells.
func CellCoverage(points []Point, res int) (int, error) {
	cells := make(map[h3.Cell]struct{})

	for _, p := range points {
		cell, err := p.Cell(res)
		if err != nil {
			return 0, err
		}

		cells[cell] = struct{}{}
	}

	return len(cells), nil
}
