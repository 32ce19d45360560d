// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/haversine/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *Record {
	return &Record{
		Pairs: []Pair{
			{X0: 0, Y0: 0, X1: 180, Y1: 0},
			{X0: 10, Y0: 20, X1: 10, Y1: 20},
			{X0: -56.1645, Y0: -34.9011, X1: 2.3522, Y1: 48.8566},
		},
		AvgDist: 1.25,
		Radius:  6371,
	}
}

func TestEncodeDecode(t *testing.T) {
	rec := sampleRecord()

	var buf bytes.Buffer

	calls := 0
	require.NoError(t, Encode(&buf, rec, func() { calls++ }))
	assert.Equal(t, len(rec.Pairs), calls)

	// the output must also be plain JSON
	var generic map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &generic))
	assert.Contains(t, generic, "pairs")
	assert.Contains(t, generic, "avg_dist")
	assert.Contains(t, generic, "radius")

	got, err := Decode(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &Record{Radius: 1}, nil))
	assert.Contains(t, buf.String(), `"pairs": []`)

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, got.Pairs)
	assert.NotNil(t, got.Pairs)
}

func TestDecodeAllowsTrailingWhitespace(t *testing.T) {
	got, err := Decode(strings.NewReader("{\"pairs\": [], \"avg_dist\": 1, \"radius\": 1}\n\n  \t"))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Radius, 1e-12)
}

func TestDecodeIgnoresUnknownKeysAndOrder(t *testing.T) {
	in := `{
		"radius": 2,
		"comment": {"nested": [1, 2, {"x0": 3}]},
		"avg_dist": 0.5,
		"pairs": [{"y1": 4, "x1": 3, "y0": 2, "x0": 1, "extra": true}]
	}`

	got, err := Decode(strings.NewReader(in))
	require.NoError(t, err)

	expected := &Record{Pairs: []Pair{{X0: 1, Y0: 2, X1: 3, Y1: 4}}, AvgDist: 0.5, Radius: 2}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		missing bool
		want    string
	}{
		{
			name:    "missing radius",
			in:      `{"pairs": [], "avg_dist": 1}`,
			missing: true,
			want:    "radius",
		},
		{
			name:    "missing avg_dist",
			in:      `{"pairs": [], "radius": 1}`,
			missing: true,
			want:    "avg_dist",
		},
		{
			name:    "missing pairs",
			in:      `{"avg_dist": 1, "radius": 1}`,
			missing: true,
			want:    "pairs",
		},
		{
			name:    "missing coordinate",
			in:      `{"pairs": [{"x0": 1, "y0": 2, "x1": 3, "y1": 4}, {"x0": 1, "y0": 2, "x1": 3}], "avg_dist": 1, "radius": 1}`,
			missing: true,
			want:    "pairs[1].y1",
		},
		{
			name:    "null radius",
			in:      `{"pairs": [], "avg_dist": 1, "radius": null}`,
			missing: true,
			want:    "radius",
		},
		{
			name: "string coordinate",
			in:   `{"pairs": [{"x0": "1", "y0": 2, "x1": 3, "y1": 4}], "avg_dist": 1, "radius": 1}`,
			want: "pairs[0]",
		},
		{
			name: "pairs is not an array",
			in:   `{"pairs": {}, "avg_dist": 1, "radius": 1}`,
			want: "pairs",
		},
		{
			name: "not an object",
			in:   `[1, 2]`,
		},
		{
			name: "truncated",
			in:   `{"pairs": [{"x0": 1, "y0": 2, "x1": 3, "y1": 4}`,
		},
		{
			name: "empty input",
			in:   ``,
		},
		{
			name: "trailing data",
			in:   `{"pairs": [], "avg_dist": 1, "radius": 1} garbage {`,
		},
		{
			name: "second record",
			in:   `{"pairs": [], "avg_dist": 1, "radius": 1} {}`,
			want: "unexpected data after the record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			require.Error(t, err)
			require.ErrorIs(t, err, ErrMalformed)
			assert.Equal(t, tt.missing, IsMissingField(err))

			var fe *FormatError
			require.True(t, errors.As(err, &fe))

			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestFormatErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &FormatError{Field: "radius", Index: -1, Err: inner}

	require.ErrorIs(t, err, inner)
	require.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, "malformed result record at radius: inner", err.Error())

	assert.Equal(t, "malformed result record", (&FormatError{Index: -1}).Error())
	assert.False(t, IsMissingField(inner))
}

func TestFromPointsAndPoints(t *testing.T) {
	p0 := []spatial.Point{{Lng: 0, Lat: 0}, {Lng: 10, Lat: 20}}
	p1 := []spatial.Point{{Lng: 180, Lat: 0}, {Lng: 10, Lat: 20}}

	rec, err := FromPoints(p0, p1, math.Pi/2, 1)
	require.NoError(t, err)
	assert.Equal(t, Pair{X0: 0, Y0: 0, X1: 180, Y1: 0}, rec.Pairs[0])

	q0, q1 := rec.Points()
	assert.Equal(t, p0, q0)
	assert.Equal(t, p1, q1)

	avg, err := rec.Recompute()
	require.NoError(t, err)
	assert.InDelta(t, rec.AvgDist, avg, 1e-12)

	_, err = FromPoints(p0, p1[:1], 0, 1)
	require.ErrorIs(t, err, spatial.ErrLengthMismatch)
}

func TestRecomputeEmpty(t *testing.T) {
	_, err := (&Record{Pairs: []Pair{}, Radius: 1}).Recompute()
	require.ErrorIs(t, err, spatial.ErrEmpty)
}
