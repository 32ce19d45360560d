// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package record reads and writes result records: the generated pairs
// together with their average haversine distance and the sphere radius.
package record

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jcodagnone/haversine/spatial"
)

// Pair holds the two points of an observation. X is longitude and Y is
// latitude, both in degrees.
type Pair struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Record is the persisted outcome of a generation run.
type Record struct {
	Pairs   []Pair  `json:"pairs"`
	AvgDist float64 `json:"avg_dist"`
	Radius  float64 `json:"radius"`
}

// FromPoints builds a record from aligned point slices.
func FromPoints(p0, p1 []spatial.Point, avgDist, radius float64) (*Record, error) {
	if len(p0) != len(p1) {
		return nil, fmt.Errorf("%w: %d != %d", spatial.ErrLengthMismatch, len(p0), len(p1))
	}

	pairs := make([]Pair, len(p0))
	for i := range p0 {
		pairs[i] = Pair{X0: p0[i].Lng, Y0: p0[i].Lat, X1: p1[i].Lng, Y1: p1[i].Lat}
	}

	return &Record{Pairs: pairs, AvgDist: avgDist, Radius: radius}, nil
}

// Points splits the pairs into first and second points.
func (r *Record) Points() (p0, p1 []spatial.Point) {
	p0 = make([]spatial.Point, len(r.Pairs))
	p1 = make([]spatial.Point, len(r.Pairs))

	for i, pair := range r.Pairs {
		p0[i] = spatial.Point{Lng: pair.X0, Lat: pair.Y0}
		p1[i] = spatial.Point{Lng: pair.X1, Lat: pair.Y1}
	}

	return p0, p1
}

// Recompute calculates the average distance of the stored pairs on a sphere
// of the stored radius.
func (r *Record) Recompute() (float64, error) {
	p0, p1 := r.Points()

	return spatial.AverageDistance(p0, p1, r.Radius)
}

// Encode writes the record as JSON with one pair per line. onPair, if not
// nil, is called after each pair is written.
func Encode(w io.Writer, r *Record, onPair func()) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("{\n  \"pairs\": ["); err != nil {
		return err
	}

	for i, pair := range r.Pairs {
		b, err := json.Marshal(pair)
		if err != nil {
			return fmt.Errorf("encoding pair %d: %w", i, err)
		}

		sep := ",\n    "
		if i == 0 {
			sep = "\n    "
		}

		if _, err := bw.WriteString(sep); err != nil {
			return err
		}

		if _, err := bw.Write(b); err != nil {
			return err
		}

		if onPair != nil {
			onPair()
		}
	}

	if len(r.Pairs) > 0 {
		if _, err := bw.WriteString("\n  "); err != nil {
			return err
		}
	}

	avg, err := json.Marshal(r.AvgDist)
	if err != nil {
		return fmt.Errorf("encoding avg_dist: %w", err)
	}

	radius, err := json.Marshal(r.Radius)
	if err != nil {
		return fmt.Errorf("encoding radius: %w", err)
	}

	if _, err := fmt.Fprintf(bw, "],\n  \"avg_dist\": %s,\n  \"radius\": %s\n}\n", avg, radius); err != nil {
		return err
	}

	return bw.Flush()
}

// Decode reads a record, streaming the pairs array so that large files
// aren't held twice in memory. Unknown keys are ignored; pairs, avg_dist
// and radius are required, as is every coordinate of every pair.
func Decode(r io.Reader) (*Record, error) {
	dec := json.NewDecoder(bufio.NewReader(r))

	if err := expectDelim(dec, '{', "", -1); err != nil {
		return nil, err
	}

	var (
		rec                          Record
		seenPairs, seenAvg, seenRads bool
	)

	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		switch key {
		case "pairs":
			if rec.Pairs, err = decodePairs(dec); err != nil {
				return nil, err
			}

			seenPairs = true
		case "avg_dist":
			if err := decodeNumber(dec, &rec.AvgDist, key); err != nil {
				return nil, err
			}

			seenAvg = true
		case "radius":
			if err := decodeNumber(dec, &rec.Radius, key); err != nil {
				return nil, err
			}

			seenRads = true
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, &FormatError{Field: key, Index: -1, Err: err}
			}
		}
	}

	if err := expectDelim(dec, '}', "", -1); err != nil {
		return nil, err
	}

	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("unexpected data after the record: %v", tok)
		}

		return nil, &FormatError{Index: -1, Err: err}
	}

	switch {
	case !seenPairs:
		return nil, missing("pairs", -1)
	case !seenAvg:
		return nil, missing("avg_dist", -1)
	case !seenRads:
		return nil, missing("radius", -1)
	}

	return &rec, nil
}

// rawPair detects absent coordinates, which a plain Pair would read as 0.
type rawPair struct {
	X0 *float64 `json:"x0"`
	Y0 *float64 `json:"y0"`
	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
}

func decodePairs(dec *json.Decoder) ([]Pair, error) {
	if err := expectDelim(dec, '[', "pairs", -1); err != nil {
		return nil, err
	}

	var pairs []Pair

	for i := 0; dec.More(); i++ {
		var raw rawPair
		if err := dec.Decode(&raw); err != nil {
			return nil, &FormatError{Index: i, Err: err}
		}

		fields := []struct {
			name string
			v    *float64
		}{{"x0", raw.X0}, {"y0", raw.Y0}, {"x1", raw.X1}, {"y1", raw.Y1}}
		for _, f := range fields {
			if f.v == nil {
				return nil, missing(f.name, i)
			}
		}

		pairs = append(pairs, Pair{X0: *raw.X0, Y0: *raw.Y0, X1: *raw.X1, Y1: *raw.Y1})
	}

	if err := expectDelim(dec, ']', "pairs", -1); err != nil {
		return nil, err
	}

	if pairs == nil {
		pairs = []Pair{}
	}

	return pairs, nil
}

func decodeNumber(dec *json.Decoder, dst *float64, field string) error {
	var v *float64
	if err := dec.Decode(&v); err != nil {
		return &FormatError{Field: field, Index: -1, Err: err}
	}

	if v == nil {
		return missing(field, -1)
	}

	*dst = *v

	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", &FormatError{Index: -1, Err: err}
	}

	key, ok := tok.(string)
	if !ok {
		return "", &FormatError{Index: -1, Err: fmt.Errorf("expected object key, got %v", tok)}
	}

	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim, field string, index int) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return &FormatError{Field: field, Index: index, Err: err}
	}

	if d, ok := tok.(json.Delim); !ok || d != want {
		return &FormatError{Field: field, Index: index, Err: fmt.Errorf("expected %q, got %v", want, tok)}
	}

	return nil
}
