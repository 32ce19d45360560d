// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Combines multiple closers to ensure all resources are released.
type multiReadCloser struct {
	io.ReadCloser
	underlying io.Closer
}

// Implements io.Closer and ensures all resources are properly released.
func (r *multiReadCloser) Close() error {
	return errors.Join(
		r.ReadCloser.Close(),
		r.underlying.Close(),
	)
}

func compressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// Save writes the record to path. Paths ending in .gz are gzip compressed.
// onPair is forwarded to Encode.
func Save(path string, r *Record, onPair func()) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("creating result file: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing file: %w", cerr))
		}
	}()

	var w io.Writer = f

	if compressed(path) {
		gw, gerr := gzip.NewWriterLevel(f, gzip.BestSpeed)
		if gerr != nil {
			return fmt.Errorf("creating gzip writer: %w", gerr)
		}

		defer func() {
			if cerr := gw.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("closing gzip writer: %w", cerr))
			}
		}()

		w = gw
	}

	if err := Encode(w, r, onPair); err != nil {
		return fmt.Errorf("writing result file: %w", err)
	}

	return nil
}

// Open returns a reader over the file contents, decompressing .gz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening result file: %w", err)
	}

	if !compressed(path) {
		return f, nil
	}

	gr, err := gzip.NewReader(f)
	if err != nil {
		err1 := f.Close()

		return nil, errors.Join(fmt.Errorf("creating gzip reader: %w", err), err1)
	}

	return &multiReadCloser{gr, f}, nil
}

// Load reads and decodes the record stored at path.
func Load(path string) (*Record, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rec, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return rec, nil
}
