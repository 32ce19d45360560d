// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package stopwatch measures the phases of a command.
package stopwatch

import (
	"log"
	"time"
)

// Stopwatch measures consecutive phases since it was started.
type Stopwatch struct {
	now   func() time.Time
	start time.Time
	last  time.Time
}

// Start returns a running stopwatch.
func Start() *Stopwatch {
	return startWith(time.Now)
}

func startWith(now func() time.Time) *Stopwatch {
	t := now()

	return &Stopwatch{now: now, start: t, last: t}
}

// Lap closes the current phase and returns its duration.
func (s *Stopwatch) Lap() time.Duration {
	t := s.now()
	d := t.Sub(s.last)
	s.last = t

	return d
}

// Total is the time between Start and the last lap.
func (s *Stopwatch) Total() time.Duration {
	return s.last.Sub(s.start)
}

// Throughput is n divided by the total elapsed time, in units per second.
func (s *Stopwatch) Throughput(n int) float64 {
	total := s.Total().Seconds()
	if total <= 0 {
		return 0
	}

	return float64(n) / total
}

// Time logs how long the function deferring the returned closure took, and
// its error if any.
//
//	defer stopwatch.Time("save")(&err)
func Time(name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("op=%s dur=%dms err=%v", name, dur.Milliseconds(), *errp)

			return
		}

		log.Printf("op=%s dur=%dms", name, dur.Milliseconds())
	}
}
