// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package gendata

import (
	"fmt"
	"strings"
)

// Policy decides how many of the partitioned clusters are sampled from.
type Policy int

const (
	// PolicyFaithful samples max(n, 2) - 1 clusters, so the pairs allotted to
	// the last cluster are never emitted when there is more than one.
	PolicyFaithful Policy = iota
	// PolicyCorrected samples every cluster and always emits the requested
	// number of pairs.
	PolicyCorrected
)

var policyNames = map[Policy]string{
	PolicyFaithful:  "faithful",
	PolicyCorrected: "corrected",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}

	return fmt.Sprintf("Policy(%d)", int(p))
}

// Set implements pflag.Value.
func (p *Policy) Set(s string) error {
	policy, err := ParsePolicy(s)
	if err != nil {
		return err
	}

	*p = policy

	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string {
	return "policy"
}

// ParsePolicy parses a policy name, case insensitive.
func ParsePolicy(s string) (Policy, error) {
	for policy, name := range policyNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return policy, nil
		}
	}

	return 0, fmt.Errorf("unknown policy %q (want faithful or corrected)", s)
}

// SampledClusters returns how many of the n partitioned clusters are sampled.
func (p Policy) SampledClusters(n int) int {
	if p == PolicyCorrected {
		return n
	}

	return max(n, 2) - 1
}
