// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package response defines the accumulator threaded through equivalence
// checking, together with the list matchers that compare child sequences.
//
// # Value Semantics
//
// Response is passed and returned by value. Every method that changes an
// aggregate (a map, slice or pointer field) allocates a fresh copy before
// writing, so a Response handed to one recursive call can never observe
// changes made by a sibling call. No explicit cloning is needed by callers.
package response

import (
	"maps"

	"github.com/AleutianAI/nuchem/services/checker/fraction"
)

// Options are the caller-supplied policy flags for one check.
type Options struct {
	// AllowPermutations compares compound, ion and expression children as
	// multisets instead of by position.
	AllowPermutations bool `json:"allowPermutations"`

	// AllowScalingCoefficients accepts term coefficients that are all scaled
	// by one common ratio.
	AllowScalingCoefficients bool `json:"allowScalingCoefficients"`

	// KeepAggregates retains the atom, charge and nucleon bookkeeping in the
	// returned response.
	KeepAggregates bool `json:"keepAggregates"`
}

// Nucleons is an (atomic number, mass number) pair.
type Nucleons struct {
	Atomic int `json:"atomic"`
	Mass   int `json:"mass"`
}

// Add returns the component-wise sum of n and o.
func (n Nucleons) Add(o Nucleons) Nucleons {
	return Nucleons{Atomic: n.Atomic + o.Atomic, Mass: n.Mass + o.Mass}
}

// Scale returns n with both components multiplied by k.
func (n Nucleons) Scale(k int) Nucleons {
	return Nucleons{Atomic: n.Atomic * k, Mass: n.Mass * k}
}

// Response is the result of comparing a test tree against a target tree.
//
// The boolean flags report per-property equivalence. The aggregate fields
// are running totals collected during recursion and are stripped before the
// response leaves Check unless Options.KeepAggregates is set.
type Response struct {
	IsEqual           bool `json:"isEqual"`
	TypeMismatch      bool `json:"typeMismatch"`
	ContainsError     bool `json:"containsError"`
	SameCoefficient   bool `json:"sameCoefficient"`
	SameElements      bool `json:"sameElements"`
	SameState         bool `json:"sameState"`
	SameHydrate       bool `json:"sameHydrate"`
	SameCharge        bool `json:"sameCharge"`
	SameArrow         bool `json:"sameArrow"`
	SameBrackets      bool `json:"sameBrackets"`
	ValidAtomicNumber bool `json:"validAtomicNumber"`
	IsBalanced        bool `json:"isBalanced"`
	IsChargeBalanced  bool `json:"isChargeBalanced"`
	BalancedAtom      bool `json:"balancedAtom"`
	BalancedMass      bool `json:"balancedMass"`
	IsNuclear         bool `json:"isNuclear"`

	Error        string `json:"error,omitempty"`
	ExpectedType string `json:"expectedType,omitempty"`
	ReceivedType string `json:"receivedType,omitempty"`

	// CoefficientScalingValue is the ratio established by the first term
	// when scaling is allowed. Nil until a term sets it.
	CoefficientScalingValue *fraction.Fraction `json:"coefficientScalingValue,omitempty"`

	// CheckingPermutations guards against re-entering the permutation
	// self-comparison of a compound.
	CheckingPermutations bool `json:"-"`

	TermAtomCount      map[string]int               `json:"termAtomCount,omitempty"`
	BracketAtomCount   []map[string]int             `json:"bracketAtomCount,omitempty"`
	AtomCount          map[string]fraction.Fraction `json:"atomCount,omitempty"`
	TermChargeCount    int                          `json:"termChargeCount,omitempty"`
	BracketChargeCount []int                        `json:"bracketChargeCount,omitempty"`
	ChargeCount        *fraction.Fraction           `json:"chargeCount,omitempty"`
	TermNucleonCount   *Nucleons                    `json:"termNucleonCount,omitempty"`
	NucleonCount       *Nucleons                    `json:"nucleonCount,omitempty"`

	Options Options `json:"options"`
}

// New returns a starting response with every property flag set.
func New(opts Options, nuclear bool) Response {
	return Response{
		IsEqual:           true,
		SameCoefficient:   true,
		SameElements:      true,
		SameState:         true,
		SameHydrate:       true,
		SameCharge:        true,
		SameArrow:         true,
		SameBrackets:      true,
		ValidAtomicNumber: true,
		IsBalanced:        true,
		IsChargeBalanced:  true,
		BalancedAtom:      true,
		BalancedMass:      true,
		IsNuclear:         nuclear,
		Options:           opts,
	}
}

// Merge combines the responses of two independently checked subtrees.
//
// Description:
//
//	Property flags are combined with AND, TypeMismatch with OR. The first
//	error wins: b's error is taken only when a has none. Chemistry responses
//	merge the charge, hydrate, state and bracket flags; nuclear responses
//	merge ValidAtomicNumber instead. Aggregates are taken from a, so a
//	checked statement reports the left side's totals only; balance against
//	the right side is already decided into IsBalanced. The
//	scaling value is taken from b when set, since b is checked after a.
//
// Inputs:
//
//	a - The first (left) response.
//	b - The second (right) response.
//
// Outputs:
//
//	Response - The merged response.
func Merge(a, b Response) Response {
	out := a
	if b.ContainsError && !a.ContainsError {
		out.ContainsError = true
		out.Error = b.Error
	}
	out.IsEqual = a.IsEqual && b.IsEqual
	out.TypeMismatch = a.TypeMismatch || b.TypeMismatch
	out.SameCoefficient = a.SameCoefficient && b.SameCoefficient
	out.SameElements = a.SameElements && b.SameElements
	if a.IsNuclear {
		out.ValidAtomicNumber = a.ValidAtomicNumber && b.ValidAtomicNumber
	} else {
		out.SameCharge = a.SameCharge && b.SameCharge
		out.SameHydrate = a.SameHydrate && b.SameHydrate
		out.SameState = a.SameState && b.SameState
		out.SameBrackets = a.SameBrackets && b.SameBrackets
	}
	if b.CoefficientScalingValue != nil {
		out.CoefficientScalingValue = b.CoefficientScalingValue
	}
	return out
}

// WithError marks r as containing an error with the given message.
//
// An existing message is kept so the first error wins.
func (r Response) WithError(message string) Response {
	if !r.ContainsError {
		r.Error = message
	}
	r.ContainsError = true
	r.IsEqual = false
	return r
}

// StripAggregates returns r without any aggregate bookkeeping.
func (r Response) StripAggregates() Response {
	r.TermAtomCount = nil
	r.BracketAtomCount = nil
	r.AtomCount = nil
	r.TermChargeCount = 0
	r.BracketChargeCount = nil
	r.ChargeCount = nil
	r.TermNucleonCount = nil
	r.NucleonCount = nil
	return r
}

// WithAggregatesFrom returns r carrying other's aggregate bookkeeping.
func (r Response) WithAggregatesFrom(other Response) Response {
	r.TermAtomCount = other.TermAtomCount
	r.BracketAtomCount = other.BracketAtomCount
	r.AtomCount = other.AtomCount
	r.TermChargeCount = other.TermChargeCount
	r.BracketChargeCount = other.BracketChargeCount
	r.ChargeCount = other.ChargeCount
	r.TermNucleonCount = other.TermNucleonCount
	r.NucleonCount = other.NucleonCount
	return r
}

// WithHarvest returns r carrying the aggregates of self, a comparison of the
// test side against itself. Properties of the test side alone survive too:
// an invalid atomic number or an error found in self is kept on r.
func (r Response) WithHarvest(self Response) Response {
	r = r.WithAggregatesFrom(self)
	r.ValidAtomicNumber = r.ValidAtomicNumber && self.ValidAtomicNumber
	if self.ContainsError {
		r = r.WithError(self.Error)
	}
	return r
}

// AtomCountsEqual reports whether two side totals hold the same amount of
// every element. A missing element counts as zero.
func AtomCountsEqual(a, b map[string]fraction.Fraction) bool {
	keys := maps.Clone(a)
	if keys == nil {
		keys = make(map[string]fraction.Fraction, len(b))
	}
	maps.Copy(keys, b)
	for sym := range keys {
		if !fraction.Equal(countOf(a, sym), countOf(b, sym)) {
			return false
		}
	}
	return true
}

// ChargeOrZero returns the charge total, or zero when none was recorded.
func (r Response) ChargeOrZero() fraction.Fraction {
	if r.ChargeCount == nil {
		return fraction.Zero()
	}
	return *r.ChargeCount
}

// NucleonsOrZero returns the nucleon total, or zero when none was recorded.
func (r Response) NucleonsOrZero() Nucleons {
	if r.NucleonCount == nil {
		return Nucleons{}
	}
	return *r.NucleonCount
}

func countOf(m map[string]fraction.Fraction, sym string) fraction.Fraction {
	if v, ok := m[sym]; ok {
		return v
	}
	return fraction.Zero()
}
