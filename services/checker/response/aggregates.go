// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package response

import (
	"maps"
	"slices"

	"github.com/AleutianAI/nuchem/services/checker/fraction"
)

// Aggregate bookkeeping is scoped by bracket depth. Depth 0 writes into the
// term totals; depth d > 0 writes into bracket level d-1. When a bracket
// finishes, its level is multiplied by the bracket coefficient and folded
// into the level above. When a term finishes, the term totals are multiplied
// by the term coefficient and folded into the side totals.

// AddAtoms returns r with n atoms of symbol recorded at depth.
func (r Response) AddAtoms(depth int, symbol string, n int) Response {
	if depth <= 0 {
		r.TermAtomCount = addCount(r.TermAtomCount, symbol, n)
		return r
	}
	levels := growAtomLevels(r.BracketAtomCount, depth)
	levels[depth-1] = addCount(levels[depth-1], symbol, n)
	r.BracketAtomCount = levels
	return r
}

// AddCharge returns r with charge recorded at depth.
func (r Response) AddCharge(depth int, charge int) Response {
	if depth <= 0 {
		r.TermChargeCount += charge
		return r
	}
	levels := growChargeLevels(r.BracketChargeCount, depth)
	levels[depth-1] += charge
	r.BracketChargeCount = levels
	return r
}

// FoldBracket closes the bracket sitting at depth.
//
// Description:
//
//	The bracket's contents were recorded at level index depth (elements at
//	depth+1). Those counts are multiplied by coeff and added one level up,
//	into bracket level depth-1 or the term totals when depth is 0. The
//	consumed level and anything deeper is then discarded.
//
// Inputs:
//
//	depth - Depth of the compound containing the bracket.
//	coeff - The bracket's multiplicity.
//
// Outputs:
//
//	Response - The response with the level folded.
func (r Response) FoldBracket(depth int, coeff int) Response {
	if depth < 0 {
		depth = 0
	}
	if depth < len(r.BracketAtomCount) {
		level := r.BracketAtomCount[depth]
		for sym, n := range level {
			r = r.AddAtoms(depth, sym, n*coeff)
		}
		r.BracketAtomCount = slices.Clone(r.BracketAtomCount[:depth])
		if len(r.BracketAtomCount) == 0 {
			r.BracketAtomCount = nil
		}
	}
	if depth < len(r.BracketChargeCount) {
		charge := r.BracketChargeCount[depth]
		r = r.AddCharge(depth, charge*coeff)
		r.BracketChargeCount = slices.Clone(r.BracketChargeCount[:depth])
		if len(r.BracketChargeCount) == 0 {
			r.BracketChargeCount = nil
		}
	}
	return r
}

// FoldTerm closes a term with coefficient coeff.
//
// The term atom and charge totals are scaled by coeff, added to the side
// totals and reset.
func (r Response) FoldTerm(coeff fraction.Fraction) Response {
	if len(r.TermAtomCount) > 0 {
		atoms := maps.Clone(r.AtomCount)
		if atoms == nil {
			atoms = make(map[string]fraction.Fraction, len(r.TermAtomCount))
		}
		for sym, n := range r.TermAtomCount {
			prev, ok := atoms[sym]
			if !ok {
				prev = fraction.Zero()
			}
			atoms[sym] = fraction.Add(prev, fraction.Multiply(fraction.FromInt(n), coeff))
		}
		r.AtomCount = atoms
	}
	charge := fraction.Add(r.ChargeOrZero(), fraction.Multiply(fraction.FromInt(r.TermChargeCount), coeff))
	r.ChargeCount = &charge
	r.TermAtomCount = nil
	r.TermChargeCount = 0
	return r
}

// AddNucleons returns r with n added to the term nucleon total.
func (r Response) AddNucleons(n Nucleons) Response {
	sum := n
	if r.TermNucleonCount != nil {
		sum = r.TermNucleonCount.Add(n)
	}
	r.TermNucleonCount = &sum
	return r
}

// FoldNucleons closes a nuclear term with coefficient coeff.
func (r Response) FoldNucleons(coeff int) Response {
	total := r.NucleonsOrZero()
	if r.TermNucleonCount != nil {
		total = total.Add(r.TermNucleonCount.Scale(coeff))
	}
	r.NucleonCount = &total
	r.TermNucleonCount = nil
	return r
}

func addCount(m map[string]int, symbol string, n int) map[string]int {
	out := maps.Clone(m)
	if out == nil {
		out = make(map[string]int, 1)
	}
	out[symbol] += n
	return out
}

func growAtomLevels(levels []map[string]int, depth int) []map[string]int {
	out := slices.Clone(levels)
	for len(out) < depth {
		out = append(out, nil)
	}
	return out
}

func growChargeLevels(levels []int, depth int) []int {
	out := slices.Clone(levels)
	for len(out) < depth {
		out = append(out, 0)
	}
	return out
}
