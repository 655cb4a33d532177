// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chemistry

import (
	"log/slog"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/AleutianAI/nuchem/services/checker/fraction"
	"github.com/AleutianAI/nuchem/services/checker/response"
)

// UnaugmentedMessage is reported when Check meets a compound, ion or
// expression that still has its chained parser form.
const UnaugmentedMessage = "Received unaugmented AST during checking process."

// Checker compares chemistry trees.
type Checker struct {
	logger *slog.Logger
}

// NewChecker creates a Checker that reports contract violations to logger.
// A nil logger uses slog.Default().
func NewChecker(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{logger: logger.With("domain", "chemistry")}
}

// Check compares test against target with a default Checker.
func Check(test, target Node, opts response.Options) response.Response {
	return NewChecker(nil).Check(test, target, opts)
}

// Check compares an augmented test tree against an augmented target tree.
//
// # Description
//
// Rules are applied in order:
//
//  1. A test root that is an *ErrorNode yields ContainsError with the
//     target's error message when the target is also an error, else the
//     test's. The recursive comparison is not run.
//  2. A target root that is an *ErrorNode yields IsEqual=false.
//  3. Roots of different kinds yield TypeMismatch with ExpectedType set.
//  4. Structurally identical roots are equal. Without KeepAggregates this
//     returns immediately; with it the comparison still runs to collect
//     the bookkeeping.
//
// Otherwise the trees are compared recursively and the per-property flags
// are folded into IsEqual. Aggregates are stripped unless
// opts.KeepAggregates is set.
//
// # Inputs
//
//   - test: The submitted tree, already augmented.
//   - target: The reference tree, already augmented.
//   - opts: Policy flags for this comparison.
//
// # Outputs
//
//   - response.Response: The comparison result. Never fails; every problem
//     is reported through the response flags.
func (c *Checker) Check(test, target Node, opts response.Options) response.Response {
	if test == nil {
		test = &ErrorNode{Message: EmptyASTMessage}
	}
	if target == nil {
		target = &ErrorNode{Message: EmptyASTMessage}
	}

	resp := response.New(opts, false)
	resp.ExpectedType = string(target.Kind())
	resp.ReceivedType = string(test.Kind())

	if testErr, ok := test.(*ErrorNode); ok {
		message := testErr.Message
		if targetErr, ok := target.(*ErrorNode); ok {
			message = targetErr.Message
		}
		return resp.WithError(message)
	}
	if _, ok := target.(*ErrorNode); ok {
		resp.IsEqual = false
		return resp
	}
	if test.Kind() != target.Kind() {
		resp.TypeMismatch = true
		resp.IsEqual = false
		return resp
	}

	identical := cmp.Equal(test, target)
	if identical && !opts.KeepAggregates {
		return resp
	}

	out := c.compare(test, target, resp)
	out.IsEqual = out.IsEqual &&
		out.SameCoefficient &&
		out.SameState &&
		out.SameHydrate &&
		out.SameBrackets &&
		out.SameCharge &&
		out.SameElements &&
		out.SameArrow &&
		!out.ContainsError
	if identical {
		out.IsEqual = true
	}
	out.CheckingPermutations = false

	if !opts.KeepAggregates {
		out = out.StripAggregates()
	}
	return out
}

// compare dispatches on the pair of node kinds.
func (c *Checker) compare(test, target Node, state response.Response) response.Response {
	if test == nil || target == nil {
		return c.unaugmented(state, "missing node")
	}

	switch t := test.(type) {
	case *Element:
		if g, ok := target.(*Element); ok {
			return c.compareElements(t, g, state)
		}
	case *Bracket:
		if g, ok := target.(*Bracket); ok {
			return c.compareBrackets(t, g, state)
		}
	case *Compound:
		if g, ok := target.(*Compound); ok {
			return c.compareCompounds(t, g, state)
		}
	case *Ion:
		if g, ok := target.(*Ion); ok {
			return c.compareIons(t, g, state)
		}
	case *Electron:
		if _, ok := target.(*Electron); ok {
			return state
		}
	case *Term:
		if g, ok := target.(*Term); ok {
			return c.compareTerms(t, g, state)
		}
	case *Expression:
		if g, ok := target.(*Expression); ok {
			return c.compareExpressions(t, g, state)
		}
	case *Statement:
		if g, ok := target.(*Statement); ok {
			return c.compareStatements(t, g, state)
		}
	}
	return c.mismatch(test, state)
}

// mismatch handles two nodes of different kinds. The test node is compared
// with itself so its aggregates are still reported.
func (c *Checker) mismatch(test Node, state response.Response) response.Response {
	state.SameElements = false
	state.IsEqual = false
	if e, ok := test.(*ErrorNode); ok {
		return state.WithError(e.Message)
	}
	return state.WithHarvest(c.compare(test, test, state))
}

func (c *Checker) unaugmented(state response.Response, kind Kind) response.Response {
	c.logger.Error("Encountered unaugmented AST", "kind", kind)
	return state.WithError(UnaugmentedMessage)
}

func (c *Checker) compareElements(test, target *Element, state response.Response) response.Response {
	// Inside a compound under permutation the enclosing compound decides
	// by atom count.
	if !state.Options.AllowPermutations || !test.PartOfCompound {
		same := test.Symbol == target.Symbol && test.Coeff == target.Coeff
		state.SameElements = state.SameElements && same
		state.IsEqual = state.IsEqual && same
	}
	return state.AddAtoms(test.BracketDepth, test.Symbol, test.Coeff)
}

func (c *Checker) compareBrackets(test, target *Bracket, state response.Response) response.Response {
	if test.Compound == nil || target.Compound == nil {
		return c.unaugmented(state, KindBracket)
	}

	out := c.compareCompounds(test.Compound, target.Compound, state)

	sameShape := test.Shape == target.Shape
	sameCoeff := test.Coeff == target.Coeff
	out.SameBrackets = out.SameBrackets && sameShape
	out.SameElements = out.SameElements && sameCoeff
	out.IsEqual = out.IsEqual && sameShape && sameCoeff

	return out.FoldBracket(test.BracketDepth, test.Coeff)
}

// compareCompounds compares two compounds.
//
// Positional mode requires the same children in the same order. A
// difference in length or in the element/bracket mix clears SameElements;
// a difference with the same mix only clears IsEqual.
//
// Permutation mode compares each side with itself to total its atoms and
// then compares the totals, so CH3(CH2)8CH3 and C10H22 are equal.
func (c *Checker) compareCompounds(test, target *Compound, state response.Response) response.Response {
	if len(test.Elements) == 0 || len(target.Elements) == 0 {
		return c.unaugmented(state, KindCompound)
	}

	if !state.Options.AllowPermutations {
		if !cmp.Equal(test, target) {
			if len(test.Elements) != len(target.Elements) || !childKindsMatch(test.Elements, target.Elements) {
				state.SameElements = false
			}
			state.IsEqual = false
		}
		return response.LinearComparison(test.Elements, target.Elements, state, c.compare)
	}

	if state.CheckingPermutations {
		return response.LinearComparison(test.Elements, target.Elements, state, c.compare)
	}

	probe := state
	probe.CheckingPermutations = true
	testTotals := response.Harvest(test.Elements, probe, c.compare)
	targetTotals := response.Harvest(target.Elements, probe, c.compare)

	out := testTotals
	out.CheckingPermutations = state.CheckingPermutations
	if !sameAtoms(testTotals, targetTotals) {
		out.SameElements = false
		out.IsEqual = false
	}
	return out
}

func (c *Checker) compareIons(test, target *Ion, state response.Response) response.Response {
	if len(test.Molecules) == 0 || len(target.Molecules) == 0 {
		return c.unaugmented(state, KindIon)
	}

	member := func(t, g IonMember, s response.Response) response.Response {
		s = c.compare(t.Molecule, g.Molecule, s)
		same := t.Charge == g.Charge
		s.SameCharge = s.SameCharge && same
		s.IsEqual = s.IsEqual && same
		return s.AddCharge(moleculeDepth(t.Molecule), t.Charge)
	}

	if state.Options.AllowPermutations {
		return response.ListComparison(test.Molecules, target.Molecules, state, member)
	}
	return response.LinearComparison(test.Molecules, target.Molecules, state, member)
}

// compareTerms compares value, coefficient, state and hydrate, then folds
// the term's atom and charge totals, scaled by the test coefficient, into
// the side totals.
func (c *Checker) compareTerms(test, target *Term, state response.Response) response.Response {
	out := c.compare(test.Value, target.Value, state)

	out, matches, err := out.MatchCoefficients(test.Coeff, target.Coeff)
	if err != nil {
		c.logger.Warn("Coefficient ratio failed",
			"test", test.Coeff.String(),
			"target", target.Coeff.String(),
			"error", err)
		return out.WithError(err.Error())
	}

	if !test.IsElectron && !target.IsElectron {
		same := test.State == target.State
		out.SameState = out.SameState && same
		matches = matches && same
	}

	sameHydrate := test.IsHydrate == target.IsHydrate && test.Hydrate == target.Hydrate
	out.SameHydrate = out.SameHydrate && sameHydrate
	matches = matches && sameHydrate

	out.IsEqual = out.IsEqual && matches
	return out.FoldTerm(test.Coeff)
}

func (c *Checker) compareExpressions(test, target *Expression, state response.Response) response.Response {
	if len(test.Terms) == 0 || len(target.Terms) == 0 {
		return c.unaugmented(state, KindExpression)
	}
	if state.Options.AllowPermutations {
		return response.ListComparison(test.Terms, target.Terms, state, c.compareTerms)
	}
	return response.LinearComparison(test.Terms, target.Terms, state, c.compareTerms)
}

// compareStatements checks each side from a clean set of aggregates, then
// decides balance from the two sides' totals. The scaling value found on
// the left carries over so both sides must scale by the same ratio. Kept
// aggregates describe the left side.
func (c *Checker) compareStatements(test, target *Statement, state response.Response) response.Response {
	base := state.StripAggregates()
	left := c.compare(test.Left, target.Left, base)

	rightStart := base
	rightStart.CoefficientScalingValue = left.CoefficientScalingValue
	right := c.compare(test.Right, target.Right, rightStart)

	out := response.Merge(left, right)
	out.SameArrow = test.Arrow == target.Arrow
	out.IsBalanced = response.AtomCountsEqual(left.AtomCount, right.AtomCount)
	out.IsChargeBalanced = fraction.Equal(left.ChargeOrZero(), right.ChargeOrZero())
	out.IsEqual = out.IsEqual && out.SameArrow && out.IsBalanced && out.IsChargeBalanced
	return out
}

// childKindsMatch reports whether both sequences hold the same number of
// elements and the same number of brackets.
func childKindsMatch(a, b []Node) bool {
	count := func(nodes []Node) (elements, brackets int) {
		for _, n := range nodes {
			switch n.(type) {
			case *Element:
				elements++
			case *Bracket:
				brackets++
			}
		}
		return elements, brackets
	}
	ae, ab := count(a)
	be, bb := count(b)
	return ae == be && ab == bb
}

var equateEmpty = cmpopts.EquateEmpty()

func sameAtoms(a, b response.Response) bool {
	return cmp.Equal(a.TermAtomCount, b.TermAtomCount, equateEmpty) &&
		cmp.Equal(a.BracketAtomCount, b.BracketAtomCount, equateEmpty)
}

func moleculeDepth(n Node) int {
	switch m := n.(type) {
	case *Element:
		return m.BracketDepth
	case *Compound:
		return m.BracketDepth
	}
	return 0
}
