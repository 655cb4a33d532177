// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package nuclear

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/go-cmp/cmp"

	"github.com/AleutianAI/nuchem/services/checker/elements"
	"github.com/AleutianAI/nuchem/services/checker/fraction"
	"github.com/AleutianAI/nuchem/services/checker/response"
)

// UnaugmentedMessage is reported when Check meets an expression that still
// has its chained parser form.
const UnaugmentedMessage = "Received unaugmented AST during checking process."

// ErrMissingNucleons is reported when a particle or isotope lacks a mass or
// atomic number that cannot be inferred.
var ErrMissingNucleons = errors.New("missing mass/atomic number")

// Checker compares nuclear trees.
type Checker struct {
	logger *slog.Logger
}

// NewChecker creates a Checker that reports contract violations to logger.
// A nil logger uses slog.Default().
func NewChecker(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{logger: logger.With("domain", "nuclear")}
}

// Check compares test against target with a default Checker.
func Check(test, target Node, opts response.Options) response.Response {
	return NewChecker(nil).Check(test, target, opts)
}

// Check compares an augmented test tree against an augmented target tree.
//
// The short-circuit order matches chemistry.Checker.Check: test error,
// target error, kind mismatch, identical roots. Identical roots still
// report ValidAtomicNumber for the test tree. After the recursive
// comparison, SameCoefficient, SameElements and ValidAtomicNumber are
// folded into IsEqual.
func (c *Checker) Check(test, target Node, opts response.Options) response.Response {
	if test == nil {
		test = &ErrorNode{Message: EmptyASTMessage}
	}
	if target == nil {
		target = &ErrorNode{Message: EmptyASTMessage}
	}

	resp := response.New(opts, true)
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
		resp.ValidAtomicNumber = validTree(test)
		return resp
	}

	out := c.compare(test, target, resp)
	out.IsEqual = out.IsEqual &&
		out.SameCoefficient &&
		out.SameElements &&
		out.ValidAtomicNumber &&
		!out.ContainsError
	if identical {
		out.IsEqual = true
	}

	if !opts.KeepAggregates {
		out = out.StripAggregates()
	}
	return out
}

func (c *Checker) compare(test, target Node, state response.Response) response.Response {
	if test == nil || target == nil {
		c.logger.Error("Encountered missing node")
		return state.WithError(UnaugmentedMessage)
	}

	switch t := test.(type) {
	case *Particle:
		if g, ok := target.(*Particle); ok {
			return c.compareParticles(t, g, state)
		}
	case *Isotope:
		if g, ok := target.(*Isotope); ok {
			return c.compareIsotopes(t, g, state)
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

	state.SameElements = false
	state.IsEqual = false
	if e, ok := test.(*ErrorNode); ok {
		return state.WithError(e.Message)
	}
	return state.WithHarvest(c.compare(test, test, state))
}

func (c *Checker) compareParticles(test, target *Particle, state response.Response) response.Response {
	n, valid, err := particleNucleons(test)
	if err != nil {
		c.logger.Warn("Particle nucleon numbers missing", "particle", test.Species, "error", err)
		return state.WithError(err.Error())
	}

	same := sameSpecies(test.Species, target.Species)
	state.ValidAtomicNumber = state.ValidAtomicNumber && valid
	state.SameElements = state.SameElements && same
	state.IsEqual = state.IsEqual && same && valid
	return state.AddNucleons(n)
}

func (c *Checker) compareIsotopes(test, target *Isotope, state response.Response) response.Response {
	n, valid, err := isotopeNucleons(test)
	if err != nil {
		c.logger.Warn("Isotope nucleon numbers missing", "element", test.Element, "error", err)
		return state.WithError(err.Error())
	}

	same := test.Element == target.Element && target.Mass != nil && *target.Mass == n.Mass
	state.ValidAtomicNumber = state.ValidAtomicNumber && valid
	state.SameElements = state.SameElements && same
	state.IsEqual = state.IsEqual && same && valid
	return state.AddNucleons(n)
}

func (c *Checker) compareTerms(test, target *Term, state response.Response) response.Response {
	if test.IsParticle != target.IsParticle {
		state.SameElements = false
		state.IsEqual = false
		return state.WithHarvest(c.compareTerms(test, test, state))
	}

	out := c.compare(test.Value, target.Value, state)
	out, matches, err := out.MatchCoefficients(fraction.FromInt(test.Coeff), fraction.FromInt(target.Coeff))
	if err != nil {
		c.logger.Warn("Coefficient ratio failed", "test", test.Coeff, "target", target.Coeff, "error", err)
		return out.WithError(err.Error())
	}
	out.IsEqual = out.IsEqual && matches
	return out.FoldNucleons(test.Coeff)
}

func (c *Checker) compareExpressions(test, target *Expression, state response.Response) response.Response {
	if len(test.Terms) == 0 || len(target.Terms) == 0 {
		c.logger.Error("Encountered unaugmented AST", "kind", KindExpression)
		return state.WithError(UnaugmentedMessage)
	}
	if state.Options.AllowPermutations {
		return response.ListComparison(test.Terms, target.Terms, state, c.compareTerms)
	}
	return response.LinearComparison(test.Terms, target.Terms, state, c.compareTerms)
}

// compareStatements checks both sides from clean aggregates and decides
// balance on the atomic and mass number totals. Kept aggregates describe
// the left side.
func (c *Checker) compareStatements(test, target *Statement, state response.Response) response.Response {
	base := state.StripAggregates()
	left := c.compare(test.Left, target.Left, base)

	rightStart := base
	rightStart.CoefficientScalingValue = left.CoefficientScalingValue
	right := c.compare(test.Right, target.Right, rightStart)

	l, r := left.NucleonsOrZero(), right.NucleonsOrZero()
	out := response.Merge(left, right)
	out.BalancedAtom = l.Atomic == r.Atomic
	out.BalancedMass = l.Mass == r.Mass
	out.IsBalanced = out.BalancedAtom && out.BalancedMass
	out.IsEqual = out.IsEqual && out.IsBalanced
	return out
}

// sameSpecies treats a beta particle and an electron as the same thing.
func sameSpecies(a, b Species) bool {
	if a == b {
		return true
	}
	return isBetaOrElectron(a) && isBetaOrElectron(b)
}

func isBetaOrElectron(s Species) bool {
	return s == Beta || s == Electron
}

// particleNucleons resolves a particle's numbers.
//
// A missing number is inferred when the species' physical value is zero,
// otherwise it is an error. valid reports whether the written numbers
// match the species.
func particleNucleons(p *Particle) (n response.Nucleons, valid bool, err error) {
	want, known := canonical[p.Species]

	mass, ok := resolve(p.Mass, want.Mass, known)
	if !ok {
		return n, false, fmt.Errorf("%w for %s", ErrMissingNucleons, p.Species)
	}
	atomic, ok := resolve(p.Atomic, want.Atomic, known)
	if !ok {
		return n, false, fmt.Errorf("%w for %s", ErrMissingNucleons, p.Species)
	}

	n = response.Nucleons{Atomic: atomic, Mass: mass}
	return n, known && n == want, nil
}

func resolve(written *int, physical int, known bool) (int, bool) {
	if written != nil {
		return *written, true
	}
	if known && physical == 0 {
		return 0, true
	}
	return 0, false
}

// isotopeNucleons resolves an isotope's numbers. Both must be written. The
// isotope is valid when its atomic number matches its element and its mass
// number is at least its atomic number.
func isotopeNucleons(i *Isotope) (n response.Nucleons, valid bool, err error) {
	if i.Mass == nil || i.Atomic == nil {
		return n, false, fmt.Errorf("%w for %s", ErrMissingNucleons, i.Element)
	}
	n = response.Nucleons{Atomic: *i.Atomic, Mass: *i.Mass}
	z, known := elements.AtomicNumber(i.Element)
	return n, known && z == n.Atomic && n.Mass >= n.Atomic, nil
}

// validTree reports whether every particle and isotope under n carries
// numbers consistent with its species or element.
func validTree(n Node) bool {
	switch node := n.(type) {
	case *Particle:
		_, valid, err := particleNucleons(node)
		return err == nil && valid
	case *Isotope:
		_, valid, err := isotopeNucleons(node)
		return err == nil && valid
	case *Term:
		return node.Value == nil || validTree(node.Value)
	case *Expression:
		for _, t := range node.Terms {
			if t != nil && !validTree(t) {
				return false
			}
		}
		if node.Term != nil && !validTree(node.Term) {
			return false
		}
		return node.Rest == nil || validTree(node.Rest)
	case *Statement:
		return (node.Left == nil || validTree(node.Left)) &&
			(node.Right == nil || validTree(node.Right))
	}
	return true
}
