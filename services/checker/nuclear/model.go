// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package nuclear compares nuclear decay and reaction equations.
//
// The tree shape mirrors package chemistry with a smaller node set: terms
// hold either an isotope or a particle, and balance is decided on the
// (atomic number, mass number) totals of each side.
package nuclear

import (
	"github.com/AleutianAI/nuchem/services/checker/response"
)

// Kind identifies a node variant.
type Kind string

const (
	KindError      Kind = "error"
	KindParticle   Kind = "particle"
	KindIsotope    Kind = "isotope"
	KindTerm       Kind = "term"
	KindExpression Kind = "expr"
	KindStatement  Kind = "statement"
)

// Node is a nuclear AST node. The set of implementations is closed.
type Node interface {
	Kind() Kind
	nuclearNode()
}

// Species names a particle.
type Species string

const (
	Alpha        Species = "alphaparticle"
	Beta         Species = "betaparticle"
	Gamma        Species = "gammaray"
	Neutrino     Species = "neutrino"
	Antineutrino Species = "antineutrino"
	Electron     Species = "electron"
	Positron     Species = "positron"
	Neutron      Species = "neutron"
	Proton       Species = "proton"
)

// canonical holds the physical (atomic, mass) numbers of every species.
var canonical = map[Species]response.Nucleons{
	Alpha:        {Atomic: 2, Mass: 4},
	Beta:         {Atomic: -1, Mass: 0},
	Gamma:        {Atomic: 0, Mass: 0},
	Neutrino:     {Atomic: 0, Mass: 0},
	Antineutrino: {Atomic: 0, Mass: 0},
	Electron:     {Atomic: -1, Mass: 0},
	Positron:     {Atomic: 1, Mass: 0},
	Neutron:      {Atomic: 0, Mass: 1},
	Proton:       {Atomic: 1, Mass: 1},
}

// Canonical returns the physical nucleon numbers of s.
func Canonical(s Species) (response.Nucleons, bool) {
	n, ok := canonical[s]
	return n, ok
}

// ErrorNode is a parse failure reported by the grammar service.
type ErrorNode struct {
	Message  string
	Expected []string
	Loc      [2]int
}

// Particle is a subatomic particle. A nil Mass or Atomic was not written
// and is inferred only when the physical value is zero.
type Particle struct {
	Species Species
	Mass    *int
	Atomic  *int
}

// Isotope is an element with explicit mass and atomic numbers.
type Isotope struct {
	Element string
	Mass    *int
	Atomic  *int
}

// Term is a whole-number coefficient and an isotope or particle.
type Term struct {
	Value      Node
	Coeff      int
	IsParticle bool
}

// Expression is a sum of terms.
//
// The grammar service fills Term and Rest. Augment replaces them with Terms.
type Expression struct {
	Term *Term
	Rest Node

	Terms []*Term
}

// Statement is a reaction: left -> right.
type Statement struct {
	Left  Node
	Right Node
}

func (*ErrorNode) Kind() Kind  { return KindError }
func (*Particle) Kind() Kind   { return KindParticle }
func (*Isotope) Kind() Kind    { return KindIsotope }
func (*Term) Kind() Kind       { return KindTerm }
func (*Expression) Kind() Kind { return KindExpression }
func (*Statement) Kind() Kind  { return KindStatement }

func (*ErrorNode) nuclearNode()  {}
func (*Particle) nuclearNode()   {}
func (*Isotope) nuclearNode()    {}
func (*Term) nuclearNode()       {}
func (*Expression) nuclearNode() {}
func (*Statement) nuclearNode()  {}

// IntPtr returns a pointer to v, for building particles and isotopes.
func IntPtr(v int) *int {
	return &v
}
