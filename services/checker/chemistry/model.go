// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package chemistry compares molecular and ionic chemical equations.
//
// # Description
//
// The grammar service emits a right-leaning tree: a compound is a head
// element plus an optional tail, an ion is a molecule plus an optional chain,
// an expression is a term plus an optional rest. Augment rewrites those
// chains into flat ordered slices and stamps bracket depth on every element.
// Check then compares an augmented test tree against an augmented target
// tree and reports per-property equivalence.
//
// # Thread Safety
//
// Augment and Check never mutate their inputs and hold no shared state.
// They may be called concurrently on shared trees.
package chemistry

import (
	"github.com/AleutianAI/nuchem/services/checker/fraction"
)

// Kind identifies a node variant. The values double as the "type" field on
// the wire and as the expected/received type in responses.
type Kind string

const (
	KindError      Kind = "error"
	KindElement    Kind = "element"
	KindBracket    Kind = "bracket"
	KindCompound   Kind = "compound"
	KindIon        Kind = "ion"
	KindElectron   Kind = "electron"
	KindTerm       Kind = "term"
	KindExpression Kind = "expr"
	KindStatement  Kind = "statement"
)

// Node is a chemistry AST node. The set of implementations is closed.
type Node interface {
	Kind() Kind
	chemistryNode()
}

// ErrorNode is a parse failure reported by the grammar service.
type ErrorNode struct {
	Message  string
	Expected []string
	Loc      [2]int
}

// Element is a single element symbol with its subscript.
type Element struct {
	Symbol string
	Coeff  int

	// Set by Augment.
	BracketDepth   int
	PartOfCompound bool
}

// Shape is the bracket style.
type Shape string

const (
	ShapeRound  Shape = "round"
	ShapeSquare Shape = "square"
)

// Bracket is a parenthesised group with a multiplicity, e.g. (OH)2.
type Bracket struct {
	Shape    Shape
	Compound *Compound
	Coeff    int

	// BracketDepth is the depth of the compound containing the bracket.
	// Elements inside sit at BracketDepth+1.
	BracketDepth int
}

// Compound is a sequence of elements and brackets.
//
// The grammar service fills Head and Tail. Augment replaces them with
// Elements, which holds *Element and *Bracket values in source order.
type Compound struct {
	Head Node
	Tail Node

	Elements     []Node
	BracketDepth int
}

// IonMember is one charged molecule of an ion.
type IonMember struct {
	Molecule Node
	Charge   int
}

// Ion is a chain of charged molecules.
//
// The grammar service fills Molecule, Charge and Chain. Augment replaces
// them with Molecules.
type Ion struct {
	Molecule Node
	Charge   int
	Chain    Node

	Molecules []IonMember
}

// Electron is a free electron term value.
type Electron struct{}

// State is a physical state symbol.
type State string

const (
	StateNone    State = ""
	StateSolid   State = "(s)"
	StateLiquid  State = "(l)"
	StateGas     State = "(g)"
	StateMolten  State = "(m)"
	StateAqueous State = "(aq)"
)

// Term is a coefficient, a species and its annotations.
type Term struct {
	Value      Node
	Coeff      fraction.Fraction
	State      State
	Hydrate    int
	IsElectron bool
	IsHydrate  bool
}

// Expression is a sum of terms.
//
// The grammar service fills Term and Rest. Augment replaces them with Terms.
type Expression struct {
	Term *Term
	Rest Node

	Terms []*Term
}

// Arrow is the reaction arrow.
type Arrow string

const (
	ArrowSingle Arrow = "SArr"
	ArrowDouble Arrow = "DArr"
)

// Statement is a reaction: left arrow right.
type Statement struct {
	Left  Node
	Right Node
	Arrow Arrow
}

func (*ErrorNode) Kind() Kind  { return KindError }
func (*Element) Kind() Kind    { return KindElement }
func (*Bracket) Kind() Kind    { return KindBracket }
func (*Compound) Kind() Kind   { return KindCompound }
func (*Ion) Kind() Kind        { return KindIon }
func (*Electron) Kind() Kind   { return KindElectron }
func (*Term) Kind() Kind       { return KindTerm }
func (*Expression) Kind() Kind { return KindExpression }
func (*Statement) Kind() Kind  { return KindStatement }

func (*ErrorNode) chemistryNode()  {}
func (*Element) chemistryNode()    {}
func (*Bracket) chemistryNode()    {}
func (*Compound) chemistryNode()   {}
func (*Ion) chemistryNode()        {}
func (*Electron) chemistryNode()   {}
func (*Term) chemistryNode()       {}
func (*Expression) chemistryNode() {}
func (*Statement) chemistryNode()  {}
