// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chemistry

import (
	"github.com/AleutianAI/nuchem/services/checker/fraction"
)

// The builders below produce the chained form the grammar service emits,
// with children given in source order.

func el(symbol string, coeff int) *Element {
	return &Element{Symbol: symbol, Coeff: coeff}
}

func compound(children ...Node) *Compound {
	c := &Compound{Head: children[len(children)-1]}
	switch rest := children[:len(children)-1]; len(rest) {
	case 0:
	case 1:
		c.Tail = rest[0]
	default:
		c.Tail = compound(rest...)
	}
	return c
}

func bracket(coeff int, children ...Node) *Bracket {
	return &Bracket{Shape: ShapeRound, Compound: compound(children...), Coeff: coeff}
}

func ion(members ...IonMember) *Ion {
	last := members[len(members)-1]
	i := &Ion{Molecule: last.Molecule, Charge: last.Charge}
	if rest := members[:len(members)-1]; len(rest) > 0 {
		i.Chain = ion(rest...)
	}
	return i
}

func term(coeff fraction.Fraction, value Node) *Term {
	return &Term{Value: value, Coeff: coeff}
}

func unit(value Node) *Term {
	return term(fraction.One(), value)
}

func expr(terms ...*Term) *Expression {
	e := &Expression{Term: terms[len(terms)-1]}
	switch rest := terms[:len(terms)-1]; len(rest) {
	case 0:
	case 1:
		e.Rest = rest[0]
	default:
		e.Rest = expr(rest...)
	}
	return e
}

func reaction(left, right Node) *Statement {
	return &Statement{Left: left, Right: right, Arrow: ArrowSingle}
}

// decane is C10H22.
func decane() Node {
	return unit(compound(el("C", 10), el("H", 22)))
}

// decaneChain is CH3(CH2)8CH3.
func decaneChain() Node {
	return unit(compound(
		el("C", 1), el("H", 3),
		bracket(8, el("C", 1), el("H", 2)),
		el("C", 1), el("H", 3),
	))
}

// saltFormation is Na^+ + Cl^- -> NaCl.
func saltFormation() *Statement {
	return reaction(
		expr(
			unit(ion(IonMember{Molecule: el("Na", 1), Charge: 1})),
			unit(ion(IonMember{Molecule: el("Cl", 1), Charge: -1})),
		),
		unit(compound(el("Na", 1), el("Cl", 1))),
	)
}
