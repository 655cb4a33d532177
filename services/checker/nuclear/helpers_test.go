// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nuclear

func isotope(element string, mass, atomic int) *Term {
	return &Term{Value: &Isotope{Element: element, Mass: IntPtr(mass), Atomic: IntPtr(atomic)}, Coeff: 1}
}

func particle(s Species) *Term {
	n := canonical[s]
	return &Term{Value: &Particle{Species: s, Mass: IntPtr(n.Mass), Atomic: IntPtr(n.Atomic)}, Coeff: 1, IsParticle: true}
}

func times(coeff int, t *Term) *Term {
	t.Coeff = coeff
	return t
}

// expr builds the chained form with terms in source order.
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

// alphaDecay is U-238 -> Th-234 + alpha.
func alphaDecay() *Statement {
	return &Statement{
		Left:  isotope("U", 238, 92),
		Right: expr(isotope("Th", 234, 90), particle(Alpha)),
	}
}

// fission is n + U-235 -> Ba-141 + Kr-92 + 3n.
func fission() *Statement {
	return &Statement{
		Left: expr(particle(Neutron), isotope("U", 235, 92)),
		Right: expr(
			isotope("Ba", 141, 56),
			isotope("Kr", 92, 36),
			times(3, particle(Neutron)),
		),
	}
}
