// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nuclear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nuchem/services/checker/response"
)

var (
	optsNone = response.Options{}
	optsPerm = response.Options{AllowPermutations: true}
	optsKeep = response.Options{KeepAggregates: true}
)

func check(test, target Node, opts response.Options) response.Response {
	return Check(Augment(test), Augment(target), opts)
}

func TestCheck_Reflexive(t *testing.T) {
	trees := map[string]func() Node{
		"alpha decay": func() Node { return alphaDecay() },
		"fission":     func() Node { return fission() },
		"isotope":     func() Node { return isotope("C", 14, 6) },
	}

	for name, build := range trees {
		for _, opts := range []response.Options{optsNone, optsPerm, optsKeep, {AllowScalingCoefficients: true, KeepAggregates: true}} {
			t.Run(name, func(t *testing.T) {
				resp := check(build(), build(), opts)
				assert.True(t, resp.IsEqual)
				assert.True(t, resp.ValidAtomicNumber)
				assert.True(t, resp.IsNuclear)
			})
		}
	}
}

func TestCheck_Balance(t *testing.T) {
	t.Run("alpha decay", func(t *testing.T) {
		resp := check(alphaDecay(), alphaDecay(), optsKeep)

		assert.True(t, resp.IsBalanced)
		assert.True(t, resp.BalancedAtom)
		assert.True(t, resp.BalancedMass)
		require.NotNil(t, resp.NucleonCount)
		assert.Equal(t, response.Nucleons{Atomic: 92, Mass: 238}, *resp.NucleonCount)
	})

	t.Run("coefficients multiply", func(t *testing.T) {
		resp := check(fission(), fission(), optsKeep)

		assert.True(t, resp.IsBalanced)
		assert.Equal(t, response.Nucleons{Atomic: 92, Mass: 236}, *resp.NucleonCount)
	})

	t.Run("wrong product", func(t *testing.T) {
		test := &Statement{
			Left:  isotope("U", 238, 92),
			Right: expr(isotope("Th", 234, 90), particle(Beta)),
		}

		resp := check(test, alphaDecay(), optsNone)
		assert.False(t, resp.IsEqual)
		assert.False(t, resp.SameElements)
		assert.False(t, resp.IsBalanced)
		assert.False(t, resp.BalancedAtom)
		assert.False(t, resp.BalancedMass)
	})

	t.Run("missing neutrons", func(t *testing.T) {
		test := fission()
		test.Right.(*Expression).Term.Coeff = 2

		resp := check(test, fission(), optsNone)
		assert.False(t, resp.IsEqual)
		assert.False(t, resp.SameCoefficient)
		assert.True(t, resp.BalancedAtom)
		assert.False(t, resp.BalancedMass)
	})
}

func TestCheck_Validity(t *testing.T) {
	t.Run("identical trees still report validity", func(t *testing.T) {
		wrong := isotope("U", 238, 91)
		resp := check(wrong, isotope("U", 238, 91), optsNone)

		assert.True(t, resp.IsEqual)
		assert.False(t, resp.ValidAtomicNumber)
	})

	t.Run("wrong atomic number", func(t *testing.T) {
		resp := check(isotope("U", 238, 91), isotope("U", 238, 92), optsNone)

		assert.False(t, resp.IsEqual)
		assert.False(t, resp.ValidAtomicNumber)
		assert.True(t, resp.SameElements)
	})

	t.Run("mass below atomic number", func(t *testing.T) {
		resp := check(isotope("U", 90, 92), isotope("U", 238, 92), optsNone)

		assert.False(t, resp.IsEqual)
		assert.False(t, resp.ValidAtomicNumber)
	})

	t.Run("particle with wrong numbers", func(t *testing.T) {
		test := &Term{Value: &Particle{Species: Alpha, Mass: IntPtr(4), Atomic: IntPtr(1)}, Coeff: 1, IsParticle: true}

		resp := check(test, particle(Alpha), optsNone)
		assert.False(t, resp.IsEqual)
		assert.False(t, resp.ValidAtomicNumber)
		assert.True(t, resp.SameElements)
	})

	mismatched := []struct {
		name   string
		test   Node
		target Node
		opts   response.Options
	}{
		{
			name:   "isotope against particle term",
			test:   &Statement{Left: isotope("U", 235, 91), Right: expr(isotope("Th", 231, 90), particle(Alpha))},
			target: &Statement{Left: particle(Neutron), Right: expr(isotope("Th", 231, 90), particle(Alpha))},
			opts:   optsNone,
		},
		{
			name:   "isotope against particle in expression",
			test:   expr(isotope("U", 235, 91), particle(Alpha)),
			target: expr(particle(Alpha), particle(Alpha)),
			opts:   optsNone,
		},
		{
			name:   "unmatched under permutations",
			test:   expr(isotope("U", 235, 91), particle(Alpha)),
			target: expr(particle(Alpha), particle(Alpha)),
			opts:   optsPerm,
		},
		{
			name:   "different term counts",
			test:   expr(isotope("U", 235, 91), particle(Alpha)),
			target: expr(particle(Alpha), particle(Alpha), particle(Alpha)),
			opts:   optsNone,
		},
	}

	for _, tt := range mismatched {
		t.Run(tt.name, func(t *testing.T) {
			resp := check(tt.test, tt.target, tt.opts)
			assert.False(t, resp.IsEqual)
			assert.False(t, resp.SameElements)
			assert.False(t, resp.ValidAtomicNumber)
		})
	}

	t.Run("missing numbers on a mismatched term", func(t *testing.T) {
		bare := &Term{Value: &Particle{Species: Alpha}, Coeff: 1, IsParticle: true}

		resp := check(expr(bare, particle(Alpha)), expr(isotope("He", 4, 2), particle(Alpha)), optsNone)
		assert.True(t, resp.ContainsError)
		assert.Contains(t, resp.Error, ErrMissingNucleons.Error())
	})
}

func TestCheck_Particles(t *testing.T) {
	t.Run("beta and electron are interchangeable", func(t *testing.T) {
		resp := check(particle(Electron), particle(Beta), optsNone)
		assert.True(t, resp.IsEqual)
		assert.True(t, resp.SameElements)
	})

	t.Run("zero numbers are inferred", func(t *testing.T) {
		bare := &Term{Value: &Particle{Species: Gamma}, Coeff: 1, IsParticle: true}

		resp := check(bare, particle(Gamma), optsKeep)
		assert.True(t, resp.IsEqual)
		assert.True(t, resp.ValidAtomicNumber)
		assert.False(t, resp.ContainsError)
	})

	t.Run("non-zero numbers are required", func(t *testing.T) {
		bare := &Term{Value: &Particle{Species: Alpha}, Coeff: 1, IsParticle: true}

		resp := check(bare, particle(Alpha), optsNone)
		assert.False(t, resp.IsEqual)
		assert.True(t, resp.ContainsError)
		assert.Contains(t, resp.Error, ErrMissingNucleons.Error())
	})

	t.Run("particle against isotope", func(t *testing.T) {
		resp := check(particle(Proton), isotope("H", 1, 1), optsNone)
		assert.False(t, resp.IsEqual)
		assert.False(t, resp.SameElements)
	})
}

func TestCheck_Permutations(t *testing.T) {
	// C-14 -> N-14 + e + antineutrino
	decay := func(products ...*Term) *Statement {
		return &Statement{Left: isotope("C", 14, 6), Right: expr(products...)}
	}
	target := decay(isotope("N", 14, 7), particle(Electron), particle(Antineutrino))
	test := decay(particle(Electron), isotope("N", 14, 7), particle(Antineutrino))

	assert.False(t, check(test, target, optsNone).IsEqual)

	resp := check(test, target, optsPerm)
	assert.True(t, resp.IsEqual)
	assert.True(t, resp.IsBalanced)
}

func TestCheck_Scaling(t *testing.T) {
	doubled := fission()
	doubled.Left.(*Expression).Term.Coeff = 2
	doubled.Left.(*Expression).Rest.(*Term).Coeff = 2
	right := doubled.Right.(*Expression)
	right.Term.Coeff = 6
	right.Rest.(*Expression).Term.Coeff = 2
	right.Rest.(*Expression).Rest.(*Term).Coeff = 2

	assert.False(t, check(doubled, fission(), optsNone).IsEqual)

	resp := check(doubled, fission(), response.Options{AllowScalingCoefficients: true})
	assert.True(t, resp.IsEqual)
	assert.True(t, resp.IsBalanced)
}

func TestCheck_RootRules(t *testing.T) {
	t.Run("test error", func(t *testing.T) {
		resp := Check(&ErrorNode{Message: "Unexpected token"}, Augment(alphaDecay()), optsNone)
		assert.True(t, resp.ContainsError)
		assert.Equal(t, "Unexpected token", resp.Error)
	})

	t.Run("type mismatch", func(t *testing.T) {
		resp := check(isotope("U", 238, 92), alphaDecay(), optsNone)
		assert.True(t, resp.TypeMismatch)
		assert.Equal(t, "statement", resp.ExpectedType)
		assert.Equal(t, "term", resp.ReceivedType)
	})

	t.Run("unaugmented expression", func(t *testing.T) {
		resp := Check(
			expr(isotope("Th", 234, 90), particle(Alpha)),
			expr(isotope("Th", 234, 90), particle(Beta)),
			optsNone,
		)
		assert.True(t, resp.ContainsError)
		assert.Equal(t, UnaugmentedMessage, resp.Error)
	})
}
