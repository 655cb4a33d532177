// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nuchem/services/checker/fraction"
)

func TestNew(t *testing.T) {
	r := New(Options{KeepAggregates: true}, true)

	assert.True(t, r.IsEqual)
	assert.True(t, r.SameCoefficient)
	assert.True(t, r.SameElements)
	assert.True(t, r.ValidAtomicNumber)
	assert.True(t, r.IsNuclear)
	assert.False(t, r.ContainsError)
	assert.False(t, r.TypeMismatch)
	assert.Nil(t, r.CoefficientScalingValue)
	assert.True(t, r.Options.KeepAggregates)
}

func TestMerge(t *testing.T) {
	t.Run("flags and first error", func(t *testing.T) {
		a := New(Options{}, false)
		a.SameState = false
		b := New(Options{}, false).WithError("second")
		b.TypeMismatch = true
		b.SameBrackets = false

		m := Merge(a, b)
		assert.False(t, m.IsEqual)
		assert.False(t, m.SameState)
		assert.False(t, m.SameBrackets)
		assert.True(t, m.TypeMismatch)
		assert.True(t, m.ContainsError)
		assert.Equal(t, "second", m.Error)
	})

	t.Run("first error wins", func(t *testing.T) {
		a := New(Options{}, false).WithError("first")
		b := New(Options{}, false).WithError("second")

		assert.Equal(t, "first", Merge(a, b).Error)
	})

	t.Run("nuclear merges atomic validity", func(t *testing.T) {
		a := New(Options{}, true)
		b := New(Options{}, true)
		b.ValidAtomicNumber = false
		b.SameState = false

		m := Merge(a, b)
		assert.False(t, m.ValidAtomicNumber)
		assert.True(t, m.SameState)
	})

	t.Run("scaling value taken from right", func(t *testing.T) {
		a := New(Options{}, false)
		two := fraction.FromInt(2)
		b := New(Options{}, false)
		b.CoefficientScalingValue = &two

		m := Merge(a, b)
		require.NotNil(t, m.CoefficientScalingValue)
		assert.Equal(t, two, *m.CoefficientScalingValue)
	})
}

func TestWithHarvest(t *testing.T) {
	state := New(Options{}, true)
	state.IsEqual = false

	self := New(Options{}, true).AddNucleons(Nucleons{Atomic: 91, Mass: 235})
	self.ValidAtomicNumber = false
	self = self.WithError("missing mass")

	got := state.WithHarvest(self)
	assert.False(t, got.ValidAtomicNumber)
	assert.True(t, got.ContainsError)
	assert.Equal(t, "missing mass", got.Error)
	assert.Equal(t, self.TermNucleonCount, got.TermNucleonCount)

	clean := state.WithHarvest(New(Options{}, true))
	assert.True(t, clean.ValidAtomicNumber)
	assert.False(t, clean.ContainsError)
}

func TestAggregates_CopyOnWrite(t *testing.T) {
	base := New(Options{}, false).AddAtoms(0, "H", 2)
	left := base.AddAtoms(0, "H", 1)
	right := base.AddAtoms(0, "O", 1)

	assert.Equal(t, map[string]int{"H": 2}, base.TermAtomCount)
	assert.Equal(t, map[string]int{"H": 3}, left.TermAtomCount)
	assert.Equal(t, map[string]int{"H": 2, "O": 1}, right.TermAtomCount)
}

func TestFoldBracket(t *testing.T) {
	// C(OH)3: O and H sit at depth 1 inside a bracket at depth 0.
	r := New(Options{}, false).
		AddAtoms(0, "C", 1).
		AddAtoms(1, "O", 1).
		AddAtoms(1, "H", 1)
	require.Len(t, r.BracketAtomCount, 1)

	r = r.FoldBracket(0, 3)
	assert.Nil(t, r.BracketAtomCount)
	assert.Equal(t, map[string]int{"C": 1, "O": 3, "H": 3}, r.TermAtomCount)
}

func TestFoldBracket_Nested(t *testing.T) {
	// [X(Y)2]3: Y at depth 2, X at depth 1.
	r := New(Options{}, false).
		AddAtoms(1, "X", 1).
		AddAtoms(2, "Y", 1)

	r = r.FoldBracket(1, 2)
	assert.Equal(t, []map[string]int{{"X": 1, "Y": 2}}, r.BracketAtomCount)

	r = r.FoldBracket(0, 3)
	assert.Equal(t, map[string]int{"X": 3, "Y": 6}, r.TermAtomCount)
}

func TestFoldTerm(t *testing.T) {
	r := New(Options{}, false).
		AddAtoms(0, "Na", 1).
		AddCharge(0, 1)

	r = r.FoldTerm(fraction.New(3, 2))
	assert.Nil(t, r.TermAtomCount)
	assert.Zero(t, r.TermChargeCount)
	assert.Equal(t, fraction.New(3, 2), r.AtomCount["Na"])
	require.NotNil(t, r.ChargeCount)
	assert.Equal(t, fraction.New(3, 2), *r.ChargeCount)

	r = r.AddAtoms(0, "Na", 1).FoldTerm(fraction.New(1, 2))
	assert.Equal(t, fraction.FromInt(2), r.AtomCount["Na"])
}

func TestNucleons(t *testing.T) {
	r := New(Options{}, true).
		AddNucleons(Nucleons{Atomic: 2, Mass: 4}).
		FoldNucleons(2)
	assert.Equal(t, Nucleons{Atomic: 4, Mass: 8}, r.NucleonsOrZero())
	assert.Nil(t, r.TermNucleonCount)
}

func TestAtomCountsEqual(t *testing.T) {
	a := map[string]fraction.Fraction{"H": fraction.New(4, 2), "O": fraction.One()}
	b := map[string]fraction.Fraction{"H": fraction.FromInt(2), "O": fraction.One()}
	assert.True(t, AtomCountsEqual(a, b))

	b["Cl"] = fraction.Zero()
	assert.True(t, AtomCountsEqual(a, b))

	b["Cl"] = fraction.One()
	assert.False(t, AtomCountsEqual(a, b))
	assert.True(t, AtomCountsEqual(nil, nil))
}

func TestStripAggregates(t *testing.T) {
	r := New(Options{}, false).AddAtoms(0, "H", 1).AddCharge(0, 1).FoldTerm(fraction.One())
	r = r.StripAggregates()

	assert.Nil(t, r.AtomCount)
	assert.Nil(t, r.ChargeCount)
	assert.Nil(t, r.TermAtomCount)
}

// intCompare records each test value as atoms of X and matches on equality.
func intCompare(test, target int, state Response) Response {
	state.IsEqual = state.IsEqual && test == target
	return state.AddAtoms(0, "X", test)
}

func TestLinearComparison(t *testing.T) {
	start := New(Options{}, false)

	tests := []struct {
		name         string
		test         []int
		target       []int
		wantEqual    bool
		wantElements bool
		wantX        int
	}{
		{"same order", []int{1, 2}, []int{1, 2}, true, true, 3},
		{"different order", []int{1, 2}, []int{2, 1}, false, true, 3},
		{"length mismatch", []int{1, 2, 3}, []int{1}, false, false, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LinearComparison(tt.test, tt.target, start, intCompare)
			assert.Equal(t, tt.wantEqual, got.IsEqual)
			assert.Equal(t, tt.wantElements, got.SameElements)
			assert.Equal(t, tt.wantX, got.TermAtomCount["X"])
		})
	}

	assert.Nil(t, start.TermAtomCount)
}

func TestListComparison(t *testing.T) {
	start := New(Options{}, false)

	t.Run("permutation matches", func(t *testing.T) {
		got := ListComparison([]int{1, 2, 3}, []int{3, 1, 2}, start, intCompare)
		assert.True(t, got.IsEqual)
		assert.Equal(t, 6, got.TermAtomCount["X"])
	})

	t.Run("failure keeps full aggregates", func(t *testing.T) {
		got := ListComparison([]int{1, 2, 4}, []int{3, 1, 2}, start, intCompare)
		assert.False(t, got.IsEqual)
		assert.Equal(t, 7, got.TermAtomCount["X"])
	})

	t.Run("length mismatch", func(t *testing.T) {
		got := ListComparison([]int{1}, []int{1, 1}, start, intCompare)
		assert.False(t, got.IsEqual)
		assert.False(t, got.SameElements)
		assert.Equal(t, 1, got.TermAtomCount["X"])
	})

	t.Run("empty sequences", func(t *testing.T) {
		got := ListComparison([]int{}, []int{}, start, intCompare)
		assert.True(t, got.IsEqual)
	})

	t.Run("incoming mismatch is preserved", func(t *testing.T) {
		prior := start
		prior.IsEqual = false
		got := ListComparison([]int{1, 2}, []int{2, 1}, prior, intCompare)
		assert.False(t, got.IsEqual)
		assert.Equal(t, 3, got.TermAtomCount["X"])
	})

	assert.Nil(t, start.TermAtomCount)
}

func TestListComparison_GreedyLimitation(t *testing.T) {
	// Matches when the test value does not exceed the target. The assignment
	// 1->1, 2->2 exists, but the greedy scan gives 1 the target 2 first.
	atMost := func(test, target int, state Response) Response {
		state.IsEqual = state.IsEqual && test <= target
		return state
	}

	got := ListComparison([]int{1, 2}, []int{2, 1}, New(Options{}, false), atMost)
	assert.False(t, got.IsEqual)
}
