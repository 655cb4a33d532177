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

// Comparator compares one test item against one target item, starting from
// state, and returns the resulting state with IsEqual set.
type Comparator[T any] func(test, target T, state Response) Response

// LinearComparison compares two sequences position by position.
//
// Description:
//
//	Every pair is visited even after a mismatch so the aggregate counts
//	cover the whole test sequence. When the lengths differ no pairs are
//	compared; SameElements and IsEqual are cleared and the test sequence is
//	compared against itself to collect its aggregates.
//
// Inputs:
//
//	test - The submitted sequence.
//	target - The reference sequence.
//	state - The starting state.
//	compare - The per-item comparator.
//
// Outputs:
//
//	Response - The accumulated state.
func LinearComparison[T any](test, target []T, state Response, compare Comparator[T]) Response {
	if len(test) != len(target) {
		out := state.WithHarvest(Harvest(test, state, compare))
		out.SameElements = false
		out.IsEqual = false
		return out
	}
	for i := range test {
		state = compare(test[i], target[i], state)
	}
	return state
}

// ListComparison compares two sequences as multisets.
//
// Description:
//
//	A pre-pass compares every test item against itself to collect the
//	complete aggregate counts for the test sequence. Sequences of different
//	length fail like LinearComparison does. Otherwise, for each test
//	item in order, the target sequence is scanned left to right and the
//	first unused item that compares equal is claimed. If a test item finds
//	no match the comparison fails: the last attempted state (or the
//	starting state when nothing was attempted) is returned with IsEqual
//	cleared and the pre-pass aggregates attached.
//
//	Each candidate is compared with IsEqual reset to true so a mismatch
//	recorded before this list does not block every match. The final IsEqual
//	is the incoming IsEqual when all items match.
//
// Limitations:
//
//	The assignment is greedy. An earlier test item can claim a target that
//	a later item needed, so some equal multisets are rejected when the
//	comparator is not an equivalence relation (for example under
//	coefficient scaling, where the first match fixes the ratio).
//
// Inputs:
//
//	test - The submitted sequence.
//	target - The reference sequence.
//	state - The starting state.
//	compare - The per-item comparator.
//
// Outputs:
//
//	Response - The accumulated state.
func ListComparison[T any](test, target []T, state Response, compare Comparator[T]) Response {
	aggregates := Harvest(test, state, compare)
	if len(test) != len(target) {
		out := state.WithHarvest(aggregates)
		out.SameElements = false
		out.IsEqual = false
		return out
	}

	used := make([]bool, len(target))
	current := state
	for _, testItem := range test {
		var last *Response
		matched := false

		for j, targetItem := range target {
			if used[j] {
				continue
			}
			probe := current
			probe.IsEqual = true
			attempt := compare(testItem, targetItem, probe)
			last = &attempt
			if attempt.IsEqual {
				used[j] = true
				current = attempt
				matched = true
				break
			}
		}

		if !matched {
			out := state
			if last != nil {
				out = *last
			}
			out.IsEqual = false
			return out.WithHarvest(aggregates)
		}
	}

	current.IsEqual = state.IsEqual
	return current
}

// Harvest compares every item against itself and returns the accumulated
// state. Only its aggregates are meaningful.
func Harvest[T any](items []T, state Response, compare Comparator[T]) Response {
	for _, item := range items {
		state = compare(item, item, state)
	}
	return state
}
