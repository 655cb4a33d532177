// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fraction implements the exact rational arithmetic used for term
// coefficients and aggregate atom counts.
//
// No floating point is used anywhere. Two fractions are compared by
// cross-multiplication, so unreduced values such as 6/4 and 3/2 compare equal.
package fraction

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned when a ratio involves a zero denominator.
var ErrDivisionByZero = errors.New("division by zero is undefined")

// Fraction is a rational number numerator/denominator.
//
// The zero value is 0/0, which is malformed; use Zero() for 0/1.
type Fraction struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// New returns numerator/denominator without reducing it.
func New(numerator, denominator int) Fraction {
	return Fraction{Numerator: numerator, Denominator: denominator}
}

// FromInt returns n/1.
func FromInt(n int) Fraction {
	return Fraction{Numerator: n, Denominator: 1}
}

// One returns the identity fraction 1/1.
func One() Fraction {
	return Fraction{Numerator: 1, Denominator: 1}
}

// Zero returns 0/1.
func Zero() Fraction {
	return Fraction{Numerator: 0, Denominator: 1}
}

// Simplify reduces f to lowest terms.
//
// Description:
//
//	Divides numerator and denominator by gcd(|numerator|, |denominator|) and
//	moves the sign onto the numerator. A zero numerator reduces to 0/1.
//	A zero denominator is malformed and is returned unchanged.
//
// Outputs:
//
//	Fraction - The reduced fraction.
func (f Fraction) Simplify() Fraction {
	if f.Denominator == 0 {
		return f
	}
	if f.Numerator == 0 {
		return Zero()
	}
	d := gcd(abs(f.Numerator), abs(f.Denominator))
	n, m := f.Numerator/d, f.Denominator/d
	if m < 0 {
		n, m = -n, -m
	}
	return Fraction{Numerator: n, Denominator: m}
}

// Add returns a + b in lowest terms.
func Add(a, b Fraction) Fraction {
	return Fraction{
		Numerator:   a.Numerator*b.Denominator + b.Numerator*a.Denominator,
		Denominator: a.Denominator * b.Denominator,
	}.Simplify()
}

// Multiply returns a * b in lowest terms.
func Multiply(a, b Fraction) Fraction {
	return Fraction{
		Numerator:   a.Numerator * b.Numerator,
		Denominator: a.Denominator * b.Denominator,
	}.Simplify()
}

// Equal reports whether a and b denote the same rational value.
func Equal(a, b Fraction) bool {
	return a.Numerator*b.Denominator == b.Numerator*a.Denominator
}

// Ratio compares a against b.
//
// Description:
//
//	Returns ErrDivisionByZero if either denominator is zero, or if the
//	scaling ratio between them would have a zero denominator (b is zero and
//	a is not). When a and b denote the same value the ratio is One() and
//	equal is true. Otherwise the ratio is the unreduced fraction
//	(a.n*b.d)/(b.n*a.d) that scales b onto a.
//
// Inputs:
//
//	a - The test-side value.
//	b - The target-side value.
//
// Outputs:
//
//	Fraction - The scaling ratio.
//	bool - True if a and b are equal.
//	error - ErrDivisionByZero on a zero denominator.
func Ratio(a, b Fraction) (Fraction, bool, error) {
	if a.Denominator == 0 || b.Denominator == 0 {
		return Fraction{}, false, ErrDivisionByZero
	}
	if Equal(a, b) {
		return One(), true, nil
	}
	r := Fraction{
		Numerator:   a.Numerator * b.Denominator,
		Denominator: b.Numerator * a.Denominator,
	}
	if r.Denominator == 0 {
		return Fraction{}, false, ErrDivisionByZero
	}
	return r, false, nil
}

// IsOne reports whether f equals 1.
func (f Fraction) IsOne() bool {
	return f.Denominator != 0 && f.Numerator == f.Denominator
}

// IsZero reports whether f equals 0.
func (f Fraction) IsZero() bool {
	return f.Denominator != 0 && f.Numerator == 0
}

// String renders f as "n/d", or "n" when the denominator is 1.
func (f Fraction) String() string {
	if f.Denominator == 1 {
		return fmt.Sprintf("%d", f.Numerator)
	}
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
