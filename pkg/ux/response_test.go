// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"testing"

	"github.com/AleutianAI/nuchem/services/checker/fraction"
	"github.com/AleutianAI/nuchem/services/checker/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdict(t *testing.T) {
	equal := response.New(response.Options{}, false)
	notEqual := equal
	notEqual.IsEqual = false
	mismatch := notEqual
	mismatch.TypeMismatch = true
	failed := equal.WithError("Unexpected token")
	invalid := response.New(response.Options{}, true)
	invalid.ValidAtomicNumber = false

	assert.Equal(t, "Equivalent", Verdict(equal))
	assert.Equal(t, "Not equivalent", Verdict(notEqual))
	assert.Equal(t, "Type mismatch", Verdict(mismatch))
	assert.Equal(t, "Parse error", Verdict(failed))
	assert.Equal(t, "Equivalent with warnings", Verdict(invalid))
}

func TestRenderResponse_Plain(t *testing.T) {
	resp := response.New(response.Options{}, false)
	resp.SameState = false
	resp.IsEqual = false
	charge := fraction.Zero()
	resp.ChargeCount = &charge
	resp.AtomCount = map[string]fraction.Fraction{"Na": fraction.One(), "Cl": fraction.One()}

	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, resp, ModePlain))

	out := buf.String()
	assert.Contains(t, out, "result: Not equivalent\n")
	assert.Contains(t, out, "isEqual: false\n")
	assert.Contains(t, out, "sameState: false\n")
	assert.Contains(t, out, "sameCoefficient: true\n")
	assert.Contains(t, out, "atomCount: Cl=1 Na=1\n")
	assert.Contains(t, out, "chargeCount: 0\n")
	assert.NotContains(t, out, "validAtomicNumber")
}

func TestRenderResponse_PlainNuclear(t *testing.T) {
	resp := response.New(response.Options{}, true)
	resp.NucleonCount = &response.Nucleons{Atomic: 92, Mass: 238}

	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, resp, ModePlain))

	out := buf.String()
	assert.Contains(t, out, "result: Equivalent\n")
	assert.Contains(t, out, "balancedMass: true\n")
	assert.Contains(t, out, "nucleonCount: atomic=92 mass=238\n")
	assert.NotContains(t, out, "sameState")
}

func TestRenderResponse_PlainMismatch(t *testing.T) {
	resp := response.New(response.Options{}, false)
	resp.IsEqual = false
	resp.TypeMismatch = true
	resp.ExpectedType = "statement"
	resp.ReceivedType = "term"

	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, resp, ModePlain))

	assert.Contains(t, buf.String(), "expectedType: statement\nreceivedType: term\n")
}

func TestRenderResponse_Styled(t *testing.T) {
	resp := response.New(response.Options{}, false)
	resp.IsEqual = false
	resp.SameArrow = false
	scale := fraction.New(3, 2)
	resp.CoefficientScalingValue = &scale

	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, resp, ModeStyled))

	out := buf.String()
	assert.Contains(t, out, "Not equivalent")
	assert.Contains(t, out, "Same arrow")
	assert.Contains(t, out, "Same coefficients")
	assert.Contains(t, out, "3/2")
}

func TestRenderResponse_StyledError(t *testing.T) {
	resp := response.New(response.Options{}, false).WithError("Unexpected token")

	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, resp, ModeStyled))

	out := buf.String()
	assert.Contains(t, out, "Parse error")
	assert.Contains(t, out, "Unexpected token")
	assert.NotContains(t, out, "Same coefficients")
}

func TestRenderResponse_StyledWarning(t *testing.T) {
	resp := response.New(response.Options{}, true)
	resp.ValidAtomicNumber = false

	var buf bytes.Buffer
	require.NoError(t, RenderResponse(&buf, resp, ModeStyled))

	out := buf.String()
	assert.Contains(t, out, "Equivalent with warnings")
	assert.Contains(t, out, string(IconWarning))
	assert.Contains(t, out, "Valid atomic numbers")
	assert.NotContains(t, out, string(IconError))
}
