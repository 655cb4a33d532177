// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/AleutianAI/nuchem/services/checker/fraction"
	"github.com/AleutianAI/nuchem/services/checker/response"
)

// property is one reported flag of a response.
type property struct {
	key   string
	label string
	value bool
}

// Verdict summarises a response in a few words.
//
// An equal response can still fail a property, for example identical
// trees holding an invalid atomic number. That is reported as a warning.
func Verdict(resp response.Response) string {
	switch {
	case resp.ContainsError:
		return "Parse error"
	case resp.TypeMismatch:
		return "Type mismatch"
	case resp.IsEqual && hasWarnings(resp):
		return "Equivalent with warnings"
	case resp.IsEqual:
		return "Equivalent"
	default:
		return "Not equivalent"
	}
}

// properties lists the flags that apply to the response's domain.
func properties(resp response.Response) []property {
	props := []property{
		{"isEqual", "Equal", resp.IsEqual},
		{"sameCoefficient", "Same coefficients", resp.SameCoefficient},
		{"sameElements", "Same elements", resp.SameElements},
		{"isBalanced", "Balanced", resp.IsBalanced},
	}
	if resp.IsNuclear {
		return append(props,
			property{"validAtomicNumber", "Valid atomic numbers", resp.ValidAtomicNumber},
			property{"balancedAtom", "Atomic numbers balance", resp.BalancedAtom},
			property{"balancedMass", "Mass numbers balance", resp.BalancedMass},
		)
	}
	return append(props,
		property{"sameState", "Same states", resp.SameState},
		property{"sameHydrate", "Same hydrates", resp.SameHydrate},
		property{"sameCharge", "Same charges", resp.SameCharge},
		property{"sameBrackets", "Same brackets", resp.SameBrackets},
		property{"sameArrow", "Same arrow", resp.SameArrow},
		property{"isChargeBalanced", "Charge balances", resp.IsChargeBalanced},
	)
}

// hasWarnings reports whether any property other than isEqual failed.
func hasWarnings(resp response.Response) bool {
	for _, p := range properties(resp)[1:] {
		if !p.value {
			return true
		}
	}
	return false
}

// RenderResponse writes resp to w.
//
// # Description
//
// ModePlain writes one "key: value" line per field, starting with a
// "result:" verdict line. ModeStyled writes the same information in a box
// with icons. Aggregates are included when the response carries them.
//
// # Inputs
//
//   - w: Destination.
//   - resp: The checker response.
//   - mode: Output mode.
//
// # Outputs
//
//   - error: The first write error.
func RenderResponse(w io.Writer, resp response.Response, mode Mode) error {
	if mode == ModePlain {
		return renderPlain(w, resp)
	}
	return renderStyled(w, resp)
}

func renderPlain(w io.Writer, resp response.Response) error {
	var b strings.Builder
	fmt.Fprintf(&b, "result: %s\n", Verdict(resp))
	for _, p := range properties(resp) {
		fmt.Fprintf(&b, "%s: %t\n", p.key, p.value)
	}
	if resp.TypeMismatch {
		fmt.Fprintf(&b, "expectedType: %s\nreceivedType: %s\n", resp.ExpectedType, resp.ReceivedType)
	}
	if resp.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", resp.Error)
	}
	if resp.CoefficientScalingValue != nil {
		fmt.Fprintf(&b, "coefficientScalingValue: %s\n", resp.CoefficientScalingValue)
	}
	for _, line := range aggregateLines(resp) {
		fmt.Fprintf(&b, "%s: %s\n", line[0], line[1])
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderStyled(w io.Writer, resp response.Response) error {
	var b strings.Builder
	verdict := Verdict(resp)
	box := Styles.Box
	switch {
	case resp.IsEqual && hasWarnings(resp):
		b.WriteString(IconWarning.Render() + " " + Styles.Warning.Bold(true).Render(verdict))
	case resp.IsEqual:
		b.WriteString(IconSuccess.Render() + " " + Styles.Title.Render(verdict))
	default:
		b.WriteString(IconError.Render() + " " + Styles.Error.Bold(true).Render(verdict))
		if resp.ContainsError || resp.TypeMismatch {
			box = Styles.ErrorBox
		}
	}
	b.WriteString("\n")

	if resp.Error != "" {
		b.WriteString("\n" + Styles.Error.Render(resp.Error) + "\n")
	}
	if resp.TypeMismatch {
		fmt.Fprintf(&b, "\n%s %s, %s %s\n",
			Styles.Muted.Render("expected"), resp.ExpectedType,
			Styles.Muted.Render("received"), resp.ReceivedType)
	}
	if !resp.ContainsError && !resp.TypeMismatch {
		b.WriteString("\n")
		for _, p := range properties(resp)[1:] {
			icon := IconSuccess
			if !p.value {
				icon = IconError
				if resp.IsEqual {
					icon = IconWarning
				}
			}
			b.WriteString(icon.Render() + " " + p.label + "\n")
		}
	}
	if resp.CoefficientScalingValue != nil {
		fmt.Fprintf(&b, "\n%s %s\n", Styles.Muted.Render("Scaled by"), resp.CoefficientScalingValue)
	}
	if lines := aggregateLines(resp); len(lines) > 0 {
		b.WriteString("\n" + Styles.Subtitle.Render("Totals") + "\n")
		for _, line := range lines {
			fmt.Fprintf(&b, "%s %s %s\n", IconBullet.Render(), Styles.Muted.Render(line[0]), line[1])
		}
	}

	_, err := fmt.Fprintln(w, box.Render(strings.TrimRight(b.String(), "\n")))
	return err
}

// aggregateLines formats the kept aggregates as (key, value) pairs.
func aggregateLines(resp response.Response) [][2]string {
	var lines [][2]string
	if len(resp.AtomCount) > 0 {
		lines = append(lines, [2]string{"atomCount", formatCounts(resp.AtomCount)})
	}
	if resp.ChargeCount != nil {
		lines = append(lines, [2]string{"chargeCount", resp.ChargeCount.String()})
	}
	if resp.NucleonCount != nil {
		lines = append(lines, [2]string{"nucleonCount",
			fmt.Sprintf("atomic=%d mass=%d", resp.NucleonCount.Atomic, resp.NucleonCount.Mass)})
	}
	return lines
}

// formatCounts renders atom counts sorted by symbol, e.g. "Cl=1 Na=1".
func formatCounts(counts map[string]fraction.Fraction) string {
	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)

	parts := make([]string, len(symbols))
	for i, s := range symbols {
		parts[i] = s + "=" + counts[s].String()
	}
	return strings.Join(parts, " ")
}
