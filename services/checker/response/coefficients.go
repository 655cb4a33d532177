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

import "github.com/AleutianAI/nuchem/services/checker/fraction"

// MatchCoefficients compares one pair of term coefficients.
//
// Description:
//
//	Without AllowScalingCoefficients the coefficients must denote the same
//	value. With it, the first pair fixes CoefficientScalingValue to the
//	ratio test/target and every later pair must have that same ratio.
//	SameCoefficient is cleared on a mismatch.
//
// Inputs:
//
//	test - The submitted coefficient.
//	target - The reference coefficient.
//
// Outputs:
//
//	Response - r with SameCoefficient and CoefficientScalingValue updated.
//	bool - True if this pair matches.
//	error - fraction.ErrDivisionByZero if a ratio cannot be formed.
func (r Response) MatchCoefficients(test, target fraction.Fraction) (Response, bool, error) {
	if !r.Options.AllowScalingCoefficients {
		same := fraction.Equal(test, target)
		r.SameCoefficient = r.SameCoefficient && same
		return r, same, nil
	}

	ratio, _, err := fraction.Ratio(test, target)
	if err != nil {
		return r, false, err
	}
	ratio = ratio.Simplify()

	if r.CoefficientScalingValue == nil {
		r.CoefficientScalingValue = &ratio
		return r, true, nil
	}

	_, consistent, err := fraction.Ratio(*r.CoefficientScalingValue, ratio)
	if err != nil {
		return r, false, err
	}
	r.SameCoefficient = r.SameCoefficient && consistent
	return r, consistent, nil
}
