// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chemistry

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nuchem/services/checker/fraction"
)

// 2H2 + O2 -> 2H2O(l), as the grammar service emits it.
const waterSynthesis = `{
  "result": {
    "type": "statement",
    "arrow": "SArr",
    "left": {
      "type": "expr",
      "term": {
        "type": "term",
        "value": {"type": "element", "value": "O", "coeff": 2},
        "coeff": {"numerator": 1, "denominator": 1},
        "state": "", "hydrate": 0, "isElectron": false, "isHydrate": false
      },
      "rest": {
        "type": "term",
        "value": {"type": "element", "value": "H", "coeff": 2},
        "coeff": {"numerator": 2, "denominator": 1},
        "state": "", "hydrate": 0, "isElectron": false, "isHydrate": false
      }
    },
    "right": {
      "type": "term",
      "value": {
        "type": "compound",
        "head": {"type": "element", "value": "O", "coeff": 1},
        "tail": {"type": "element", "value": "H", "coeff": 2}
      },
      "coeff": {"numerator": 2, "denominator": 1},
      "state": "(l)", "hydrate": 0, "isElectron": false, "isHydrate": false
    }
  }
}`

func TestAST_UnmarshalChained(t *testing.T) {
	var ast AST
	require.NoError(t, json.Unmarshal([]byte(waterSynthesis), &ast))

	s, ok := ast.Result.(*Statement)
	require.True(t, ok)
	assert.Equal(t, ArrowSingle, s.Arrow)

	left := s.Left.(*Expression)
	assert.Equal(t, "O", left.Term.Value.(*Element).Symbol)
	rest := left.Rest.(*Term)
	assert.Equal(t, fraction.FromInt(2), rest.Coeff)

	right := s.Right.(*Term)
	assert.Equal(t, StateLiquid, right.State)
	water := right.Value.(*Compound)
	assert.Equal(t, "O", water.Head.(*Element).Symbol)
	assert.Equal(t, "H", water.Tail.(*Element).Symbol)
}

func TestDecode_AugmentAndCheck(t *testing.T) {
	var test, target AST
	require.NoError(t, json.Unmarshal([]byte(waterSynthesis), &test))
	require.NoError(t, json.Unmarshal([]byte(waterSynthesis), &target))

	resp := Check(Augment(test.Result), Augment(target.Result), optsKeep)

	assert.True(t, resp.IsEqual)
	assert.True(t, resp.IsBalanced)
	assert.False(t, resp.ContainsError)
}

func TestDecode_TermDefaults(t *testing.T) {
	n, err := Decode([]byte(`{"type": "term", "value": {"type": "electron"}, "isElectron": true}`))
	require.NoError(t, err)

	term := n.(*Term)
	assert.Equal(t, fraction.One(), term.Coeff)
	assert.True(t, term.IsElectron)
	assert.IsType(t, &Electron{}, term.Value)
}

func TestDecode_Ion(t *testing.T) {
	raw := `{
	  "type": "ion",
	  "molecule": {"type": "element", "value": "Cl", "coeff": 1},
	  "charge": -1,
	  "chain": {
	    "type": "ion",
	    "molecule": {"type": "element", "value": "Na", "coeff": 1},
	    "charge": 1
	  }
	}`

	n, err := Decode([]byte(raw))
	require.NoError(t, err)

	i := Augment(n).(*Ion)
	require.Len(t, i.Molecules, 2)
	assert.Equal(t, "Na", i.Molecules[0].Molecule.(*Element).Symbol)
	assert.Equal(t, 1, i.Molecules[0].Charge)
	assert.Equal(t, "Cl", i.Molecules[1].Molecule.(*Element).Symbol)
	assert.Equal(t, -1, i.Molecules[1].Charge)
}

func TestDecode_ErrorNode(t *testing.T) {
	raw := `{"type": "error", "value": "Unexpected token", "expected": ["element", "bracket"], "loc": [1, 4]}`

	n, err := Decode([]byte(raw))
	require.NoError(t, err)

	e := n.(*ErrorNode)
	assert.Equal(t, "Unexpected token", e.Message)
	assert.Equal(t, []string{"element", "bracket"}, e.Expected)
	assert.Equal(t, [2]int{1, 4}, e.Loc)
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		unknown bool
	}{
		{name: "unknown type", raw: `{"type": "molecule"}`, unknown: true},
		{name: "nested unknown type", raw: `{"type": "term", "value": {"type": "photon"}}`, unknown: true},
		{name: "malformed", raw: `{"type": `},
		{name: "bracket without compound", raw: `{"type": "bracket", "bracket": "round", "compound": {"type": "element", "value": "H", "coeff": 1}, "coeff": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			if tt.unknown {
				assert.ErrorIs(t, err, ErrUnknownNodeType)
			}
		})
	}
}

func TestDecode_Null(t *testing.T) {
	n, err := Decode([]byte(" null "))
	require.NoError(t, err)
	assert.Nil(t, n)

	var ast AST
	require.NoError(t, json.Unmarshal([]byte(`{"result": null}`), &ast))
	assert.Nil(t, ast.Result)
}

func TestEncode_RoundTrip(t *testing.T) {
	trees := map[string]Node{
		"decaneChain":          decaneChain(),
		"augmentedDecaneChain": Augment(decaneChain()),
		"salt":                 saltFormation(),
		"augmentedSalt":        Augment(saltFormation()),
		"error":                &ErrorNode{Message: "Unexpected end of input", Loc: [2]int{3, 3}},
		"hydrate": &Term{
			Value:     compound(el("Cu", 1), el("S", 1), el("O", 4)),
			Coeff:     fraction.New(1, 2),
			State:     StateSolid,
			Hydrate:   5,
			IsHydrate: true,
		},
	}

	for name, tree := range trees {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(AST{Result: tree})
			require.NoError(t, err)

			var decoded AST
			require.NoError(t, json.Unmarshal(data, &decoded))

			assert.Empty(t, cmp.Diff(tree, decoded.Result, cmpopts.EquateEmpty()))
		})
	}
}
