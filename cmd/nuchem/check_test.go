// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/nuchem/services/checker/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2H2 + O2 -> 2H2O(l)
const water = `[{
  "result": {
    "type": "statement",
    "arrow": "SArr",
    "left": {
      "type": "expr",
      "term": {"type": "term", "value": {"type": "element", "value": "O", "coeff": 2}, "coeff": {"numerator": 1, "denominator": 1}},
      "rest": {"type": "term", "value": {"type": "element", "value": "H", "coeff": 2}, "coeff": {"numerator": 2, "denominator": 1}}
    },
    "right": {
      "type": "term",
      "value": {
        "type": "compound",
        "head": {"type": "element", "value": "O", "coeff": 1},
        "tail": {"type": "element", "value": "H", "coeff": 2}
      },
      "coeff": {"numerator": 2, "denominator": 1},
      "state": "(l)"
    }
  }
}]`

// O2 + 2H2 -> 2H2O(l)
const waterSwapped = `{
  "result": {
    "type": "statement",
    "arrow": "SArr",
    "left": {
      "type": "expr",
      "term": {"type": "term", "value": {"type": "element", "value": "H", "coeff": 2}, "coeff": {"numerator": 2, "denominator": 1}},
      "rest": {"type": "term", "value": {"type": "element", "value": "O", "coeff": 2}, "coeff": {"numerator": 1, "denominator": 1}}
    },
    "right": {
      "type": "term",
      "value": {
        "type": "compound",
        "head": {"type": "element", "value": "O", "coeff": 1},
        "tail": {"type": "element", "value": "H", "coeff": 2}
      },
      "coeff": {"numerator": 2, "denominator": 1},
      "state": "(l)"
    }
  }
}`

// U-238 -> Th-234 + alpha
const alphaDecay = `{
  "result": {
    "type": "statement",
    "left": {
      "type": "term",
      "value": {"type": "isotope", "element": "U", "mass": 238, "atomic": 92},
      "coeff": 1
    },
    "right": {
      "type": "expr",
      "term": {"type": "term", "value": {"type": "particle", "particle": "alphaparticle", "mass": 4, "atomic": 2}, "isParticle": true},
      "rest": {"type": "term", "value": {"type": "isotope", "element": "Th", "mass": 234, "atomic": 90}, "coeff": 1}
    }
  }
}`

func writeTree(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCmd_Files(t *testing.T) {
	target := writeTree(t, "target.json", water)
	test := writeTree(t, "test.json", waterSwapped)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "identical",
			args: []string{"--test-file", target, "--target-file", target},
			want: "result: Equivalent\n",
		},
		{
			name: "order matters by default",
			args: []string{"--test-file", test, "--target-file", target},
			want: "result: Not equivalent\n",
		},
		{
			name: "permutations",
			args: []string{"--test-file", test, "--target-file", target, "--permutations"},
			want: "result: Equivalent\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"check", "-o", "plain"}, tt.args...)
			out, err := execute(t, "", args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestCheckCmd_NuclearJSON(t *testing.T) {
	path := writeTree(t, "decay.json", alphaDecay)

	out, err := execute(t, "", "check", "-d", "nuclear", "-o", "json", "--keep-aggregates",
		"--test-file", path, "--target-file", path)
	require.NoError(t, err)

	var resp response.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.IsNuclear)
	assert.True(t, resp.IsEqual)
	require.NotNil(t, resp.NucleonCount)
	assert.Equal(t, response.Nucleons{Atomic: 92, Mass: 238}, *resp.NucleonCount)
}

func TestCheckCmd_Stdin(t *testing.T) {
	target := writeTree(t, "target.json", water)

	out, err := execute(t, waterSwapped, "check", "-o", "plain", "--permutations",
		"--test-file", "-", "--target-file", target)
	require.NoError(t, err)
	assert.Contains(t, out, "result: Equivalent\n")
}

func TestCheckCmd_Errors(t *testing.T) {
	target := writeTree(t, "target.json", water)
	broken := writeTree(t, "broken.json", `{"result": {"type": "molecule"}}`)

	tests := []struct {
		name string
		args []string
	}{
		{name: "one file", args: []string{"check", "--test-file", target}},
		{name: "files and args", args: []string{"check", "--test-file", target, "--target-file", target, "H2O"}},
		{name: "one arg", args: []string{"check", "H2O"}},
		{name: "unknown domain", args: []string{"check", "-d", "biology", "H2O", "H2O"}},
		{name: "missing file", args: []string{"check", "--test-file", "/nonexistent.json", "--target-file", target}},
		{name: "unknown node", args: []string{"check", "--test-file", broken, "--target-file", target}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestAugmentCmd(t *testing.T) {
	path := writeTree(t, "water.json", water)

	out, err := execute(t, "", "augment", path)
	require.NoError(t, err)

	var ast struct {
		Result struct {
			Type  string `json:"type"`
			Left  struct {
				Terms []json.RawMessage `json:"terms"`
			} `json:"left"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ast))
	assert.Equal(t, "statement", ast.Result.Type)
	assert.Len(t, ast.Result.Left.Terms, 2)
}

func TestAugmentCmd_NuclearStdin(t *testing.T) {
	out, err := execute(t, alphaDecay, "augment", "-d", "nuclear")
	require.NoError(t, err)
	assert.Contains(t, out, `"alphaparticle"`)
	assert.NotContains(t, out, `"rest"`)
}
