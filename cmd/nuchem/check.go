// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AleutianAI/nuchem/pkg/ux"
	"github.com/AleutianAI/nuchem/services/checker"
	"github.com/AleutianAI/nuchem/services/checker/chemistry"
	"github.com/AleutianAI/nuchem/services/checker/config"
	"github.com/AleutianAI/nuchem/services/checker/nuclear"
	"github.com/AleutianAI/nuchem/services/checker/parser"
	"github.com/AleutianAI/nuchem/services/checker/response"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	domain     string
	testFile   string
	targetFile string
	check      response.Options
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [test] [target]",
		Short: "Compare a test expression against a target expression",
		Long: `Compare a test expression against a target expression.

With two arguments the expressions are parsed by the grammar service at
parser.url. With --test-file and --target-file the trees are read from JSON
files in the grammar service's response format and no service is needed.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := runCheck(cmd, root, opts, args)
			if err != nil {
				return err
			}
			return writeResponse(cmd.OutOrStdout(), root.output, resp)
		},
	}
	cmd.Flags().StringVarP(&opts.domain, "domain", "d", "chem", "Expression domain: chem or nuclear")
	cmd.Flags().StringVar(&opts.testFile, "test-file", "", "JSON tree of the test expression (- for stdin)")
	cmd.Flags().StringVar(&opts.targetFile, "target-file", "", "JSON tree of the target expression")
	cmd.Flags().BoolVar(&opts.check.AllowPermutations, "permutations", false, "Compare children as multisets")
	cmd.Flags().BoolVar(&opts.check.AllowScalingCoefficients, "scaling", false, "Accept uniformly scaled coefficients")
	cmd.Flags().BoolVar(&opts.check.KeepAggregates, "keep-aggregates", false, "Report atom, charge and nucleon totals")
	return cmd
}

func runCheck(cmd *cobra.Command, root *rootOptions, opts *checkOptions, args []string) (response.Response, error) {
	domain, err := checker.ParseDomain(opts.domain)
	if err != nil {
		return response.Response{}, err
	}

	if opts.testFile != "" || opts.targetFile != "" {
		if opts.testFile == "" || opts.targetFile == "" || len(args) > 0 {
			return response.Response{}, errors.New("--test-file and --target-file must be given together and without arguments")
		}
		return checkFiles(cmd.InOrStdin(), domain, opts.testFile, opts.targetFile, opts.check)
	}
	if len(args) != 2 {
		return response.Response{}, errors.New("expected a test and a target expression")
	}

	cfg, err := config.Load(root.configPath)
	if err != nil {
		return response.Response{}, fmt.Errorf("loading config: %w", err)
	}
	p := parser.NewHTTPParser(cfg.Parser.URL, parser.WithTimeout(cfg.Parser.Timeout))
	svc := checker.NewService(checker.DefaultServiceConfig(), p)
	return svc.Check(cmd.Context(), domain, args[0], args[1], opts.check)
}

// checkFiles compares two trees read from disk.
func checkFiles(stdin io.Reader, domain parser.Domain, testPath, targetPath string, opts response.Options) (response.Response, error) {
	testData, err := readInput(stdin, testPath)
	if err != nil {
		return response.Response{}, err
	}
	targetData, err := readInput(stdin, targetPath)
	if err != nil {
		return response.Response{}, err
	}

	if domain == parser.DomainChemistry {
		test, err := decodeChemistry(testData)
		if err != nil {
			return response.Response{}, fmt.Errorf("%s: %w", testPath, err)
		}
		target, err := decodeChemistry(targetData)
		if err != nil {
			return response.Response{}, fmt.Errorf("%s: %w", targetPath, err)
		}
		return chemistry.Check(chemistry.Augment(test), chemistry.Augment(target), opts), nil
	}

	test, err := decodeNuclear(testData)
	if err != nil {
		return response.Response{}, fmt.Errorf("%s: %w", testPath, err)
	}
	target, err := decodeNuclear(targetData)
	if err != nil {
		return response.Response{}, fmt.Errorf("%s: %w", targetPath, err)
	}
	return nuclear.Check(nuclear.Augment(test), nuclear.Augment(target), opts), nil
}

func newAugmentCmd(root *rootOptions) *cobra.Command {
	var domainName string
	cmd := &cobra.Command{
		Use:   "augment [file]",
		Short: "Print the augmented form of a JSON tree",
		Long: `Read a tree in the grammar service's response format from file (or
stdin when omitted or -) and print its augmented form.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := checker.ParseDomain(domainName)
			if err != nil {
				return err
			}
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			var out any
			if domain == parser.DomainChemistry {
				tree, err := decodeChemistry(data)
				if err != nil {
					return err
				}
				out = chemistry.AST{Result: chemistry.Augment(tree)}
			} else {
				tree, err := decodeNuclear(data)
				if err != nil {
					return err
				}
				out = nuclear.AST{Result: nuclear.Augment(tree)}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&domainName, "domain", "d", "chem", "Expression domain: chem or nuclear")
	return cmd
}

// readInput reads path, or r when path is "-".
func readInput(r io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(r)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// firstResult accepts either one {"result": ...} envelope or the grammar
// service's array of them, and returns the first envelope.
func firstResult(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return trimmed, nil
	}
	var results []json.RawMessage
	if err := json.Unmarshal(trimmed, &results); err != nil {
		return nil, fmt.Errorf("decoding parser results: %w", err)
	}
	if len(results) == 0 {
		return nil, parser.ErrEmptyResult
	}
	return results[0], nil
}

func decodeChemistry(data []byte) (chemistry.Node, error) {
	raw, err := firstResult(data)
	if err != nil {
		return nil, err
	}
	var ast chemistry.AST
	if err := json.Unmarshal(raw, &ast); err != nil {
		return nil, err
	}
	return ast.Result, nil
}

func decodeNuclear(data []byte) (nuclear.Node, error) {
	raw, err := firstResult(data)
	if err != nil {
		return nil, err
	}
	var ast nuclear.AST
	if err := json.Unmarshal(raw, &ast); err != nil {
		return nil, err
	}
	return ast.Result, nil
}

// writeResponse renders resp in the requested output format.
func writeResponse(w io.Writer, output string, resp response.Response) error {
	if output == "json" {
		return writeJSON(w, resp)
	}
	return ux.RenderResponse(w, resp, ux.ParseMode(output, os.Stdout))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
