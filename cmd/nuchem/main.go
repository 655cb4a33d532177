// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command nuchem checks chemistry and nuclear equations for equivalence.
//
// Usage:
//
//	nuchem serve --config nuchem.yaml
//	nuchem check --domain chem "2H2 + O2 -> 2H2O" "O2 + 2H2 -> 2H2O" --permutations
//	nuchem check --domain nuclear --test-file test.json --target-file target.json
//	nuchem augment --domain chem tree.json
//
// Example requests against a running server:
//
//	# Banner
//	curl http://localhost:8080/
//
//	# Compare two chemistry expressions
//	curl -X POST http://localhost:8080/chem/check \
//	  -H "Content-Type: application/json" \
//	  -d '{"target": "H2O", "test": "H2O", "questionID": "q1"}'
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "nuchem",
		Short: "Equivalence checker for chemistry and nuclear equations",
		Long: `nuchem compares a submitted chemistry or nuclear equation against an
expected one and reports which properties match.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the YAML config file")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "auto", "Output format: auto, styled, plain or json")

	cmd.AddCommand(
		newServeCmd(opts),
		newCheckCmd(opts),
		newAugmentCmd(opts),
	)
	return cmd
}
