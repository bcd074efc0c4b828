package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	dErrors "vetting/pkg/domain-errors"
)

func newRiskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Risk scoring",
	}
	cmd.AddCommand(newRiskScoreCmd(opts))
	return cmd
}

func newRiskScoreCmd(opts *rootOptions) *cobra.Command {
	var (
		version string
		signals []string
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a signal set against a policy version",
		Example: `  vetctl risk score --signal license_valid=true --signal experienced=false ...
  vetctl risk score --policy policies.yaml --version 2024-01 --signal ...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := opts.policyBook()
			if err != nil {
				return err
			}
			policy := book.Current()
			if version != "" {
				if policy, err = book.Version(version); err != nil {
					return err
				}
			}
			parsed, err := parseSignals(signals)
			if err != nil {
				return err
			}
			a, err := policy.Evaluate(parsed)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), a)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "policy %s: score %d (%s)\n", a.PolicyVersion, a.Score, a.Level)
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "policy version (defaults to the active version)")
	cmd.Flags().StringArrayVar(&signals, "signal", nil, "signal as name=true|false, repeatable")
	return cmd
}

func parseSignals(raw []string) (map[string]bool, error) {
	out := make(map[string]bool, len(raw))
	for _, s := range raw {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("signal %q must be name=true|false", s))
		}
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("signal %q has a non-boolean value", name))
		}
		if _, dup := out[name]; dup {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("signal %q given twice", name))
		}
		out[name] = b
	}
	return out, nil
}

