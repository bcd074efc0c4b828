package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"vetting/internal/risk"
)

type rootOptions struct {
	jsonOutput bool
	policyFile string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "vetctl",
		Short: "Offline tooling for the vetting service",
		Long: `vetctl evaluates risk policies and classifies credential expiry dates
with the same rules the vetting service applies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")
	cmd.PersistentFlags().StringVar(&opts.policyFile, "policy", "", "YAML policy book (defaults to the built-in book)")

	cmd.AddCommand(newRiskCmd(opts), newExpiryCmd(opts), newPolicyCmd(opts))
	return cmd
}

func (o *rootOptions) policyBook() (*risk.PolicyBook, error) {
	if o.policyFile == "" {
		return risk.DefaultPolicyBook(), nil
	}
	return risk.LoadPolicyBook(o.policyFile)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
