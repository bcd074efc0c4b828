package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vetting/internal/expiry"
	dErrors "vetting/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

type classification struct {
	Date   string        `json:"date"`
	Status expiry.Status `json:"status"`
}

func newExpiryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expiry",
		Short: "Credential expiry checks",
	}
	cmd.AddCommand(newExpiryClassifyCmd(opts))
	return cmd
}

func newExpiryClassifyCmd(opts *rootOptions) *cobra.Command {
	var now string
	cmd := &cobra.Command{
		Use:   "classify DATE...",
		Short: "Classify expiry dates (YYYY-MM-DD) as valid, expiring_soon or expired",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := time.Now().UTC()
			if now != "" {
				t, err := time.Parse(dateLayout, now)
				if err != nil {
					return dErrors.Wrap(err, dErrors.CodeInvalidInput, "--now must be YYYY-MM-DD")
				}
				ref = t
			}
			results := make([]classification, 0, len(args))
			for _, arg := range args {
				d, err := time.Parse(dateLayout, arg)
				if err != nil {
					return dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("date %q must be YYYY-MM-DD", arg))
				}
				results = append(results, classification{Date: arg, Status: expiry.Classify(&d, ref)})
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Date, r.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "reference date (defaults to today, UTC)")
	return cmd
}
