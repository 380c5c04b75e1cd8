package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"AffiliationChecker/internal/screening"
)

func newVerifyNameCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "verify-name <requested name> <source name>",
		Short:       "Check whether two names refer to the same person under the screening name rules",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			verdict := "MISMATCH"
			if screening.MatchName(args[0], args[1]) {
				verdict = "MATCH"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %q vs %q\n", verdict, args[0], args[1])
			return nil
		},
	}
}
