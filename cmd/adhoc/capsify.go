package main

import (
	"fmt"

	"github.com/spf13/cobra"

	adhoc "github.com/fredronnv/adhoc"
)

func capsifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capsify NAME...",
		Short: "Print the external form of internal names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, n := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", n, adhoc.Capsify(n))
			}
			return nil
		},
	}
}
