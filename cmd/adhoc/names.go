package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) namesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "List functions and types per API version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, v := range a.set.Versions() {
				r, _ := a.set.Get(v)
				var fns, types []string
				for _, fn := range r.Functions() {
					fns = append(fns, fn.ExternalName())
				}
				for _, t := range r.Types() {
					types = append(types, t.Name)
				}
				fmt.Fprintf(out, "v%d\n  functions: %s\n  types: %s\n", v, strings.Join(fns, " "), strings.Join(types, " "))
			}
			return nil
		},
	}
	a.defsFlags(cmd, false)
	return cmd
}
