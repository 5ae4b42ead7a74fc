package main

import (
	"fmt"

	"github.com/spf13/cobra"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/fredronnv/adhoc/codec"
	"github.com/fredronnv/adhoc/jsonschema"
)

func (a *app) schemaCmd() *cobra.Command {
	var typeName string
	var compact bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of one API version",
		Long: `Print a JSON Schema document for an API version. Every registered type
becomes a definition, and each function contributes <name>Params and
<name>Result definitions. With --type only that type is exported inline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(); err != nil {
				return err
			}
			r, err := a.registry()
			if err != nil {
				return err
			}
			var s *jsonschema.Schema
			if typeName != "" {
				n, ok := r.Type(typeName)
				if !ok {
					return fmt.Errorf("type %q not in api version %d", adhoc.Capsify(typeName), a.version)
				}
				s, err = jsonschema.Export(n)
			} else {
				s, err = jsonschema.ExportRegistry(r)
			}
			if err != nil {
				return err
			}
			return codec.WriteJSON(cmd.OutOrStdout(), s, !compact)
		},
	}
	a.defsFlags(cmd, true)
	cmd.Flags().StringVar(&typeName, "type", "", "export a single type")
	cmd.Flags().BoolVar(&compact, "compact", false, "print without indentation")
	return cmd
}
