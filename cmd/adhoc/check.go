package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/fredronnv/adhoc/api"
	"github.com/fredronnv/adhoc/codec"
)

func (a *app) checkCmd() *cobra.Command {
	var typeName, function string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "check [flags] PAYLOAD",
		Short: "Validate a JSON or YAML payload",
		Long: `Decode a payload and validate it against a type (--type) or against the
parameter list of a function (--function). Client issues are printed one
per line as "path: code: message" and the command exits non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (typeName == "") == (function == "") {
				return fmt.Errorf("exactly one of --type and --function is required")
			}
			if err := a.load(); err != nil {
				return err
			}
			raw, err := a.decode(args[0])
			if err == nil {
				err = a.validate(cmd.Context(), typeName, function, raw)
			}
			if iss, ok := adhoc.AsIssues(err); ok {
				for _, i := range iss {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %s\n", pathOrRoot(i.Path), i.Code, i.Message)
				}
				return errIssues
			}
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
			}
			return nil
		},
	}
	a.defsFlags(cmd, true)
	cmd.Flags().StringVar(&typeName, "type", "", "type to check against")
	cmd.Flags().StringVar(&function, "function", "", "function whose parameters the payload holds")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print nothing on success")
	return cmd
}

func (a *app) decode(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return codec.DecodeYAML(data, a.cfg.CodecOptions())
	default:
		return codec.DecodeJSON(data, a.cfg.CodecOptions())
	}
}

// validate runs the inbound pipeline. Function payloads hold the argument
// list; handlers are not invoked.
func (a *app) validate(ctx context.Context, typeName, function string, raw any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := api.New(a.set, api.WithLogger(a.log), api.WithFailFast(a.cfg.Types.FailFast),
		api.WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		return err
	}
	if typeName != "" {
		_, err = svc.Parse(ctx, a.version, typeName, raw)
		return err
	}
	args, ok := raw.([]any)
	if !ok {
		return adhoc.Issues{adhoc.Root().Issue(adhoc.CodeInvalidType, "expected", "array")}
	}
	_, err = svc.CheckArgs(ctx, a.version, function, args)
	return err
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
