package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fredronnv/adhoc/config"
	"github.com/fredronnv/adhoc/dsl"
	"github.com/fredronnv/adhoc/registry"
	"github.com/fredronnv/adhoc/typedef"
)

// errIssues signals that client issues were already printed.
var errIssues = errors.New("payload rejected")

type app struct {
	out, errOut io.Writer
	cfgFile     string
	defsFile    string
	version     int

	cfg  config.Config
	log  zerolog.Logger
	defs *typedef.Definitions
	set  *registry.Set
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:   "adhoc",
		Short: "Inspect versioned API definitions",
		Long: `adhoc reads a YAML definition file and works with the API versions it
describes.

Examples:
  adhoc names --defs api.yaml
  adhoc schema --defs api.yaml --api-version 2
  adhoc check --defs api.yaml --api-version 2 --type group payload.json
  adhoc capsify list_groups XMLParser`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (.yaml, .yml or .toml)")

	root.AddCommand(a.schemaCmd(), a.checkCmd(), a.namesCmd(), capsifyCmd())
	return root
}

// defsFlags adds the flags shared by commands that load definitions.
func (a *app) defsFlags(cmd *cobra.Command, withVersion bool) {
	cmd.Flags().StringVar(&a.defsFile, "defs", "", "definition file")
	_ = cmd.MarkFlagRequired("defs")
	if withVersion {
		cmd.Flags().IntVar(&a.version, "api-version", -1, "API version (default: highest configured)")
	}
}

func (a *app) loadConfig() error {
	cfg := config.Default()
	if a.cfgFile != "" {
		var err error
		if cfg, err = config.Load(a.cfgFile); err != nil {
			return err
		}
	} else if err := config.FromEnv(&cfg); err != nil {
		return err
	} else if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Logger(a.errOut)
	return nil
}

// load reads config and definitions and builds every configured version.
func (a *app) load() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	data, err := os.ReadFile(a.defsFile)
	if err != nil {
		return fmt.Errorf("read definitions: %w", err)
	}
	f, err := typedef.Parse(data)
	if err != nil {
		return err
	}
	defs, err := f.Build(dsl.NewUniverse(), typedef.Options{StrictBooleans: a.cfg.Types.StrictBooleans})
	if err != nil {
		return err
	}
	set := registry.NewSet(a.cfg.API.MinVersion, a.cfg.API.MaxVersion, registry.WithLogger(a.log))
	defs.Populate(set)
	if err := set.Build(); err != nil {
		return err
	}
	a.defs, a.set = defs, set
	if a.version < 0 {
		a.version = a.cfg.API.MaxVersion
	}
	return nil
}

func (a *app) registry() (*registry.Registry, error) {
	r, ok := a.set.Get(a.version)
	if !ok {
		return nil, fmt.Errorf("api version %d not in %s", a.version, a.set.Bounds())
	}
	return r, nil
}
