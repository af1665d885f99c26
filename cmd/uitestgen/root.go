package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph/config"
	"github.com/randalmurphal/uitestgen/pkg/workflow"
)

// app is the state shared by all commands.
type app struct {
	configPath string
	logFormat  string
	logLevel   string

	cfg      config.Config
	settings workflow.Settings
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "uitestgen",
		Short:         "Generate Selenium login tests with LLMs",
		Long:          `uitestgen drafts a login function for a page, has it reviewed, wraps it in a unittest file and repairs it until the test passes or the retry budget runs out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML or JSON settings file (default $UITESTGEN_CONFIG)")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		newRunCmd(a),
		newSpecCmd(a),
		newGraphCmd(a),
		newTokensCmd(a),
		newServeCmd(a),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\nrun '%s --help' for usage", err, cmd.CommandPath())
	})
	return root
}

func (a *app) setup(stderr io.Writer) error {
	logger, err := newLogger(stderr, a.logFormat, a.logLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	settings, err := workflow.LoadSettings(cfg)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.settings = settings
	return nil
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
