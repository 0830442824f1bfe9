// novellens is the command-line client for the novel analysis backend.
//
// Usage:
//
//	novellens graph --novel=1 [--character=3] [--depth=2] [--force]
//	novellens timeline --novel=1 [--character=3] [--start=1] [--end=20]
//	novellens journey --novel=1 --character=3
//	novellens lineage --novel=1 --item=7
//	novellens location --novel=1 --location=2
//	novellens ask --novel=1 "Who forged the seal?"
//	novellens serve [--metrics-addr=localhost:9090]
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"novellens/internal/analysis"
	"novellens/internal/artifact"
	"novellens/internal/config"
	"novellens/internal/gateway"
	"novellens/internal/logging"
	"novellens/internal/qa"
	"novellens/internal/render"
)

// version is set at build time via -ldflags.
var version = "dev"

type globalFlags struct {
	configPath string
	baseURL    string
	token      string
	logLevel   string
	logFormat  string
	output     string
}

// cliState is built once per invocation by the root PersistentPreRunE and
// shared by the subcommands.
type cliState struct {
	flags    globalFlags
	cfg      *config.Config
	client   *gateway.Client
	store    *analysis.Store
	qa       *qa.Session
	format   render.Format
	registry *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	st := &cliState{}
	root := &cobra.Command{
		Use:   "novellens",
		Short: "Explore novel analyses: relationships, timelines, journeys, items and places",
		Long: `novellens queries a novel analysis backend and renders its artifacts.
Relationship graphs are cached for the lifetime of the process, so repeated
queries inside one serve session do not hit the backend again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.init(cmd)
		},
	}
	root.Version = version

	f := root.PersistentFlags()
	f.StringVar(&st.flags.configPath, "config", "", "Config file (YAML or JSON)")
	f.StringVar(&st.flags.baseURL, "base-url", "", "Backend base URL (overrides config)")
	f.StringVar(&st.flags.token, "token", "", "Bearer token (overrides config)")
	f.StringVar(&st.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&st.flags.logFormat, "log-format", "", "Log format: text or json")
	f.StringVarP(&st.flags.output, "output", "o", string(render.Table), "Output format: table, markdown or json")

	root.AddCommand(
		newGraphCmd(st),
		newTimelineCmd(st),
		newJourneyCmd(st),
		newLineageCmd(st),
		newLocationCmd(st),
		newAskCmd(st),
		newExtractCmd(st),
		newAnalyzeCmd(st),
		newNovelsCmd(st),
		newServeCmd(st),
	)
	return root
}

func (st *cliState) init(cmd *cobra.Command) error {
	cfg, err := config.LoadFromPath(st.flags.configPath)
	if err != nil {
		return err
	}
	if st.flags.baseURL != "" {
		cfg.BaseURL = st.flags.baseURL
	}
	if st.flags.token != "" {
		cfg.Token = st.flags.token
	}
	if st.flags.logLevel != "" {
		cfg.Log.Level = st.flags.logLevel
	}
	if st.flags.logFormat != "" {
		cfg.Log.Format = st.flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	st.cfg = cfg

	if st.format, err = render.ParseFormat(st.flags.output); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr())

	st.client, err = gateway.New(cfg.BaseURL, cfg.Token,
		gateway.WithBasePath(cfg.BasePath),
		gateway.WithTimeout(cfg.Timeout.Std()),
		gateway.WithLogger(logging.New("gateway")),
	)
	if err != nil {
		return err
	}

	st.registry = prometheus.NewRegistry()
	st.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	st.store = analysis.NewStore(st.client,
		analysis.WithCachedKinds(cfg.CachedKinds()...),
		analysis.WithCoalescing(cfg.Cache.Coalesce),
		analysis.WithRegisterer(st.registry),
	)
	st.qa = qa.NewSession(st.client)
	return nil
}

// fail turns a fetch error into the message shown on the terminal. Usage
// errors keep their full text.
func fail(err error) error {
	if errors.Is(err, analysis.ErrInvalidQuery) || errors.Is(err, gateway.ErrMissingParam) || errors.Is(err, qa.ErrEmptyQuestion) || errors.Is(err, qa.ErrEmptyText) {
		return err
	}
	return errors.New(analysis.UserMessage(err))
}

// optionalID returns nil for an unset flag so the query uses the absent
// sentinel.
func optionalID(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return artifact.Int(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
