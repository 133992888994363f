// Package cli implements the meili command-line tool on top of the client
// library.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/meili"
	"github.com/kailas-cloud/meili/internal/config"
	"github.com/kailas-cloud/meili/internal/logger"
	"github.com/kailas-cloud/meili/internal/version"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	host       string
	apiKey     string
	jsonOut    bool
	verbose    bool

	cfg    config.Config
	client *meili.Client
	log    *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "meili",
		Short: "Command-line client for a Meili search server",
		Long: `meili talks to a Meili search server over its HTTP API.

The server is located by --host, $MEILI_HOST or the config file
($MEILI_CONFIG or <user config dir>/meili/config.yaml), in that order.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to the config file")
	pf.StringVar(&a.host, "host", "", "server URL, e.g. http://127.0.0.1:7700")
	pf.StringVar(&a.apiKey, "api-key", "", "API key sent in "+meili.APIKeyHeader)
	pf.BoolVar(&a.jsonOut, "json", false, "print raw JSON")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log every request to stderr")

	root.AddCommand(
		a.indexesCmd(),
		a.documentsCmd(),
		a.searchCmd(),
		a.settingsCmd(),
		a.updatesCmd(),
		a.healthCmd(),
		a.statsCmd(),
		a.keysCmd(),
		a.versionCmd(),
		a.sysInfoCmd(),
	)
	return root
}

// setup resolves the configuration and connects the client.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = a.host
	}
	if flags.Changed("api-key") {
		cfg.Server.APIKey = a.apiKey
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logger.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		return err
	}

	opts := []meili.Option{meili.WithUserAgent("meili-cli/" + version.Version)}
	if t := cfg.Timeout(); t > 0 {
		opts = append(opts, meili.WithTimeout(t))
	}
	if a.verbose {
		h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, meili.WithLogger(slog.New(h)))
	}

	a.client, err = meili.New(cfg.Client(), opts...)
	if err != nil {
		return err
	}
	a.log.Debug("client ready", zap.String("host", cfg.Server.Host))
	return nil
}

// print writes v as indented JSON under --json, else calls text.
func (a *app) print(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	if a.jsonOut || text == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return nil
	}
	return text(w)
}

// Describe turns a command error into a one-line message for the terminal.
func Describe(err error) string {
	var remote *meili.RemoteError
	switch {
	case errors.Is(err, meili.ErrCanceled):
		return "canceled: " + err.Error()
	case errors.As(err, &remote) && remote.Message != "":
		return fmt.Sprintf("server error (%d %s): %s", remote.StatusCode, remote.ErrorCode, remote.Message)
	default:
		return err.Error()
	}
}
