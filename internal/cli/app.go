// Package cli is the docloc command line: a cobra command tree whose flags,
// configuration file and DOCLOC_ environment variables are merged by viper.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docloc/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const cmdName = "docloc"

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"src":        "src_dir",
	"dst":        "dst_dir",
	"www":        "www_dir",
	"locale":     "locales",
	"exclude":    "exclude",
	"replace":    "replace",
	"log-level":  "log_level",
	"log-format": "log_format",
	"report":     "report",
	"dir":        "serve_dir",
	"addr":       "addr",
}

// App holds the command tree and the configuration it resolved.
type App struct {
	rootCmd cobra.Command
	viper   *viper.Viper
	config  config.Config
	log     *slog.Logger
}

// New registers the commands and returns a new App.
func New() *App {
	a := App{viper: viper.New()}
	a.rootCmd = cobra.Command{
		Use:   fmt.Sprintf("%s COMMAND", cmdName),
		Short: "Build localized documentation and websites",
		Long: `docloc builds the per-locale help documentation of the application,
publishes it as a browsable website, and builds the translated project website.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Force a visit of the local flags so persistent flags for all parents are merged.
			cmd.LocalFlags()

			// command parsing has been successful. Returns to not print usage anymore.
			a.rootCmd.SilenceUsage = true

			return a.loadConfig(cmd)
		},
		// We display usage error ourselves
		SilenceErrors: true,
	}
	config.SetDefaults(a.viper)

	pf := a.rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "configuration file path (YAML)")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("replace", "ask", "existing destination files: overwrite, skip, abort or ask")
	pf.String("report", "", "write a YAML report of the run to this file")

	a.installDoc()
	a.installWWW()
	a.installSite()
	a.installScan()
	a.installServe()

	return &a
}

// loadConfig binds the flags of the running command, reads the configuration
// file and environment, and builds the logger.
func (a *App) loadConfig(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = a.viper.BindPFlag(key, f)
	})
	if bindErr != nil {
		return bindErr
	}

	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("internal error: no persistent config flag installed on cmd: %w", err)
	}
	if err := config.ReadFile(a.viper, file); err != nil {
		return err
	}

	cfg, err := config.Load(a.viper)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.config = cfg
	a.log = cfg.Logger(cmd.ErrOrStderr())
	if used := a.viper.ConfigFileUsed(); used != "" {
		a.log.Debug("using configuration file", "file", used)
	}
	return nil
}

// Run executes the command and associated process. It returns an error on syntax/usage error.
// Cancelling ctx stops a build between two files and shuts the preview server down.
func (a *App) Run(ctx context.Context) error {
	return a.rootCmd.ExecuteContext(ctx)
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.rootCmd.SilenceUsage
}

// RootCmd returns the root command.
func (a *App) RootCmd() *cobra.Command {
	return &a.rootCmd
}

// SetArgs changes the root command args. Shouldn't be in general necessary apart for tests.
func (a *App) SetArgs(args ...string) {
	a.rootCmd.SetArgs(args)
}

// Config returns the resolved configuration for test purposes.
func (a App) Config() config.Config {
	return a.config
}
