package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bootconda/internal/config"
	"bootconda/internal/logx"
	"bootconda/internal/paths"
)

var (
	configPath string
	prefixFlag string
	outputJSON bool
	verbosity  int

	settings  config.Config
	logCloser io.Closer
)

// Execute runs the root cobra command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "bootconda",
		Short:             "Manage a private, sandboxed conda installation",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadSettings,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/bootconda/config.yaml)")
	cmd.PersistentFlags().StringVar(&prefixFlag, "prefix", "", "Installation prefix (overrides config)")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v, -vv, -vvv)")

	cmd.AddCommand(newBootstrapCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newExistsCmd())
	cmd.AddCommand(newChannelsCmd())
	cmd.AddCommand(newEnvCmd())
	cmd.AddCommand(newPathsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// annotationIgnoreConfigErrors marks commands that must run even when the
// existing config file cannot be loaded.
const annotationIgnoreConfigErrors = "bootconda/ignore-config-errors"

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return paths.DefaultConfigPath()
}

// loadSettings reads configuration and configures logging before any
// subcommand runs.
func loadSettings(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		if cmd.Annotations[annotationIgnoreConfigErrors] == "" {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		cfg = config.Default()
	}
	if prefixFlag != "" {
		cfg.Prefix = prefixFlag
	}

	level := logx.LevelForVerbosity(verbosity)
	if verbosity == 0 && cfg.Log.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
			level = parsed
		}
	}
	closer, err := logx.Setup(level, cfg.Log.File)
	if err != nil {
		return err
	}
	if logCloser != nil {
		_ = logCloser.Close()
	}
	logCloser = closer

	settings = cfg
	return nil
}

// commandContext applies the configured command timeout, if any.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if d := settings.CommandTimeout.Std(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
