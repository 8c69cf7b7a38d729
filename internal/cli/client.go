package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bootconda/internal/conda"
	"bootconda/internal/config"
	"bootconda/internal/tui"
)

// newClient builds the conda client; tests swap it for one backed by a fake
// runner.
var newClient = func(cfg config.Config, opts ...conda.Option) (*conda.Client, error) {
	return conda.New(cfg, opts...)
}

// openClient validates settings and builds a client whose conda output goes
// to the command's stderr, as conda's own progress chatter should never mix
// with results on stdout.
func openClient(cmd *cobra.Command, quiet bool) (*conda.Client, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	var opts []conda.Option
	if !quiet {
		opts = append(opts, conda.WithOutput(cmd.ErrOrStderr(), cmd.ErrOrStderr()))
	}
	if quiet || showSpinner(cmd) {
		opts = append(opts, conda.WithInstallerOutput(io.Discard))
	}
	return newClient(settings, opts...)
}

func showSpinner(cmd *cobra.Command) bool {
	return !outputJSON && tui.IsTerminal(cmd.ErrOrStderr())
}

// ensureInstalled bootstraps conda ahead of the real work so an interactive
// user sees a spinner instead of a silent pause.
func ensureInstalled(ctx context.Context, cmd *cobra.Command, client *conda.Client) error {
	installed, err := client.Layout().ManagerInstalled()
	if err != nil || installed {
		return err
	}
	if !showSpinner(cmd) {
		_, err := client.Bootstrap(ctx, false)
		return err
	}

	status := tui.NewStatusWriter(cmd.ErrOrStderr(), "Installing Miniconda into "+client.Layout().Prefix)
	_, err = client.Bootstrap(ctx, false)
	if err != nil {
		status.Stop("")
		return err
	}
	status.Stop(tui.SuccessStyle.Render("✓") + " Miniconda installed")
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
