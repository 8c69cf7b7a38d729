package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bootconda/internal/installer"
	"bootconda/internal/tui"
)

var bootstrapForce bool

func newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Install Miniconda into the prefix if it is missing",
		Args:  cobra.NoArgs,
		RunE:  runBootstrap,
	}
	cmd.Flags().BoolVar(&bootstrapForce, "force", false, "Reinstall even if conda is already present")
	return cmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	client, err := openClient(cmd, false)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var status *tui.StatusWriter
	if showSpinner(cmd) {
		status = tui.NewStatusWriter(cmd.ErrOrStderr(), "Installing Miniconda into "+client.Layout().Prefix)
	}
	res, err := client.Bootstrap(ctx, bootstrapForce)
	if status != nil {
		status.Stop("")
	}
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(cmd, res)
	}
	printBootstrapResult(cmd, res)
	return nil
}

func printBootstrapResult(cmd *cobra.Command, res installer.Result) {
	out := cmd.OutOrStdout()
	if !res.Installed {
		fmt.Fprintf(out, "conda already installed at %s\n", res.Manager)
		return
	}
	fmt.Fprintf(out, "%s conda installed at %s (%s)\n", tui.SuccessStyle.Render("✓"), res.Manager, res.Duration.Round(100*time.Millisecond))
	fmt.Fprintf(out, "  from %s\n", res.URL)
}
