package cli

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"bootconda/internal/tui"
)

var updateNoProgress bool

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update every installed package",
		Args:  cobra.NoArgs,
		RunE:  runUpdate,
	}
	cmd.Flags().BoolVar(&updateNoProgress, "no-progress", false, "Disable the interactive progress table")
	return cmd
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	mode := tui.DetectMode(cmd.OutOrStdout(), updateNoProgress, outputJSON)

	client, err := openClient(cmd, mode != tui.ModePlain)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := ensureInstalled(ctx, cmd, client); err != nil {
		return err
	}

	switch mode {
	case tui.ModeTUI:
		model := tui.NewProgressModel("Updating packages in "+client.Layout().Prefix, tui.UpdateColumns)
		return tui.RunWithWork(ctx, cmd.OutOrStdout(), model, func(ctx context.Context, send func(tea.Msg)) error {
			return client.Update(ctx, tui.NewUpdateReporter(send))
		})
	case tui.ModeJSON:
		collector := &updateCollector{}
		updErr := client.Update(ctx, collector)
		if err := printJSON(cmd, collector.results); err != nil {
			return err
		}
		return updErr
	default:
		return client.Update(ctx, tui.NewLineReporter(cmd.OutOrStdout()))
	}
}

// updateCollector records per-package outcomes for JSON output.
type updateCollector struct {
	mu      sync.Mutex
	results []packageResult
}

func (c *updateCollector) Plan([]string) {}

func (c *updateCollector) Start(string) {}

func (c *updateCollector) Complete(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := packageResult{Package: name, OK: err == nil}
	if err != nil {
		res.Error = err.Error()
	}
	c.results = append(c.results, res)
}
