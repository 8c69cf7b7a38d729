package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChannelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List or edit the channels conda searches",
		Args:  cobra.NoArgs,
		RunE:  runChannelsList,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add CHANNEL",
		Short: "Add a channel at the highest priority",
		Args:  cobra.ExactArgs(1),
		RunE:  runChannelsAdd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "remove CHANNEL",
		Aliases: []string{"rm"},
		Short:   "Remove a channel",
		Args:    cobra.ExactArgs(1),
		RunE:    runChannelsRemove,
	})
	return cmd
}

func runChannelsList(cmd *cobra.Command, _ []string) error {
	client, err := openClient(cmd, true)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := ensureInstalled(ctx, cmd, client); err != nil {
		return err
	}

	channels, err := client.Channels(ctx)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, channels)
	}
	if len(channels) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no channels configured)")
		return nil
	}
	for _, ch := range channels {
		fmt.Fprintln(cmd.OutOrStdout(), ch)
	}
	return nil
}

func runChannelsAdd(cmd *cobra.Command, args []string) error {
	client, err := openClient(cmd, true)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := ensureInstalled(ctx, cmd, client); err != nil {
		return err
	}
	if err := client.AddChannel(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added channel %s\n", args[0])
	return nil
}

func runChannelsRemove(cmd *cobra.Command, args []string) error {
	client, err := openClient(cmd, true)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := ensureInstalled(ctx, cmd, client); err != nil {
		return err
	}
	if err := client.RemoveChannel(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed channel %s\n", args[0])
	return nil
}
