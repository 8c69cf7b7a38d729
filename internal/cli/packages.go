package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bootconda/internal/catalog"
	"bootconda/internal/conda"
)

var searchVersion string

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add PACKAGE...",
		Short: "Install packages into the prefix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(cmd, args, (*conda.Client).Add, "installed")
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove PACKAGE...",
		Aliases: []string{"rm"},
		Short:   "Uninstall packages from the prefix",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(cmd, args, (*conda.Client).Remove, "removed")
		},
	}
}

type packageResult struct {
	Package string `json:"package"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// runEach applies op to every argument, continuing past failures.
func runEach(cmd *cobra.Command, args []string, op func(*conda.Client, context.Context, string) error, verb string) error {
	client, err := openClient(cmd, outputJSON)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := ensureInstalled(ctx, cmd, client); err != nil {
		return err
	}

	var (
		results []packageResult
		errs    []error
	)
	for _, pkg := range args {
		res := packageResult{Package: pkg, OK: true}
		if err := op(client, ctx, pkg); err != nil {
			res.OK = false
			res.Error = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", pkg, err))
		} else if !outputJSON {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, pkg)
		}
		results = append(results, res)
	}

	if outputJSON {
		if err := printJSON(cmd, results); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := openClient(cmd, outputJSON)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := ensureInstalled(ctx, cmd, client); err != nil {
		return err
	}

	if !outputJSON {
		return client.List(ctx, cmd.OutOrStdout())
	}
	records, err := client.InstalledDict(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd, catalog.SortedRecords(records))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version NAME",
		Short: "Show the installed build of a package",
		Args:  cobra.ExactArgs(1),
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	client, err := openClient(cmd, true)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := ensureInstalled(ctx, cmd, client); err != nil {
		return err
	}

	entry, err := client.Version(ctx, args[0])
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, entry)
	}
	fmt.Fprintln(cmd.OutOrStdout(), entry.Raw)
	return nil
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search PACKAGE",
		Short: "Search the configured channels",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	cmd.Flags().StringVar(&searchVersion, "version", "", "Only list packages offering exactly this version")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, err := openClient(cmd, true)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := ensureInstalled(ctx, cmd, client); err != nil {
		return err
	}

	result, err := client.SearchResult(ctx, args[0])
	if err != nil {
		return err
	}
	names := result.Names(searchVersion)

	if outputJSON {
		filtered := catalog.SearchResult{}
		for _, name := range names {
			filtered[name] = result[name]
		}
		return printJSON(cmd, filtered)
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "(no matching packages)")
		return nil
	}
	for _, name := range names {
		latest, _ := result.Latest(name)
		if latest.Prerelease() != "" {
			fmt.Fprintf(out, "%-30s latest %s (pre-release)\n", name, latest)
			continue
		}
		fmt.Fprintf(out, "%-30s latest %s\n", name, latest)
	}
	return nil
}

func newExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists NAME[==VERSION]",
		Short: "Check whether a package (optionally a version) is available",
		Args:  cobra.ExactArgs(1),
		RunE:  runExists,
	}
}

func runExists(cmd *cobra.Command, args []string) error {
	client, err := openClient(cmd, true)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := ensureInstalled(ctx, cmd, client); err != nil {
		return err
	}

	ok, err := client.Exists(ctx, args[0])
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, map[string]any{"spec": args[0], "exists": ok})
	}
	if ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is available\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is not available\n", args[0])
	}
	return nil
}
