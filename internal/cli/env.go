package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"bootconda/internal/sandbox"
)

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the sandboxed environment conda runs with",
		Args:  cobra.NoArgs,
		RunE:  runEnv,
	}
}

func runEnv(cmd *cobra.Command, _ []string) error {
	client, err := openClient(cmd, true)
	if err != nil {
		return err
	}
	env := client.Environment()
	stripped := client.StrippedVariables()

	if outputJSON {
		return printJSON(cmd, map[string]any{
			"environment": env,
			"stripped":    stripped,
		})
	}
	out := cmd.OutOrStdout()
	for _, kv := range sandbox.Environ(env) {
		fmt.Fprintln(out, kv)
	}
	for _, name := range stripped {
		fmt.Fprintf(cmd.ErrOrStderr(), "# stripped %s\n", name)
	}
	return nil
}

func newPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show the prefix layout and installer URL",
		Args:  cobra.NoArgs,
		RunE:  runPaths,
	}
}

func runPaths(cmd *cobra.Command, _ []string) error {
	client, err := openClient(cmd, true)
	if err != nil {
		return err
	}
	layout := client.Layout()
	installed, err := layout.ManagerInstalled()
	if err != nil {
		return err
	}
	rec, hasRecord, err := client.InstallRecord()
	if err != nil {
		return err
	}

	if outputJSON {
		payload := map[string]any{
			"layout":        layout,
			"platform":      client.Profile().String(),
			"installer_url": client.InstallerURL(),
			"installed":     installed,
		}
		if hasRecord {
			payload["record"] = rec
		}
		return printJSON(cmd, payload)
	}

	rows := map[string]string{
		"prefix":      layout.Prefix,
		"bindir":      layout.BinDir,
		"libdir":      layout.LibDir,
		"scriptdir":   layout.ScriptDir,
		"pythondir":   layout.PythonDir,
		"manager":     layout.Manager,
		"config_file": layout.ConfigFile,
		"installer":   layout.Installer,
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-12s %s\n", "platform", client.Profile())
	for _, k := range keys {
		fmt.Fprintf(out, "%-12s %s\n", k, rows[k])
	}
	fmt.Fprintf(out, "%-12s %s\n", "url", client.InstallerURL())
	fmt.Fprintf(out, "%-12s %t\n", "installed", installed)
	if hasRecord {
		fmt.Fprintf(out, "%-12s %s\n", "installed_at", rec.InstalledAt)
		fmt.Fprintf(out, "%-12s %s\n", "sha256", rec.SHA256)
	}
	return nil
}
