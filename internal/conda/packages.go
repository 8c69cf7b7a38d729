package conda

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"bootconda/internal/catalog"
	"bootconda/internal/logx"
	"bootconda/internal/runner"
)

// Add installs pkg, which may carry a version constraint such as "numpy>=1.20".
func (c *Client) Add(ctx context.Context, pkg string) error {
	if err := requireArg("package", pkg); err != nil {
		return err
	}
	defer logx.LogOperationStart(c.log, "add "+pkg)()
	return c.exec(ctx, "install", "-y", pkg)
}

func (c *Client) Remove(ctx context.Context, pkg string) error {
	if err := requireArg("package", pkg); err != nil {
		return err
	}
	defer logx.LogOperationStart(c.log, "remove "+pkg)()
	return c.exec(ctx, "remove", "-y", pkg)
}

// InstalledDict returns the installed packages keyed by name.
func (c *Client) InstalledDict(ctx context.Context) (map[string]catalog.Record, error) {
	out, err := c.query(ctx, "list", "--export")
	if err != nil {
		return nil, err
	}
	records, err := catalog.ParseExport(string(out))
	if err != nil {
		return nil, fmt.Errorf("parse installed packages: %w", err)
	}
	return records, nil
}

// Installed returns the sorted names of installed packages.
func (c *Client) Installed(ctx context.Context) ([]string, error) {
	records, err := c.InstalledDict(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Names(records), nil
}

// List streams conda's human-readable package listing to w.
func (c *Client) List(ctx context.Context, w io.Writer) error {
	if err := c.ensure(ctx); err != nil {
		return err
	}
	args := []string{"list"}
	res, err := c.run(ctx, runner.Options{Stdout: w, Stderr: c.stderr}, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return c.failed(args, res)
	}
	return nil
}

// Version returns the installed entry whose fullname starts with name or is
// channel-qualified as "::name".
func (c *Client) Version(ctx context.Context, name string) (catalog.ListEntry, error) {
	if err := requireArg("package", name); err != nil {
		return catalog.ListEntry{}, err
	}
	out, err := c.query(ctx, "list", "--json")
	if err != nil {
		return catalog.ListEntry{}, err
	}
	entries, err := catalog.ParseList(out)
	if err != nil {
		return catalog.ListEntry{}, fmt.Errorf("parse package list: %w", err)
	}
	entry, ok := catalog.FindInList(entries, name)
	if !ok {
		return catalog.ListEntry{}, &PackageNotFoundError{Name: name}
	}
	return entry, nil
}

// SearchResult returns every build conda knows for pkg. A search that
// matches nothing yields an empty result rather than an error.
func (c *Client) SearchResult(ctx context.Context, pkg string) (catalog.SearchResult, error) {
	if err := requireArg("package", pkg); err != nil {
		return nil, err
	}
	out, qerr := c.query(ctx, "search", pkg, "--json")
	if qerr != nil && !errors.Is(qerr, ErrCommandFailed) {
		return nil, qerr
	}

	result, err := catalog.ParseSearch(out)
	var me *catalog.ManagerError
	if errors.As(err, &me) && me.PackagesNotFound() {
		c.log.Debug().Str("package", pkg).Msg("no packages match")
		return catalog.SearchResult{}, nil
	}
	if qerr != nil {
		return nil, qerr
	}
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	return result, nil
}

// Search returns the sorted names of matching packages, restricted to those
// offering exactly version when version is non-empty.
func (c *Client) Search(ctx context.Context, pkg, version string) ([]string, error) {
	result, err := c.SearchResult(ctx, pkg)
	if err != nil {
		return nil, err
	}
	return result.Names(version), nil
}

// Exists accepts "name" or "name==version".
func (c *Client) Exists(ctx context.Context, spec string) (bool, error) {
	name, version, _ := strings.Cut(strings.TrimSpace(spec), "==")
	names, err := c.Search(ctx, name, version)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

func requireArg(what, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s name must not be empty", what)
	}
	return nil
}
