// Package conda drives a private conda installation: it bootstraps the
// package manager on first use and runs every command inside a sandboxed
// environment that ignores the user's own conda configuration.
package conda

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"bootconda/internal/config"
	"bootconda/internal/installer"
	"bootconda/internal/logx"
	"bootconda/internal/paths"
	"bootconda/internal/platform"
	"bootconda/internal/runner"
	"bootconda/internal/sandbox"
)

type Client struct {
	cfg       config.Config
	profile   platform.Profile
	layout    paths.Layout
	runner    runner.Runner
	installer *installer.Installer
	environ   func() []string
	stdout    io.Writer
	stderr    io.Writer
	log       zerolog.Logger
}

type clientOptions struct {
	runner  runner.Runner
	fetcher installer.Fetcher
	environ func() []string
	profile *platform.Profile
	stdout  io.Writer
	stderr  io.Writer
	instOut io.Writer
}

type Option func(*clientOptions)

// WithRunner replaces the subprocess runner, mainly for tests.
func WithRunner(r runner.Runner) Option { return func(o *clientOptions) { o.runner = r } }

func WithFetcher(f installer.Fetcher) Option { return func(o *clientOptions) { o.fetcher = f } }

// WithEnviron sets the source of the ambient environment the sandbox is built
// from. Defaults to os.Environ.
func WithEnviron(fn func() []string) Option { return func(o *clientOptions) { o.environ = fn } }

// WithProfile overrides host platform detection.
func WithProfile(p platform.Profile) Option { return func(o *clientOptions) { o.profile = &p } }

// WithOutput tees the live output of mutating commands, and of the
// installer unless WithInstallerOutput says otherwise.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *clientOptions) { o.stdout, o.stderr = stdout, stderr }
}

// WithInstallerOutput redirects installer output; io.Discard silences it.
func WithInstallerOutput(w io.Writer) Option { return func(o *clientOptions) { o.instOut = w } }

// New resolves the platform and prefix layout. It does not touch the disk;
// the package manager is installed lazily by the first operation.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	o := clientOptions{
		runner:  runner.CmdRunner{},
		fetcher: installer.HTTPFetcher{},
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.instOut == nil {
		o.instOut = o.stderr
	}

	var profile platform.Profile
	if o.profile != nil {
		profile = *o.profile
	} else {
		p, err := platform.Host()
		if err != nil {
			return nil, err
		}
		profile = p
	}

	prefix, err := paths.AbsPrefix(cfg.Prefix)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		profile: profile,
		layout:  paths.Resolve(prefix, profile, cfg.Sandbox.ConfigFile),
		runner:  o.runner,
		environ: o.environ,
		stdout:  o.stdout,
		stderr:  o.stderr,
		log:     logx.Component("conda"),
	}
	c.installer = installer.New(c.layout, profile,
		installer.WithRunner(o.runner),
		installer.WithFetcher(o.fetcher),
		installer.WithBaseURL(cfg.Installer.BaseURL),
		installer.WithChecksum(cfg.Installer.SHA256),
		installer.WithEnviron(c.environList),
		installer.WithOutput(o.instOut),
		installer.WithPostInstall(c.registerDefaultChannels),
	)
	return c, nil
}

func (c *Client) Layout() paths.Layout { return c.layout }

func (c *Client) Profile() platform.Profile { return c.profile }

// InstallerURL is the URL a bootstrap would download from.
func (c *Client) InstallerURL() string { return c.installer.URL() }

// InstallRecord reports which installer produced the prefix, if any.
func (c *Client) InstallRecord() (installer.Record, bool, error) {
	return installer.ReadRecord(c.layout.Prefix)
}

// Environment returns the sandboxed environment conda runs with. It is
// rebuilt from the ambient environment on every call.
func (c *Client) Environment() map[string]string {
	return sandbox.Build(sandbox.FromEnviron(c.environ()), c.cfg.SandboxOptions(c.layout.ConfigFile))
}

// StrippedVariables lists ambient variables the sandbox hides from conda.
func (c *Client) StrippedVariables() []string {
	return sandbox.Removed(sandbox.FromEnviron(c.environ()), c.cfg.SandboxOptions(c.layout.ConfigFile))
}

func (c *Client) environList() []string {
	return sandbox.Environ(c.Environment())
}

// Bootstrap installs the package manager, or reinstalls it with force.
func (c *Client) Bootstrap(ctx context.Context, force bool) (installer.Result, error) {
	return c.installer.Ensure(ctx, force)
}

func (c *Client) ensure(ctx context.Context) error {
	if _, err := c.installer.Ensure(ctx, false); err != nil {
		return fmt.Errorf("bootstrap conda: %w", err)
	}
	return nil
}

// run invokes conda with the sandboxed environment. It does not bootstrap.
func (c *Client) run(ctx context.Context, opts runner.Options, args ...string) (runner.Result, error) {
	opts.Env = c.environList()
	return c.runner.Run(ctx, c.layout.Manager, args, opts)
}

func (c *Client) failed(args []string, res runner.Result) error {
	return &CommandFailedError{
		Command:  runner.CommandLine(c.layout.Manager, args),
		ExitCode: res.ExitCode,
		Output:   tail(res.Combined(), outputTailLimit),
	}
}

// exec bootstraps, then runs a mutating command with live output.
func (c *Client) exec(ctx context.Context, args ...string) error {
	if err := c.ensure(ctx); err != nil {
		return err
	}
	res, err := c.run(ctx, runner.Options{Stdout: c.stdout, Stderr: c.stderr}, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return c.failed(args, res)
	}
	return nil
}

// query bootstraps, then runs a read-only command and returns its stdout.
// On a non-zero exit the stdout is still returned alongside the error since
// conda prints its JSON error document there.
func (c *Client) query(ctx context.Context, args ...string) ([]byte, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	res, err := c.run(ctx, runner.Options{}, args...)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return res.Stdout, c.failed(args, res)
	}
	return res.Stdout, nil
}

// registerDefaultChannels runs once after a fresh install. It calls run
// directly because Ensure is still in flight.
func (c *Client) registerDefaultChannels(ctx context.Context) error {
	channels := c.cfg.Channels.Default
	// --add prepends, so walk backwards to keep the configured order.
	for i := len(channels) - 1; i >= 0; i-- {
		args := []string{"config", "--add", "channels", channels[i], "--force"}
		res, err := c.run(ctx, runner.Options{}, args...)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return c.failed(args, res)
		}
		c.log.Info().Str("channel", channels[i]).Msg("registered default channel")
	}
	return nil
}
