// Package installer bootstraps a private Miniconda installation into a prefix.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"bootconda/internal/logx"
	"bootconda/internal/paths"
	"bootconda/internal/platform"
	"bootconda/internal/runner"
)

// PostInstallFunc runs once after a fresh install, before Ensure returns.
type PostInstallFunc func(ctx context.Context) error

// Result describes what Ensure did.
type Result struct {
	Installed bool          `json:"installed"`
	Manager   string        `json:"manager"`
	URL       string        `json:"url,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

type Installer struct {
	layout      paths.Layout
	profile     platform.Profile
	runner      runner.Runner
	fetcher     Fetcher
	baseURL     string
	checksum    string
	environ     func() []string
	postInstall PostInstallFunc
	output      io.Writer
	lockRetry   time.Duration
	log         zerolog.Logger

	group   singleflight.Group
	mu      sync.Mutex
	flights map[string]*flight
}

type Option func(*Installer)

func WithRunner(r runner.Runner) Option { return func(i *Installer) { i.runner = r } }

func WithFetcher(f Fetcher) Option { return func(i *Installer) { i.fetcher = f } }

func WithBaseURL(u string) Option { return func(i *Installer) { i.baseURL = u } }

// WithChecksum enables SHA-256 verification of the downloaded installer.
func WithChecksum(hexDigest string) Option {
	return func(i *Installer) { i.checksum = strings.TrimSpace(hexDigest) }
}

// WithEnviron sets the environment source for the installer process.
func WithEnviron(fn func() []string) Option { return func(i *Installer) { i.environ = fn } }

func WithPostInstall(fn PostInstallFunc) Option { return func(i *Installer) { i.postInstall = fn } }

// WithOutput tees installer output to w while it runs.
func WithOutput(w io.Writer) Option { return func(i *Installer) { i.output = w } }

func WithLockRetry(d time.Duration) Option { return func(i *Installer) { i.lockRetry = d } }

func New(layout paths.Layout, profile platform.Profile, opts ...Option) *Installer {
	i := &Installer{
		layout:    layout,
		profile:   profile,
		runner:    runner.CmdRunner{},
		fetcher:   HTTPFetcher{},
		baseURL:   DefaultBaseURL,
		lockRetry: defaultLockRetry,
		log:       logx.Component("installer"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// URL returns the installer URL for this prefix's platform.
func (i *Installer) URL() string {
	return InstallerURL(i.baseURL, i.profile)
}

// Ensure installs the package manager unless it is already present. With
// force it reinstalls regardless. Concurrent callers share one bootstrap,
// but each waits under its own ctx; the shared work is cancelled only once
// every waiting caller has given up.
func (i *Installer) Ensure(ctx context.Context, force bool) (Result, error) {
	if !force {
		ok, err := i.layout.ManagerInstalled()
		if err != nil {
			return Result{}, fmt.Errorf("check manager: %w", err)
		}
		if ok {
			return Result{Manager: i.layout.Manager}, nil
		}
	}

	key := "ensure"
	if force {
		key = "force"
	}
	for {
		res, err := i.await(ctx, key, force)
		// A flight abandoned by all its earlier waiters fails with
		// context.Canceled; a caller that is still live starts a new one.
		if err != nil && errors.Is(err, context.Canceled) && ctx.Err() == nil {
			continue
		}
		return res, err
	}
}

func (i *Installer) await(ctx context.Context, key string, force bool) (Result, error) {
	f := i.join(ctx, key)
	defer i.leave(key, f)

	ch := i.group.DoChan(key, func() (any, error) {
		return i.bootstrap(f.ctx, force)
	})
	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("wait for bootstrap: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		return r.Val.(Result), nil
	}
}

// flight is the context a shared bootstrap runs under.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (i *Installer) join(ctx context.Context, key string) *flight {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.flights == nil {
		i.flights = make(map[string]*flight)
	}
	f, ok := i.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		i.flights[key] = f
	} else {
		i.log.Debug().Str("prefix", i.layout.Prefix).Msg("joined in-flight bootstrap")
	}
	f.waiters++
	return f
}

func (i *Installer) leave(key string, f *flight) {
	i.mu.Lock()
	defer i.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if i.flights[key] == f {
		delete(i.flights, key)
	}
}

func (i *Installer) bootstrap(ctx context.Context, force bool) (Result, error) {
	done := logx.LogOperationStart(i.log, "bootstrap")
	defer done()
	start := time.Now()

	if err := i.layout.EnsurePrefix(); err != nil {
		return Result{}, err
	}

	unlock, err := i.acquireLock(ctx)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	if !force {
		ok, err := i.layout.ManagerInstalled()
		if err != nil {
			return Result{}, fmt.Errorf("check manager: %w", err)
		}
		if ok {
			i.log.Info().Str("manager", i.layout.Manager).Msg("installed by another process")
			return Result{Manager: i.layout.Manager}, nil
		}
	}

	url := i.URL()
	i.log.Info().Str("url", url).Str("path", i.layout.Installer).Msg("downloading installer")
	sum, err := download(ctx, i.fetcher, url, i.layout.Installer, i.checksum)
	if err != nil {
		return Result{}, &DownloadError{URL: url, Path: i.layout.Installer, Err: err}
	}

	if !i.profile.Windows {
		if err := os.Chmod(i.layout.Installer, 0o755); err != nil {
			return Result{}, fmt.Errorf("chmod installer: %w", err)
		}
	}

	if err := i.runInstaller(ctx); err != nil {
		return Result{}, err
	}

	if i.postInstall != nil {
		if err := i.postInstall(ctx); err != nil {
			return Result{}, fmt.Errorf("post-install: %w", err)
		}
	}

	res := Result{
		Installed: true,
		Manager:   i.layout.Manager,
		URL:       url,
		Duration:  time.Since(start),
	}
	rec := Record{
		URL:         url,
		SHA256:      sum,
		Platform:    i.profile.String(),
		InstalledAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := saveRecord(i.layout.Prefix, rec); err != nil {
		i.log.Warn().Err(err).Msg("could not write install record")
	}
	i.log.Info().Str("prefix", i.layout.Prefix).Dur("duration", res.Duration).Msg("package manager installed")
	return res, nil
}

func (i *Installer) runInstaller(ctx context.Context) error {
	args := Args(i.profile, i.layout.Prefix)
	line := runner.CommandLine(i.layout.Installer, args)
	i.log.Info().Str("command", line).Msg("running installer")

	opts := runner.Options{Dir: i.layout.Prefix, Stdout: i.output, Stderr: i.output}
	if i.environ != nil {
		opts.Env = i.environ()
	}

	res, err := i.runner.Run(ctx, i.layout.Installer, args, opts)
	if err != nil {
		return &ExecutionError{Command: line, ExitCode: -1, Err: err}
	}
	if res.ExitCode != 0 {
		return &ExecutionError{
			Command:  line,
			ExitCode: res.ExitCode,
			Output:   strings.TrimSpace(tail(res.Combined(), outputTailLimit)),
		}
	}
	return nil
}

// Args returns the silent-install arguments for the platform's installer.
func Args(p platform.Profile, prefix string) []string {
	if p.Windows {
		return []string{"/S", "/AddToPath=0", "/RegisterPython=0", "/D=" + strings.ReplaceAll(prefix, "/", `\`)}
	}
	return []string{"-b", "-f", "-p", prefix}
}
