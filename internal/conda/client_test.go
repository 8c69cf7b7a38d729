package conda

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootconda/internal/config"
	"bootconda/internal/installer"
	"bootconda/internal/paths"
	"bootconda/internal/platform"
)

var linux = platform.Profile{OS: platform.OSLinux, Arch: platform.ArchX86_64}

var ambient = []string{
	"HOME=/home/me",
	"PATH=/usr/bin",
	"CONDA_PREFIX=/home/me/miniconda3",
	"CONDA_DEFAULT_ENV=base",
	"CONDARC=/home/me/.condarc",
}

func newTestClient(t *testing.T, mutate func(*config.Config)) (*Client, *fakeConda) {
	t.Helper()
	cfg := config.Default()
	cfg.Prefix = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}

	backend := newFakeConda(paths.Resolve(cfg.Prefix, linux, cfg.Sandbox.ConfigFile))
	client, err := New(cfg,
		WithProfile(linux),
		WithFetcher(stubFetcher{}),
		WithEnviron(func() []string { return ambient }),
		WithRunner(backend),
	)
	require.NoError(t, err)
	require.Equal(t, backend.layout, client.Layout())
	return client, backend
}

func TestNewResolvesLayout(t *testing.T) {
	client, _ := newTestClient(t, nil)
	layout := client.Layout()
	assert.Equal(t, filepath.Join(layout.Prefix, "bin", "conda"), layout.Manager)
	assert.Equal(t, filepath.Join(layout.Prefix, "condarc-bootconda"), layout.ConfigFile)
	assert.Equal(t, "https://repo.anaconda.com/miniconda/Miniconda3-latest-Linux-x86_64.sh", client.InstallerURL())
}

func TestFirstOperationBootstrapsAndRegistersDefaultChannel(t *testing.T) {
	client, backend := newTestClient(t, nil)

	channels, err := client.Channels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"defaults"}, channels)

	_, err = client.Installed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, backend.installs)
}

func TestDefaultChannelsKeepConfiguredOrder(t *testing.T) {
	client, _ := newTestClient(t, func(cfg *config.Config) {
		cfg.Channels.Default = []string{"conda-forge", "defaults"}
	})

	channels, err := client.Channels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"conda-forge", "defaults"}, channels)
}

func TestBootstrapFailureSurfaces(t *testing.T) {
	cfg := config.Default()
	cfg.Prefix = t.TempDir()
	backend := newFakeConda(paths.Resolve(cfg.Prefix, linux, cfg.Sandbox.ConfigFile))
	client, err := New(cfg,
		WithProfile(linux),
		WithFetcher(stubFetcher{err: errors.New("no route to host")}),
		WithRunner(backend),
	)
	require.NoError(t, err)

	err = client.Add(context.Background(), "numpy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, installer.ErrInstallerDownload))
	assert.Empty(t, backend.calls)
}

func TestCommandsRunSandboxed(t *testing.T) {
	client, backend := newTestClient(t, nil)
	require.NoError(t, client.Add(context.Background(), "numpy"))

	require.NotEmpty(t, backend.envs)
	for _, env := range backend.envs {
		var conda []string
		for _, kv := range env {
			if strings.HasPrefix(kv, "CONDA") {
				conda = append(conda, kv)
			}
		}
		assert.Equal(t, []string{"CONDARC=" + client.Layout().ConfigFile}, conda)
		assert.Contains(t, env, "HOME=/home/me")
	}

	env := client.Environment()
	assert.Equal(t, client.Layout().ConfigFile, env["CONDARC"])
	assert.NotContains(t, env, "CONDA_PREFIX")
	assert.Equal(t, []string{"CONDARC", "CONDA_DEFAULT_ENV", "CONDA_PREFIX"}, client.StrippedVariables())
}

func TestAddRemove(t *testing.T) {
	client, backend := newTestClient(t, nil)
	ctx := context.Background()

	require.NoError(t, client.Add(ctx, "numpy>=1.19"))
	assert.Equal(t, []string{"install", "-y", "numpy>=1.19"}, backend.lastCall())

	names, err := client.Installed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"numpy", "pip", "python"}, names)

	require.NoError(t, client.Remove(ctx, "numpy"))
	assert.Equal(t, []string{"remove", "-y", "numpy"}, backend.lastCall())

	err = client.Remove(ctx, "numpy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandFailed))
	var failed *CommandFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 1, failed.ExitCode)
	assert.Contains(t, failed.Output, "PackagesNotFoundError")

	require.Error(t, client.Add(ctx, "  "))
}

func TestInstalledDict(t *testing.T) {
	client, _ := newTestClient(t, nil)

	records, err := client.InstalledDict(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "3.8.5", records["python"].Version.String())
	assert.Equal(t, "python=3.8.5=py_0", records["python"].Raw)
}

func TestList(t *testing.T) {
	client, backend := newTestClient(t, nil)

	var buf bytes.Buffer
	require.NoError(t, client.List(context.Background(), &buf))
	assert.Equal(t, []string{"list"}, backend.lastCall())
	assert.Contains(t, buf.String(), "python")
}

func TestVersion(t *testing.T) {
	client, _ := newTestClient(t, nil)
	ctx := context.Background()

	entry, err := client.Version(ctx, "python")
	require.NoError(t, err)
	assert.Equal(t, "defaults::python-3.8.5-py_0", entry.Raw)
	assert.Equal(t, "3.8.5", entry.Version)

	_, err = client.Version(ctx, "tensorflow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPackageNotFound))
}

func TestSearch(t *testing.T) {
	client, backend := newTestClient(t, nil)
	ctx := context.Background()

	names, err := client.Search(ctx, "numpy", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"numpy", "numpy-base"}, names)
	assert.Equal(t, []string{"search", "numpy", "--json"}, backend.lastCall())

	names, err = client.Search(ctx, "numpy", "1.20.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"numpy"}, names)

	names, err = client.Search(ctx, "nosuchpkg", "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestExists(t *testing.T) {
	client, _ := newTestClient(t, nil)
	ctx := context.Background()

	tests := map[string]bool{
		"numpy":         true,
		"numpy==1.20.0": true,
		"numpy==9.9":    false,
		"numpy-base":    true,
		"nosuchpkg":     false,
	}
	for spec, want := range tests {
		got, err := client.Exists(ctx, spec)
		require.NoError(t, err, spec)
		assert.Equal(t, want, got, spec)

		name, version, _ := strings.Cut(spec, "==")
		names, err := client.Search(ctx, name, version)
		require.NoError(t, err)
		assert.Equal(t, want, contains(names, name), spec)
	}
}

func TestChannelRoundTrip(t *testing.T) {
	client, backend := newTestClient(t, nil)
	ctx := context.Background()

	require.NoError(t, client.AddChannel(ctx, "conda-forge"))
	assert.Equal(t, []string{"config", "--add", "channels", "conda-forge", "--force"}, backend.lastCall())

	channels, err := client.Channels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"conda-forge", "defaults"}, channels)

	require.NoError(t, client.RemoveChannel(ctx, "conda-forge"))
	channels, err = client.Channels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"defaults"}, channels)

	require.NoError(t, client.RemoveChannel(ctx, "defaults"))
	channels, err = client.Channels(ctx)
	require.NoError(t, err)
	assert.Empty(t, channels)

	err = client.RemoveChannel(ctx, "defaults")
	assert.True(t, errors.Is(err, ErrCommandFailed))
}

type recordingReporter struct {
	planned []string
	events  []string
}

func (r *recordingReporter) Plan(names []string) { r.planned = names }
func (r *recordingReporter) Start(name string)   { r.events = append(r.events, "start "+name) }
func (r *recordingReporter) Complete(name string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	r.events = append(r.events, status+" "+name)
}

func TestUpdateContinuesPastFailures(t *testing.T) {
	client, backend := newTestClient(t, nil)
	backend.failUpdate["pip"] = true
	reporter := &recordingReporter{}

	err := client.Update(context.Background(), reporter)
	require.Error(t, err)

	var updErr *UpdateError
	require.True(t, errors.As(err, &updErr))
	require.Len(t, updErr.Failures, 1)
	assert.Equal(t, "pip", updErr.Failures[0].Name)
	assert.True(t, errors.Is(err, ErrCommandFailed))

	assert.Equal(t, []string{"pip", "python"}, reporter.planned)
	assert.Equal(t, []string{"start pip", "failed pip", "start python", "ok python"}, reporter.events)
	assert.Equal(t, []string{"update", "-y", "python"}, backend.lastCall())
}

func TestUpdateNilReporter(t *testing.T) {
	client, _ := newTestClient(t, nil)
	require.NoError(t, client.Update(context.Background(), nil))
}

func TestUpdateStopsOnCancel(t *testing.T) {
	client, _ := newTestClient(t, nil)
	_, err := client.Bootstrap(context.Background(), false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	reporter := &recordingReporter{}
	cancelling := &cancelOnPlan{recordingReporter: reporter, cancel: cancel}

	err = client.Update(ctx, cancelling)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, reporter.events)
}

type cancelOnPlan struct {
	*recordingReporter
	cancel context.CancelFunc
}

func (c *cancelOnPlan) Plan(names []string) {
	c.recordingReporter.Plan(names)
	c.cancel()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
