package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootconda/internal/platform"
)

func TestResolvePosix(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "usr")
	l := Resolve(prefix, platform.Profile{OS: platform.OSLinux, Arch: platform.ArchX86_64}, "")

	assert.Equal(t, prefix, l.Prefix)
	assert.Equal(t, filepath.Join(prefix, "bin"), l.BinDir)
	assert.Equal(t, filepath.Join(prefix, "lib"), l.LibDir)
	assert.Equal(t, l.BinDir, l.ScriptDir)
	assert.Equal(t, l.BinDir, l.PythonDir)
	assert.Equal(t, filepath.Join(prefix, "bin", "conda"), l.Manager)
	assert.Equal(t, filepath.Join(prefix, DefaultConfigFileName), l.ConfigFile)
	assert.Equal(t, filepath.Join(prefix, "installer.sh"), l.Installer)
}

func TestResolveWindows(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "usr")
	l := Resolve(prefix, platform.Profile{OS: platform.OSWindows, Arch: platform.ArchX86_64, Windows: true}, "condarc-test")

	assert.Equal(t, filepath.Join(prefix, "Library", "bin"), l.BinDir)
	assert.Equal(t, filepath.Join(prefix, "Library", "lib"), l.LibDir)
	assert.Equal(t, filepath.Join(prefix, "Scripts"), l.ScriptDir)
	assert.Equal(t, prefix, l.PythonDir)
	assert.Equal(t, filepath.Join(prefix, "Scripts", "conda.exe"), l.Manager)
	assert.Equal(t, filepath.Join(prefix, "condarc-test"), l.ConfigFile)
	assert.Equal(t, filepath.Join(prefix, "installer.exe"), l.Installer)
}

func TestAbsPrefix(t *testing.T) {
	got, err := AbsPrefix("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefix(), got)

	got, err = AbsPrefix("relative/usr")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestManagerInstalled(t *testing.T) {
	prefix := t.TempDir()
	l := Resolve(prefix, platform.Profile{OS: platform.OSLinux, Arch: platform.ArchX86_64}, "")

	ok, err := l.ManagerInstalled()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.MkdirAll(l.BinDir, 0o755))
	require.NoError(t, os.WriteFile(l.Manager, []byte("#!/bin/sh\n"), 0o755))

	ok, err = l.ManagerInstalled()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	ok, err := DirExists(dir)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = DirExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}
