package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"bootconda/internal/platform"
)

const (
	appName = "bootconda"

	// DefaultConfigFileName is the private condarc written inside the prefix.
	DefaultConfigFileName = "condarc-bootconda"

	lockFileName = ".bootstrap.lock"
)

// Layout captures canonical locations inside a private conda prefix.
type Layout struct {
	Prefix     string `json:"prefix"`
	BinDir     string `json:"bindir"`
	LibDir     string `json:"libdir"`
	ScriptDir  string `json:"scriptdir"`
	PythonDir  string `json:"pythondir"`
	Manager    string `json:"manager"`
	ConfigFile string `json:"config_file"`
	Installer  string `json:"installer"`
	LockFile   string `json:"lock_file"`
}

// Resolve derives the layout for prefix on the given platform. It performs no
// I/O; prefix is expected to be absolute.
func Resolve(prefix string, p platform.Profile, configFileName string) Layout {
	if configFileName == "" {
		configFileName = DefaultConfigFileName
	}
	prefix = filepath.Clean(prefix)

	l := Layout{
		Prefix:     prefix,
		ConfigFile: filepath.Join(prefix, configFileName),
		LockFile:   filepath.Join(prefix, lockFileName),
	}
	if p.Windows {
		l.BinDir = filepath.Join(prefix, "Library", "bin")
		l.LibDir = filepath.Join(prefix, "Library", "lib")
		l.ScriptDir = filepath.Join(prefix, "Scripts")
		l.PythonDir = prefix
		l.Installer = filepath.Join(prefix, "installer.exe")
	} else {
		l.BinDir = filepath.Join(prefix, "bin")
		l.LibDir = filepath.Join(prefix, "lib")
		l.ScriptDir = l.BinDir
		l.PythonDir = l.BinDir
		l.Installer = filepath.Join(prefix, "installer.sh")
	}
	l.Manager = filepath.Join(l.ScriptDir, p.ExecutableName("conda"))
	return l
}

// DefaultPrefix returns the per-user prefix under the XDG data directory.
func DefaultPrefix() string {
	return filepath.Join(xdg.DataHome, appName, "usr")
}

// DefaultConfigPath returns the location of the bootconda settings file.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// AbsPrefix resolves a user-supplied prefix, falling back to DefaultPrefix.
func AbsPrefix(prefix string) (string, error) {
	if prefix == "" {
		return DefaultPrefix(), nil
	}
	abs, err := filepath.Abs(prefix)
	if err != nil {
		return "", fmt.Errorf("resolve prefix: %w", err)
	}
	return abs, nil
}

// EnsurePrefix makes sure the prefix exists on disk.
func (l Layout) EnsurePrefix() error {
	if ok, err := DirExists(l.Prefix); err == nil && ok {
		return nil
	}
	if err := os.MkdirAll(l.Prefix, 0o755); err != nil {
		return fmt.Errorf("create prefix: %w", err)
	}
	return nil
}

// ManagerInstalled reports whether the conda executable is present.
func (l Layout) ManagerInstalled() (bool, error) {
	return FileExists(l.Manager)
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
