// Package platform derives the host profile used to pick an installer and lay
// out the private conda prefix.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrUnsupportedPlatform is returned when the host OS is not darwin, linux or
// windows.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// OS identifies an operating system family.
type OS string

const (
	OSDarwin  OS = "darwin"
	OSLinux   OS = "linux"
	OSWindows OS = "windows"
)

// Arch identifies a CPU architecture as named by the installer artifacts.
type Arch string

const (
	ArchX86_64 Arch = "x86_64"
	ArchX86    Arch = "x86"
	ArchARM64  Arch = "arm64"
)

// Facts are the raw host observations a Profile is derived from.
type Facts struct {
	OS      string
	Arch    string
	Windows bool
}

// Profile is the immutable description of the host platform.
type Profile struct {
	OS      OS
	Arch    Arch
	Windows bool
}

// UnsupportedPlatformError reports the facts that matched no known OS family.
type UnsupportedPlatformError struct {
	Facts Facts
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: os=%q arch=%q", e.Facts.OS, e.Facts.Arch)
}

func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// HostFacts reports the facts for the running process.
func HostFacts() Facts {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "386":
		arch = "i686"
	case "arm64":
		arch = "aarch64"
	}
	return Facts{
		OS:      runtime.GOOS,
		Arch:    arch,
		Windows: runtime.GOOS == "windows",
	}
}

// Detect maps facts onto a Profile. It performs no I/O.
func Detect(f Facts) (Profile, error) {
	host := strings.ToLower(f.OS)

	var p Profile
	switch {
	case strings.Contains(host, "darwin"):
		p.OS = OSDarwin
	case strings.Contains(host, "linux"):
		p.OS = OSLinux
	case f.Windows:
		p.OS = OSWindows
		p.Windows = true
	default:
		return Profile{}, &UnsupportedPlatformError{Facts: f}
	}

	arch := strings.ToLower(f.Arch)
	switch {
	case strings.Contains(arch, "x86_64"), strings.Contains(arch, "amd64"):
		p.Arch = ArchX86_64
	case strings.Contains(arch, "arm64"), strings.Contains(arch, "aarch64"):
		p.Arch = ArchARM64
	default:
		p.Arch = ArchX86
	}
	return p, nil
}

// Host detects the profile of the running process.
func Host() (Profile, error) {
	return Detect(HostFacts())
}

// InstallerOSToken is the OS component of the Miniconda installer name.
func (p Profile) InstallerOSToken() string {
	switch p.OS {
	case OSDarwin:
		return "MacOSX"
	case OSLinux:
		return "Linux"
	case OSWindows:
		return "Windows"
	}
	return ""
}

// InstallerArchToken is the architecture suffix of the installer name,
// including its leading dash.
func (p Profile) InstallerArchToken() string {
	switch p.Arch {
	case ArchX86_64:
		return "-x86_64"
	case ArchARM64:
		// Linux builds are published as aarch64, macOS builds as arm64.
		if p.OS == OSLinux {
			return "-aarch64"
		}
		return "-arm64"
	default:
		return "-x86"
	}
}

// InstallerExt is the file extension of the installer artifact.
func (p Profile) InstallerExt() string {
	if p.Windows {
		return ".exe"
	}
	return ".sh"
}

// ExecutableName appends the platform executable suffix to base.
func (p Profile) ExecutableName(base string) string {
	if p.Windows {
		return base + ".exe"
	}
	return base
}

func (p Profile) String() string {
	return string(p.OS) + "-" + string(p.Arch)
}
