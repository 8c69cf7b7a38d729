package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		facts Facts
		want  Profile
	}{
		{
			name:  "linux x86_64 triple",
			facts: Facts{OS: "x86_64-pc-linux-gnu", Arch: "x86_64"},
			want:  Profile{OS: OSLinux, Arch: ArchX86_64},
		},
		{
			name:  "darwin go arch name",
			facts: Facts{OS: "darwin", Arch: "amd64"},
			want:  Profile{OS: OSDarwin, Arch: ArchX86_64},
		},
		{
			name:  "darwin arm64",
			facts: Facts{OS: "arm64-apple-darwin22", Arch: "arm64"},
			want:  Profile{OS: OSDarwin, Arch: ArchARM64},
		},
		{
			name:  "windows flag",
			facts: Facts{OS: "mingw32", Arch: "i686", Windows: true},
			want:  Profile{OS: OSWindows, Arch: ArchX86, Windows: true},
		},
		{
			name:  "unknown arch falls back to x86",
			facts: Facts{OS: "linux", Arch: "ppc64le"},
			want:  Profile{OS: OSLinux, Arch: ArchX86},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.facts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectUnsupported(t *testing.T) {
	_, err := Detect(Facts{OS: "freebsd13", Arch: "amd64"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedPlatform))

	var perr *UnsupportedPlatformError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "freebsd13", perr.Facts.OS)
}

func TestInstallerTokens(t *testing.T) {
	tests := []struct {
		profile Profile
		os      string
		arch    string
		ext     string
	}{
		{Profile{OS: OSLinux, Arch: ArchX86_64}, "Linux", "-x86_64", ".sh"},
		{Profile{OS: OSLinux, Arch: ArchARM64}, "Linux", "-aarch64", ".sh"},
		{Profile{OS: OSDarwin, Arch: ArchARM64}, "MacOSX", "-arm64", ".sh"},
		{Profile{OS: OSWindows, Arch: ArchX86, Windows: true}, "Windows", "-x86", ".exe"},
	}
	for _, tt := range tests {
		t.Run(tt.profile.String(), func(t *testing.T) {
			assert.Equal(t, tt.os, tt.profile.InstallerOSToken())
			assert.Equal(t, tt.arch, tt.profile.InstallerArchToken())
			assert.Equal(t, tt.ext, tt.profile.InstallerExt())
		})
	}
}

func TestExecutableName(t *testing.T) {
	assert.Equal(t, "conda.exe", Profile{OS: OSWindows, Windows: true}.ExecutableName("conda"))
	assert.Equal(t, "conda", Profile{OS: OSLinux}.ExecutableName("conda"))
}
