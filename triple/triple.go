// Package triple models LLVM-style target/host triples and the platform
// predicates the build plan engine needs to branch compiler and linker
// command lines on.
package triple

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Triple is a 3- or 4-component platform identifier: architecture, vendor,
// operating system, and an optional environment/ABI tag. An optional OS
// version (e.g. "13.0" for a macosx13.0 triple) may be attached.
type Triple struct {
	Arch        string
	Vendor      string
	OS          string
	Environment string
	OSVersion   string
}

// String reassembles the triple into its canonical dash-separated form.
func (t Triple) String() string {
	parts := []string{t.Arch, t.Vendor, t.osWithVersion()}
	if t.Environment != "" {
		parts = append(parts, t.Environment)
	}
	return strings.Join(parts, "-")
}

func (t Triple) osWithVersion() string {
	if t.OSVersion == "" {
		return t.OS
	}
	return t.OS + t.OSVersion
}

// Parse decodes a triple string of the form "arch-vendor-os[version][-env]".
// Darwin-family OS components may carry a trailing version, e.g.
// "arm64-apple-macosx13.0" or "arm64-apple-ios16.0-simulator".
func Parse(s string) (Triple, error) {
	if s == "" {
		return Triple{}, errors.New("empty triple")
	}

	parts := strings.Split(s, "-")
	if len(parts) < 3 {
		return Triple{}, errors.Errorf("triple %q: expected at least arch-vendor-os", s)
	}

	t := Triple{
		Arch:   parts[0],
		Vendor: parts[1],
	}

	osComponent := parts[2]
	os, version := splitOSVersion(osComponent)
	t.OS = os
	t.OSVersion = version

	if len(parts) > 3 {
		t.Environment = strings.Join(parts[3:], "-")
	}

	return t, nil
}

// splitOSVersion separates a trailing numeric version from a darwin-family
// OS component, e.g. "macosx13.0" -> ("macosx", "13.0").
func splitOSVersion(os string) (string, string) {
	i := len(os)
	for i > 0 {
		c := os[i-1]
		if (c >= '0' && c <= '9') || c == '.' {
			i--
			continue
		}
		break
	}
	if i == len(os) || i == 0 {
		return os, ""
	}
	version := os[i:]
	if _, err := parseVersionLike(version); err != nil {
		return os, ""
	}
	return os[:i], version
}

func parseVersionLike(v string) (string, error) {
	if v == "" {
		return "", errors.New("empty version")
	}
	for _, seg := range strings.Split(v, ".") {
		if _, err := strconv.Atoi(seg); err != nil {
			return "", err
		}
	}
	return v, nil
}

var darwinOSNames = map[string]bool{
	"macosx": true, "macos": true, "darwin": true,
	"ios": true, "ios-simulator": true,
	"tvos": true, "tvos-simulator": true,
	"watchos": true, "watchos-simulator": true,
	"visionos": true, "visionos-simulator": true,
}

// IsDarwin reports whether the triple targets any Apple-family OS.
func (t Triple) IsDarwin() bool {
	return darwinOSNames[strings.ToLower(t.OS)]
}

// IsWindows reports whether the triple targets Windows.
func (t Triple) IsWindows() bool {
	return strings.EqualFold(t.OS, "windows")
}

// IsLinux reports whether the triple targets Linux (including Android,
// which uses a Linux kernel but a distinct environment tag).
func (t Triple) IsLinux() bool {
	return strings.EqualFold(t.OS, "linux")
}

// IsAndroid reports whether the triple targets Android.
func (t Triple) IsAndroid() bool {
	return strings.EqualFold(t.Environment, "android") || strings.Contains(strings.ToLower(t.OS), "android")
}

// IsWASI reports whether the triple targets a WASI environment.
func (t Triple) IsWASI() bool {
	return strings.EqualFold(t.OS, "wasi") || strings.EqualFold(t.Environment, "wasi")
}

// IsWasm reports whether the triple's architecture is a WebAssembly target.
func (t Triple) IsWasm() bool {
	return strings.HasPrefix(t.Arch, "wasm32") || strings.HasPrefix(t.Arch, "wasm64")
}

// IsFreeBSD reports whether the triple targets FreeBSD.
func (t Triple) IsFreeBSD() bool {
	return strings.EqualFold(t.OS, "freebsd")
}

// IsMSVC reports whether the triple's environment is the MSVC ABI.
func (t Triple) IsMSVC() bool {
	return strings.EqualFold(t.Environment, "msvc")
}

// DynamicLibraryExtension returns the file extension (without leading dot)
// used for dynamic libraries on this platform.
func (t Triple) DynamicLibraryExtension() string {
	switch {
	case t.IsDarwin():
		return "dylib"
	case t.IsWindows():
		return "dll"
	default:
		return "so"
	}
}

// ExecutableExtension returns the file extension (including leading dot, or
// empty) used for executables on this platform.
func (t Triple) ExecutableExtension() string {
	switch {
	case t.IsWindows():
		return ".exe"
	case t.IsWasm():
		return ".wasm"
	default:
		return ""
	}
}

// StaticLibraryPrefixAndExtension returns the conventional filename prefix
// and extension (without leading dot) for a static library archive.
func (t Triple) StaticLibraryPrefixAndExtension() (prefix, ext string) {
	if t.IsWindows() {
		return "", "lib"
	}
	return "lib", "a"
}

// PlatformVersionQualified returns the triple string using the
// version-qualified OS component, required for darwin link/target flags.
func (t Triple) PlatformVersionQualified() string {
	return t.String()
}

// CanonicalPlatformName returns the engine's canonical platform tag used by
// BuildEnvironment and dependency condition evaluation.
func (t Triple) CanonicalPlatformName() string {
	switch {
	case t.IsAndroid():
		return "android"
	case t.IsDarwin():
		return strings.ToLower(strings.TrimSuffix(t.OS, "-simulator"))
	case t.IsWindows():
		return "windows"
	case t.IsLinux():
		return "linux"
	case t.IsWASI():
		return "wasi"
	case t.IsWasm():
		return "wasm32-none"
	case t.IsFreeBSD():
		return "freebsd"
	default:
		return strings.ToLower(t.OS)
	}
}

// SupportsEntryPointRenaming reports whether the triple's driver supports
// the `-Xfrontend -entry-point-function-name` flag pair. WASI's entry
// sequence does not.
func (t Triple) SupportsEntryPointRenaming() bool {
	return !t.IsWASI()
}

func (t Triple) Validate() error {
	if t.Arch == "" || t.OS == "" {
		return fmt.Errorf("triple %q: missing architecture or OS component", t.String())
	}
	return nil
}
