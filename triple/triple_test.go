package triple

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestParseAndPredicates(t *testing.T) {
	cases := []struct {
		name      string
		in        string
		wantArch  string
		wantOS    string
		wantVer   string
		darwin    bool
		windows   bool
		linux     bool
		wasm      bool
		dylibExt  string
		execExt   string
	}{
		{
			name:     "linux gnu",
			in:       "x86_64-unknown-linux-gnu",
			wantArch: "x86_64",
			wantOS:   "linux",
			linux:    true,
			dylibExt: "so",
			execExt:  "",
		},
		{
			name:     "macos versioned",
			in:       "arm64-apple-macosx13.0",
			wantArch: "arm64",
			wantOS:   "macosx",
			wantVer:  "13.0",
			darwin:   true,
			dylibExt: "dylib",
			execExt:  "",
		},
		{
			name:     "windows msvc",
			in:       "x86_64-pc-windows-msvc",
			wantArch: "x86_64",
			wantOS:   "windows",
			windows:  true,
			dylibExt: "dll",
			execExt:  ".exe",
		},
		{
			name:     "wasi",
			in:       "wasm32-unknown-wasi",
			wantArch: "wasm32",
			wantOS:   "wasi",
			wasm:     true,
			dylibExt: "so",
			execExt:  ".wasm",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tr, err := Parse(c.in)
			assert.NilError(t, err)
			assert.Equal(t, tr.Arch, c.wantArch)
			assert.Equal(t, tr.OS, c.wantOS)
			assert.Equal(t, tr.OSVersion, c.wantVer)
			assert.Equal(t, tr.IsDarwin(), c.darwin)
			assert.Equal(t, tr.IsWindows(), c.windows)
			assert.Equal(t, tr.IsLinux(), c.linux)
			assert.Equal(t, tr.IsWasm() || tr.IsWASI(), c.wasm)
			assert.Equal(t, tr.DynamicLibraryExtension(), c.dylibExt)
			assert.Equal(t, tr.ExecutableExtension(), c.execExt)
		})
	}
}

func TestEntryPointRenamingExcludesWASI(t *testing.T) {
	wasi, err := Parse("wasm32-unknown-wasi")
	assert.NilError(t, err)
	assert.Equal(t, wasi.SupportsEntryPointRenaming(), false)

	linux, err := Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)
	assert.Equal(t, linux.SupportsEntryPointRenaming(), true)
}

func TestStaticLibraryPrefixAndExtension(t *testing.T) {
	win, _ := Parse("x86_64-pc-windows-msvc")
	prefix, ext := win.StaticLibraryPrefixAndExtension()
	assert.Equal(t, prefix, "")
	assert.Equal(t, ext, "lib")

	linux, _ := Parse("x86_64-unknown-linux-gnu")
	prefix, ext = linux.StaticLibraryPrefixAndExtension()
	assert.Equal(t, prefix, "lib")
	assert.Equal(t, ext, "a")
}

func TestCanonicalPlatformName(t *testing.T) {
	android, err := Parse("aarch64-unknown-linux-android")
	assert.NilError(t, err)
	assert.Equal(t, android.CanonicalPlatformName(), "android")
}
