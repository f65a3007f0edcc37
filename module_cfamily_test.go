package planner

import (
	"context"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/forgebuild/planner/internal/diagnostics"
	"github.com/forgebuild/planner/toolchain"
	"github.com/forgebuild/planner/triple"
)

func testCFamilyParams(t triple.Triple) BuildParameters {
	return BuildParameters{
		DataPath:      "/build",
		Configuration: triple.Debug,
		TargetTriple:  t,
		HostTriple:    t,
	}
}

func TestBuildCFamilyModuleBasicCompileArgs(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:               ModuleID{Package: "P", Name: "CCore"},
		Kind:             ModuleCSource,
		PublicHeadersDir: "/pkg/CCore/include",
		Sources:          []string{"Sources/CCore/foo.c", "Sources/CCore/bar.cpp", "Sources/CCore/ignored.txt"},
	}

	desc, err := buildCFamilyModule(context.Background(), CBuildInput{
		Graph:       &PackageGraph{},
		Module:      m,
		Destination: Target,
		Params:      testCFamilyParams(linux),
	})
	assert.NilError(t, err)

	args := desc.CompileArgs()
	assert.Assert(t, containsArg(args, "-target"))
	assert.Assert(t, containsArg(args, "-O0"))
	assert.Assert(t, containsArg(args, "-DDEBUG=1"))
	assert.Assert(t, containsArg(args, "-I"))
	assert.Assert(t, containsArg(args, "-fno-omit-frame-pointer"))

	assert.Equal(t, len(desc.Objects()), 2)
	assert.Assert(t, desc.HasModuleMap())
}

func TestBuildCFamilyModuleToolsVersionGating(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:   ModuleID{Package: "P", Name: "CCore"},
		Kind: ModuleCSource,
		Settings: []BuildSetting{
			{Kind: SettingUnsafeFlag, Value: "feature:package-name-flag"},
		},
		ToolsVersion: "5.5",
	}

	diags := diagnostics.NewCollector(nil)
	desc, err := buildCFamilyModule(context.Background(), CBuildInput{
		Graph:       &PackageGraph{},
		Module:      m,
		Destination: Target,
		Params:      testCFamilyParams(linux),
		Diagnostics: diags,
	})
	assert.NilError(t, err)
	assert.Assert(t, !containsArg(desc.CompileArgs(), "feature:package-name-flag"))

	items := diags.Items()
	assert.Equal(t, len(items), 1)
	assert.Equal(t, items[0].Kind, diagnostics.ToolsVersionFeatureDropped)
}

func TestBuildCFamilyModuleUnsupportedFlagDropped(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:   ModuleID{Package: "P", Name: "CCore"},
		Kind: ModuleCSource,
		Settings: []BuildSetting{
			{Kind: SettingUnsafeFlag, Value: "-fsome-new-flag"},
		},
	}

	diags := diagnostics.NewCollector(nil)
	tc := &toolchain.Static{UnsupportedFlags: map[string]bool{"-fsome-new-flag": true}}
	desc, err := buildCFamilyModule(context.Background(), CBuildInput{
		Graph:       &PackageGraph{},
		Module:      m,
		Destination: Target,
		Params:      testCFamilyParams(linux),
		Toolchain:   tc,
		Diagnostics: diags,
	})
	assert.NilError(t, err)
	assert.Assert(t, !containsArg(desc.CompileArgs(), "-fsome-new-flag"))

	items := diags.Items()
	assert.Equal(t, len(items), 1)
	assert.Equal(t, items[0].Kind, diagnostics.ToolchainFlagUnsupported)
}

func TestBuildCFamilyModuleSystemLibraryDepContributesFlags(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	sysDep := &ResolvedModule{
		ID:            ModuleID{Package: "P", Name: "CZlib"},
		Kind:          ModuleSystemLibrary,
		ModuleMapPath: "/pkg/CZlib/module.modulemap",
		PkgConfigResolved: &PkgConfigResult{
			IncludePaths: []string{"/usr/include/zlib"},
			LibraryPaths: []string{"/usr/lib"},
			Libraries:    []string{"z"},
		},
	}
	m := &ResolvedModule{
		ID:   ModuleID{Package: "P", Name: "CCore"},
		Kind: ModuleCSource,
	}
	g := &PackageGraph{Modules: map[ModuleID]*ResolvedModule{sysDep.ID: sysDep, m.ID: m}}

	desc, err := buildCFamilyModule(context.Background(), CBuildInput{
		Graph:       g,
		Module:      m,
		Destination: Target,
		Params:      testCFamilyParams(linux),
		CompileDeps: []ModuleID{sysDep.ID},
	})
	assert.NilError(t, err)

	args := desc.CompileArgs()
	assert.Assert(t, containsArg(args, "-fmodule-map-file=/pkg/CZlib/module.modulemap"))
	assert.Assert(t, containsArg(args, "/usr/include/zlib"))
}

func TestBuildCFamilyModuleBinaryArtifactDepContributesHeaders(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	binDep := &ResolvedModule{ID: ModuleID{Package: "P", Name: "Vendored"}, Kind: ModuleBinaryArtifact}
	m := &ResolvedModule{ID: ModuleID{Package: "P", Name: "CCore"}, Kind: ModuleCSource}
	g := &PackageGraph{Modules: map[ModuleID]*ResolvedModule{binDep.ID: binDep, m.ID: m}}
	manifests := map[ModuleID]BinaryArtifactManifest{
		binDep.ID: {Variants: []BinaryArtifactVariant{
			{SupportedTriples: []string{linux.String()}, LibraryPath: "/vendor/lib", HeadersPath: "/vendor/include"},
		}},
	}

	desc, err := buildCFamilyModule(context.Background(), CBuildInput{
		Graph:       g,
		Module:      m,
		Destination: Target,
		Params:      testCFamilyParams(linux),
		CompileDeps: []ModuleID{binDep.ID},
		Manifests:   manifests,
	})
	assert.NilError(t, err)
	assert.Assert(t, containsArg(desc.CompileArgs(), "/vendor/include"))
}

func TestSelectUmbrellaHeaderSingleTopLevel(t *testing.T) {
	m := &ResolvedModule{
		PublicHeadersDir: "/pkg/CCore/include",
		PublicHeaders: []string{
			"/pkg/CCore/include/CCore.h",
			"/pkg/CCore/include/Detail/inner.h",
		},
	}
	assert.Equal(t, selectUmbrellaHeader(m), "/pkg/CCore/include/CCore.h")
}

func TestSelectUmbrellaHeaderMultipleTopLevelFallsBack(t *testing.T) {
	m := &ResolvedModule{
		PublicHeadersDir: "/pkg/CCore/include",
		PublicHeaders: []string{
			"/pkg/CCore/include/A.h",
			"/pkg/CCore/include/B.h",
		},
	}
	assert.Equal(t, selectUmbrellaHeader(m), "")
}

func TestSelectUmbrellaHeaderIgnorePatternExcludesCandidate(t *testing.T) {
	m := &ResolvedModule{
		PublicHeadersDir:     "/pkg/CCore/include",
		HeaderIgnorePatterns: []string{"*_private.h"},
		PublicHeaders: []string{
			"/pkg/CCore/include/CCore.h",
			"/pkg/CCore/include/CCore_private.h",
		},
	}
	assert.Equal(t, selectUmbrellaHeader(m), "/pkg/CCore/include/CCore.h")
}

func TestSynthesizeModuleMapUmbrellaHeaderVsDirectory(t *testing.T) {
	m := &ResolvedModule{ID: ModuleID{Package: "P", Name: "CCore"}, PublicHeadersDir: "/pkg/CCore/include"}

	withHeader := synthesizeModuleMap(m, "/pkg/CCore/include/CCore.h")
	assert.Assert(t, strings.Contains(withHeader, `umbrella header "/pkg/CCore/include/CCore.h"`))

	withDir := synthesizeModuleMap(m, "")
	assert.Assert(t, strings.Contains(withDir, `umbrella "/pkg/CCore/include"`))
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
