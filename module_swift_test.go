package planner

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/forgebuild/planner/internal/diagnostics"
	"github.com/forgebuild/planner/toolchain"
	"github.com/forgebuild/planner/triple"
)

func testSwiftParams(t triple.Triple, config triple.Configuration) BuildParameters {
	return BuildParameters{
		DataPath:      "/build",
		Configuration: config,
		TargetTriple:  t,
		HostTriple:    t,
	}
}

func TestBuildSwiftModuleDebugFlags(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:      ModuleID{Package: "P", Name: "Core"},
		Kind:    ModuleSwiftSource,
		Sources: []string{"Sources/Core/Core.swift"},
	}

	desc, err := buildSwiftModule(context.Background(), SwiftBuildInput{
		Graph:       &PackageGraph{},
		Module:      m,
		Destination: Target,
		Params:      testSwiftParams(linux, triple.Debug),
		Toolchain:   &toolchain.Static{},
	})
	assert.NilError(t, err)

	args := desc.CompileArgs()
	assert.Assert(t, containsArg(args, "-Onone"))
	assert.Assert(t, containsArg(args, "-enable-testing"))
	assert.Assert(t, containsArg(args, "-swift-version"))
	assert.Equal(t, len(desc.Objects()), 1)
	assert.Assert(t, !desc.HasModuleMap())
}

func TestBuildSwiftModuleReleaseWholeModuleOptimization(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:      ModuleID{Package: "P", Name: "Core"},
		Kind:    ModuleSwiftSource,
		Sources: []string{"Sources/Core/Core.swift"},
	}

	desc, err := buildSwiftModule(context.Background(), SwiftBuildInput{
		Graph:       &PackageGraph{},
		Module:      m,
		Destination: Target,
		Params:      testSwiftParams(linux, triple.Release),
		Toolchain:   &toolchain.Static{},
	})
	assert.NilError(t, err)
	assert.Assert(t, containsArg(desc.CompileArgs(), "-whole-module-optimization"))
	assert.Assert(t, containsArg(desc.CompileArgs(), "-O"))
}

func TestBuildSwiftModuleDarwinEmitsObjCHeader(t *testing.T) {
	darwin, err := triple.Parse("arm64-apple-macosx14.0")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:      ModuleID{Package: "P", Name: "Core"},
		Kind:    ModuleSwiftSource,
		Sources: []string{"Sources/Core/Core.swift"},
	}

	desc, err := buildSwiftModule(context.Background(), SwiftBuildInput{
		Graph:       &PackageGraph{},
		Module:      m,
		Destination: Target,
		Params:      testSwiftParams(darwin, triple.Debug),
		Toolchain:   &toolchain.Static{},
	})
	assert.NilError(t, err)
	assert.Assert(t, containsArg(desc.CompileArgs(), "-emit-objc-header"))
	assert.Assert(t, desc.Outputs().ObjCHeaderPath != "")
	assert.Equal(t, desc.Outputs().ModuleWrapObject, "")
}

func TestBuildSwiftModuleNonDarwinEmitsModuleWrap(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:      ModuleID{Package: "P", Name: "Core"},
		Kind:    ModuleSwiftSource,
		Sources: []string{"Sources/Core/Core.swift"},
	}

	desc, err := buildSwiftModule(context.Background(), SwiftBuildInput{
		Graph:       &PackageGraph{},
		Module:      m,
		Destination: Target,
		Params:      testSwiftParams(linux, triple.Debug),
		Toolchain:   &toolchain.Static{},
	})
	assert.NilError(t, err)
	assert.Equal(t, desc.Outputs().ObjCHeaderPath, "")
	assert.Assert(t, desc.Outputs().ModuleWrapObject != "")
	assert.Assert(t, containsArg(desc.Objects(), desc.Outputs().ModuleWrapObject))
}

func TestBuildSwiftModuleParseAsLibraryHeuristic(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:      ModuleID{Package: "P", Name: "App"},
		Kind:    ModuleSwiftSource,
		Sources: []string{"Sources/App/main.swift"},
	}

	desc, err := buildSwiftModule(context.Background(), SwiftBuildInput{
		Graph:        &PackageGraph{},
		Module:       m,
		Destination:  Target,
		Params:       testSwiftParams(linux, triple.Debug),
		Toolchain:    &toolchain.Static{},
		SourceReader: fakeReader("@main\nstruct App {}\n"),
	})
	assert.NilError(t, err)
	assert.Assert(t, containsArg(desc.CompileArgs(), "-parse-as-library"))
}

func TestBuildSwiftModuleLanguageVersionSettingOverridesDefault(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:           ModuleID{Package: "P", Name: "Core"},
		Kind:         ModuleSwiftSource,
		Sources:      []string{"Sources/Core/Core.swift"},
		ToolsVersion: "5.9",
		Settings: []BuildSetting{
			{Kind: SettingLanguageVersion, Value: "6"},
		},
	}

	desc, err := buildSwiftModule(context.Background(), SwiftBuildInput{
		Graph:       &PackageGraph{},
		Module:      m,
		Destination: Target,
		Params:      testSwiftParams(linux, triple.Debug),
		Toolchain:   &toolchain.Static{},
	})
	assert.NilError(t, err)

	args := desc.CompileArgs()
	count := 0
	for i, a := range args {
		if a == "-swift-version" {
			count++
			assert.Equal(t, args[i+1], "6")
		}
	}
	assert.Equal(t, count, 1)
}

func TestBuildSwiftModuleToolsVersionGatedFeatureDropped(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:           ModuleID{Package: "P", Name: "Core"},
		Kind:         ModuleSwiftSource,
		Sources:      []string{"Sources/Core/Core.swift"},
		ToolsVersion: "5.0",
		Settings: []BuildSetting{
			{Kind: SettingUnsafeFlag, Value: "feature:package-name-flag"},
		},
	}

	diags := diagnostics.NewCollector(nil)
	desc, err := buildSwiftModule(context.Background(), SwiftBuildInput{
		Graph:       &PackageGraph{},
		Module:      m,
		Destination: Target,
		Params:      testSwiftParams(linux, triple.Debug),
		Toolchain:   &toolchain.Static{},
		Diagnostics: diags,
	})
	assert.NilError(t, err)
	assert.Assert(t, !containsArg(desc.CompileArgs(), "feature:package-name-flag"))
	assert.Equal(t, len(diags.Items()), 1)
}

func TestBuildSwiftModulePluginToolReference(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	m := &ResolvedModule{
		ID:      ModuleID{Package: "P", Name: "Core"},
		Kind:    ModuleSwiftSource,
		Sources: []string{"Sources/Core/Core.swift"},
	}

	desc, err := buildSwiftModule(context.Background(), SwiftBuildInput{
		Graph:       &PackageGraph{},
		Module:      m,
		Destination: Target,
		Params:      testSwiftParams(linux, triple.Debug),
		Toolchain:   &toolchain.Static{},
		PluginDeps: []*hostPluginPlan{
			{Module: ModuleID{Package: "P", Name: "Macros"}, ExecutablePath: "/build/host/Macros"},
		},
	})
	assert.NilError(t, err)
	assert.Assert(t, containsArg(desc.CompileArgs(), "/build/host/Macros#Macros"))
}

func TestBuildSwiftModuleSystemLibraryDepContributesFlags(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	sysDep := &ResolvedModule{
		ID:            ModuleID{Package: "P", Name: "CZlib"},
		Kind:          ModuleSystemLibrary,
		ModuleMapPath: "/pkg/CZlib/module.modulemap",
		PkgConfigResolved: &PkgConfigResult{
			IncludePaths: []string{"/usr/include/zlib"},
			Libraries:    []string{"z"},
		},
	}
	m := &ResolvedModule{ID: ModuleID{Package: "P", Name: "Core"}, Kind: ModuleSwiftSource, Sources: []string{"Sources/Core/Core.swift"}}
	g := &PackageGraph{Modules: map[ModuleID]*ResolvedModule{sysDep.ID: sysDep, m.ID: m}}

	desc, err := buildSwiftModule(context.Background(), SwiftBuildInput{
		Graph:       g,
		Module:      m,
		Destination: Target,
		Params:      testSwiftParams(linux, triple.Debug),
		Toolchain:   &toolchain.Static{},
		CompileDeps: []ModuleID{sysDep.ID},
	})
	assert.NilError(t, err)

	args := desc.CompileArgs()
	assert.Assert(t, containsArg(args, "-fmodule-map-file=/pkg/CZlib/module.modulemap"))
	assert.Assert(t, containsArg(args, "/usr/include/zlib"))
}

func TestBuildSwiftModuleBinaryArtifactDepContributesHeaders(t *testing.T) {
	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)

	binDep := &ResolvedModule{ID: ModuleID{Package: "P", Name: "Vendored"}, Kind: ModuleBinaryArtifact}
	m := &ResolvedModule{ID: ModuleID{Package: "P", Name: "Core"}, Kind: ModuleSwiftSource, Sources: []string{"Sources/Core/Core.swift"}}
	g := &PackageGraph{Modules: map[ModuleID]*ResolvedModule{binDep.ID: binDep, m.ID: m}}
	manifests := map[ModuleID]BinaryArtifactManifest{
		binDep.ID: {Variants: []BinaryArtifactVariant{
			{SupportedTriples: []string{linux.String()}, LibraryPath: "/vendor/lib", HeadersPath: "/vendor/include"},
		}},
	}

	desc, err := buildSwiftModule(context.Background(), SwiftBuildInput{
		Graph:       g,
		Module:      m,
		Destination: Target,
		Params:      testSwiftParams(linux, triple.Debug),
		Toolchain:   &toolchain.Static{},
		CompileDeps: []ModuleID{binDep.ID},
		Manifests:   manifests,
	})
	assert.NilError(t, err)
	assert.Assert(t, containsArg(desc.CompileArgs(), "/vendor/include"))
}

func TestSymbolGraphArgsFromCompileArgsStripsDiagnosticsOnlyFlags(t *testing.T) {
	args := []string{
		"-module-name", "Core",
		"-emit-objc-header", "-emit-objc-header-path", "/build/Core-Swift.h",
		"-serialize-diagnostics", "-serialize-diagnostics-path", "/build/Core.dia",
		"-g",
	}
	got := symbolGraphArgsFromCompileArgs(args)
	assert.DeepEqual(t, got, []string{"-module-name", "Core", "-g"})
}

func TestLanguageVersionDefault(t *testing.T) {
	assert.Equal(t, languageVersionDefault("6.0"), "6")
	assert.Equal(t, languageVersionDefault("4.2"), "4.2")
	assert.Equal(t, languageVersionDefault("4.0"), "4")
	assert.Equal(t, languageVersionDefault("5.9"), "5")
	assert.Equal(t, languageVersionDefault(""), "5")
}

func TestEffectiveModuleMapPath(t *testing.T) {
	params := testSwiftParams(triple.Triple{}, triple.Debug)

	explicit := &ResolvedModule{ModuleMapPath: "/pkg/C/module.modulemap"}
	assert.Equal(t, effectiveModuleMapPath(explicit, params), "/pkg/C/module.modulemap")

	synthesized := &ResolvedModule{ID: ModuleID{Package: "P", Name: "C"}, PublicHeadersDir: "/pkg/C/include"}
	assert.Equal(t, effectiveModuleMapPath(synthesized, params), "/build/debug/C.build/module.modulemap")

	none := &ResolvedModule{}
	assert.Equal(t, effectiveModuleMapPath(none, params), "")
}
