package planner

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/shlex"

	"github.com/forgebuild/planner/internal/diagnostics"
	"github.com/forgebuild/planner/internal/traceshim"
	"github.com/forgebuild/planner/toolchain"
	"github.com/forgebuild/planner/triple"
)

// SwiftBuildInput bundles everything buildSwiftModule needs beyond the
// module itself: the resolved graph (to look up compile-closure members),
// the destination's build parameters, a toolchain for capability probes,
// and the diagnostics collector warnings are recorded on.
type SwiftBuildInput struct {
	Graph         *PackageGraph
	Module        *ResolvedModule
	Destination   Destination
	Params        BuildParameters
	CompileDeps   []ModuleID // compileClosure(module, destination)
	PluginDeps    []*hostPluginPlan
	Toolchain     toolchain.Toolchain
	Diagnostics   *diagnostics.Collector
	SourceReader  func(path string) ([]byte, error) // parse-as-library heuristic; may be nil

	// ToolsVersions resolves a package's declared tools-version when the
	// module itself doesn't carry one, for tools-version feature gating.
	ToolsVersions map[PackageID]string

	// Manifests resolves a binary-artifact compile dependency's variant
	// manifest, for exposing its headers path to this module.
	Manifests map[ModuleID]BinaryArtifactManifest
}

// hostPluginPlan describes a macro/plugin tool already planned on the host
// destination, which the depending module references by executable path
// rather than by imported interface. spec.md §4.2.1(12)/§4.2.4.
type hostPluginPlan struct {
	Module         ModuleID
	ExecutablePath string
}

// SwiftModuleDescription is the compile description for a swift-family
// module (swift-source, snippet, or test kind). spec.md §4.2.1.
type SwiftModuleDescription struct {
	baseModuleDescription
	compileArgs []string
	objects     []string
	outputs     OutputPaths
}

func (d *SwiftModuleDescription) Objects() []string       { return d.objects }
func (d *SwiftModuleDescription) CompileArgs() []string   { return d.compileArgs }
func (d *SwiftModuleDescription) Outputs() OutputPaths    { return d.outputs }
func (d *SwiftModuleDescription) HasModuleMap() bool      { return false }

func (d *SwiftModuleDescription) SymbolGraphExtractArgs() []string {
	return symbolGraphArgsFromCompileArgs(d.compileArgs)
}

// symbolGraphArgsFromCompileArgs strips per-source and diagnostics-only
// flags from a compile argument list, per SPEC_FULL.md's supplemented
// accessor spec for symbol_graph_extract_arguments.
func symbolGraphArgsFromCompileArgs(args []string) []string {
	var out []string
	skipNext := false
	for _, a := range args {
		if skipNext {
			skipNext = false
			continue
		}
		switch {
		case a == "-emit-objc-header-path", a == "-serialize-diagnostics-path":
			skipNext = true
			continue
		case a == "-emit-objc-header", a == "-serialize-diagnostics":
			continue
		}
		out = append(out, a)
	}
	return out
}

func buildSwiftModule(ctx context.Context, in SwiftBuildInput) (*SwiftModuleDescription, error) {
	m, params := in.Module, in.Params
	t := params.triple()
	buildDir := fmt.Sprintf("%s/%s.build", params.dataDir(), m.ID.Name)

	var args []string

	// 1. Base flags.
	args = append(args, "-module-name", m.ID.Name)
	args = append(args, "-target", t.String())
	args = append(args, "-module-cache-path", params.moduleCachePath())
	if sdk, _ := in.Toolchain.SDKRoot(ctx); sdk != "" {
		args = append(args, "-sdk", sdk)
	}
	if res, _ := in.Toolchain.ResourcePath(ctx); res != "" {
		args = append(args, "-resource-dir", res)
	}

	// 2. Configuration flags.
	wmo := false
	if params.Configuration == triple.Debug {
		args = append(args, "-Onone", "-enable-testing", "-g", "-serialize-diagnostics", "-enable-batch-mode")
		args = append(args, "-DSWIFT_PACKAGE", "-DDEBUG")
	} else {
		args = append(args, "-O", "-DSWIFT_PACKAGE", "-g")
		wmo = true
	}
	if m.EnableEmbedded {
		wmo = true
	}
	if wmo {
		args = append(args, "-whole-module-optimization")
	}

	// 3. Worker count.
	if params.WorkerCount > 0 {
		args = append(args, fmt.Sprintf("-j%d", params.WorkerCount))
	}

	// 4. Module-map imports and include paths for c-family, system-library,
	// and binary-artifact compile deps.
	for _, depID := range in.CompileDeps {
		dep, ok := in.Graph.Module(depID)
		if !ok {
			continue
		}
		switch dep.Kind {
		case ModuleCSource:
			if mapPath := effectiveModuleMapPath(dep, params); mapPath != "" {
				args = append(args, "-Xcc", "-fmodule-map-file="+mapPath)
				args = append(args, "-Xcc", "-I", "-Xcc", dep.PublicHeadersDir)
			}
		case ModuleSystemLibrary:
			if dep.ModuleMapPath != "" {
				args = append(args, "-Xcc", "-fmodule-map-file="+dep.ModuleMapPath)
			}
			if dep.PkgConfigResolved != nil {
				includeArgs, _ := systemLibraryFlags(&SystemModuleDescription{result: dep.PkgConfigResolved})
				for _, a := range includeArgs {
					args = append(args, "-Xcc", a)
				}
			}
		case ModuleBinaryArtifact:
			if variant, ok := selectBinaryVariant(in.Manifests[dep.ID], t); ok && variant.HeadersPath != "" {
				args = append(args, "-Xcc", "-I", "-Xcc", variant.HeadersPath)
			}
		}
	}

	// 5. Declared settings, in manifest order, condition-filtered.
	env := params.environment()
	var cxxStandardEmitted bool
	languageVersionSet := false
	for _, s := range m.Settings {
		if !s.Applies(env) {
			continue
		}
		switch s.Kind {
		case SettingDefine:
			args = append(args, "-D"+s.Value)
		case SettingHeaderSearchPath:
			args = append(args, "-Xcc", "-I", s.Value)
		case SettingUnsafeFlag:
			if feature, gated := gatedFeatureName(s); gated {
				threshold, known := toolsVersionFeatureThresholds[feature]
				tv := m.ToolsVersion
				if tv == "" {
					tv = in.ToolsVersions[m.ID.Package]
				}
				if known && compareVersions(tv, threshold) < 0 {
					if in.Diagnostics != nil {
						in.Diagnostics.Warn(diagnostics.ToolsVersionFeatureDropped,
							fmt.Sprintf("feature %q requires tools-version %s, package %s declares %s; dropping", feature, threshold, m.ID.Package, tv),
							map[string]string{"module": m.ID.Name, "package": string(m.ID.Package), "feature": feature})
					}
					continue
				}
			}
			tokens, err := shlex.Split(s.Value)
			if err != nil || len(tokens) == 0 {
				tokens = []string{s.Value}
			}
			for _, tok := range tokens {
				ok, _ := traceshim.Query(ctx, "toolchain.SupportsFlag", func(ctx context.Context) (bool, error) {
					return in.Toolchain.SupportsFlag(ctx, tok)
				})
				if !ok {
					if in.Diagnostics != nil {
						in.Diagnostics.Warn(diagnostics.ToolchainFlagUnsupported,
							fmt.Sprintf("toolchain does not support flag %q declared by module %s; dropping it", tok, m.ID.Name),
							map[string]string{"module": m.ID.Name, "flag": tok})
					}
					continue
				}
				args = append(args, tok)
			}
		case SettingCxxInteropMode:
			if s.Value == "Cxx" || s.Value == "cxx" {
				args = append(args, "-cxx-interoperability-mode=default")
				if m.CxxLanguageStandard != "" && !cxxStandardEmitted {
					args = append(args, "-Xcc", "-std="+m.CxxLanguageStandard)
					cxxStandardEmitted = true
				}
			}
		case SettingUpcomingFeature:
			args = append(args, "-enable-upcoming-feature", s.Value)
		case SettingExperimentalFeature:
			args = append(args, "-enable-experimental-feature", s.Value)
		case SettingLanguageVersion:
			args = append(args, "-swift-version", s.Value)
			languageVersionSet = true
		case SettingDefaultIsolation:
			args = append(args, "-default-isolation", s.Value)
		case SettingStrictMemorySafety:
			args = append(args, "-strict-memory-safety")
		}
	}

	// 6. Language version fallback.
	if !languageVersionSet {
		args = append(args, "-swift-version", languageVersionDefault(m.ToolsVersion))
	}

	// 7. Sanitizers.
	for _, s := range params.Sanitizers {
		args = append(args, "-sanitize="+string(s))
	}

	// 8. LTO.
	if params.Linking.LTOMode != LTONone {
		args = append(args, "-lto="+string(params.Linking.LTOMode))
	}

	// 9. Index store.
	if params.IndexStoreMode == IndexStoreOn || params.IndexStoreMode == IndexStoreAuto {
		args = append(args, "-index-store-path", params.dataDir()+"/IndexStore")
	}

	// 10. Frame-pointer policy.
	if params.Debugging.OmitFramePointersSet {
		if params.Debugging.OmitFramePointers {
			args = append(args, "-Xcc", "-fomit-frame-pointer")
		} else {
			args = append(args, "-Xcc", "-fno-omit-frame-pointer")
		}
	} else if params.Configuration == triple.Debug {
		args = append(args, "-Xcc", "-fno-omit-frame-pointer")
	}

	// 11. Parse-as-library heuristic (swift-source and snippet modules with
	// exactly one source file).
	if m.Kind == ModuleSwiftSource || m.Kind == ModuleSnippet {
		if len(m.Sources) == 1 {
			parse, err := shouldParseAsLibrary(m.Sources[0], in.SourceReader)
			if err != nil {
				return nil, err
			}
			if parse {
				args = append(args, "-parse-as-library")
			}
		}
	}

	// 12. Entrypoint renaming.
	if m.EnableEntryPointRenaming && params.Driver.CanRenameEntryPoint && t.SupportsEntryPointRenaming() {
		args = append(args, "-Xfrontend", "-entry-point-function-name", "-Xfrontend", m.ID.Name+"_main")
	}

	// Plugin tool references: macro/build-tool-plugin dependencies are not
	// imported, they are invoked via a prebuilt executable path.
	for _, p := range in.PluginDeps {
		args = append(args, "-Xfrontend", "-load-plugin-executable",
			"-Xfrontend", p.ExecutablePath+"#"+p.Module.Name)
	}

	// 13. Objective-C header emission (darwin only).
	outputs := OutputPaths{
		SwiftModulePath: fmt.Sprintf("%s/Modules/%s.swiftmodule", params.dataDir(), m.ID.Name),
		InterfacePath:   fmt.Sprintf("%s/Modules/%s.swiftinterface", params.dataDir(), m.ID.Name),
	}
	if t.IsDarwin() {
		hdrPath := fmt.Sprintf("%s/%s-Swift.h", buildDir, m.ID.Name)
		args = append(args, "-emit-objc-header", "-emit-objc-header-path", hdrPath)
		outputs.ObjCHeaderPath = hdrPath
	} else {
		outputs.ModuleWrapObject = fmt.Sprintf("%s/%s.modulewrap.o", buildDir, m.ID.Name)
	}

	var objects []string
	for _, src := range m.Sources {
		base := strings.TrimSuffix(path.Base(src), path.Ext(src))
		objects = append(objects, fmt.Sprintf("%s/%s.swift.o", buildDir, base))
		outputs.DiagnosticFiles = append(outputs.DiagnosticFiles, fmt.Sprintf("%s/%s.dia", buildDir, base))
	}
	if outputs.ModuleWrapObject != "" {
		objects = append(objects, outputs.ModuleWrapObject)
	}
	outputs.Objects = objects
	outputs.OutputFileMapPath = fmt.Sprintf("%s/output-file-map.json", buildDir)

	if m.HasResources {
		outputs.ResourceAccessorSource = fmt.Sprintf("%s/resource_bundle_accessor.swift", buildDir)
	}

	return &SwiftModuleDescription{
		baseModuleDescription: baseModuleDescription{module: m, destination: in.Destination},
		compileArgs:           args,
		objects:               objects,
		outputs:               outputs,
	}, nil
}

// languageVersionDefault implements spec.md §4.2.1(6)'s tools-version
// derived default: tools-version 4 -> "4", 4.2 -> "4.2", 5 -> "5", 6.x -> "6".
func languageVersionDefault(toolsVersion string) string {
	switch {
	case strings.HasPrefix(toolsVersion, "6"):
		return "6"
	case toolsVersion == "4.2":
		return "4.2"
	case strings.HasPrefix(toolsVersion, "4"):
		return "4"
	case strings.HasPrefix(toolsVersion, "5"):
		return "5"
	default:
		return "5"
	}
}

// effectiveModuleMapPath returns dep's module map path, synthesizing the
// conventional synthesized path if the module declares public headers but
// no explicit module map (mirrors synthesizeModuleMap's path choice without
// requiring the c-family description to have been built first).
func effectiveModuleMapPath(dep *ResolvedModule, params BuildParameters) string {
	if dep.ModuleMapPath != "" {
		return dep.ModuleMapPath
	}
	if dep.PublicHeadersDir == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s.build/module.modulemap", params.dataDir(), dep.ID.Name)
}
