package planner

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/shlex"
	"github.com/moby/patternmatcher"

	"github.com/forgebuild/planner/internal/diagnostics"
	"github.com/forgebuild/planner/internal/traceshim"
	"github.com/forgebuild/planner/toolchain"
	"github.com/forgebuild/planner/triple"
)

// CModuleDescription is the compile description for a c-family module
// (C, C++, Objective-C, Objective-C++, or assembly sources). spec.md §4.2.2.
type CModuleDescription struct {
	baseModuleDescription
	compileArgs    []string
	objects        []string
	outputs        OutputPaths
	synthesizedMap bool
}

func (d *CModuleDescription) Objects() []string     { return d.objects }
func (d *CModuleDescription) CompileArgs() []string { return d.compileArgs }
func (d *CModuleDescription) Outputs() OutputPaths  { return d.outputs }
func (d *CModuleDescription) HasModuleMap() bool {
	return d.outputs.ModuleMapPath != "" || d.module.ModuleMapPath != ""
}
func (d *CModuleDescription) SymbolGraphExtractArgs() []string {
	return symbolGraphArgsFromCompileArgs(d.compileArgs)
}

// CBuildInput bundles everything buildCFamilyModule needs.
type CBuildInput struct {
	Graph       *PackageGraph
	Module      *ResolvedModule
	Destination Destination
	Params      BuildParameters
	CompileDeps []ModuleID // compileClosure(module, destination)
	Toolchain   toolchain.Toolchain
	Diagnostics *diagnostics.Collector

	// ToolsVersions resolves a package's declared tools-version when the
	// module itself doesn't carry one, for tools-version feature gating.
	ToolsVersions map[PackageID]string

	// Manifests resolves a binary-artifact compile dependency's variant
	// manifest, for exposing its headers path to this module.
	Manifests map[ModuleID]BinaryArtifactManifest
}

var cSourceExtensions = map[string]bool{
	".c": true, ".cpp": true, ".cc": true, ".cxx": true,
	".m": true, ".mm": true, ".s": true, ".S": true,
}

func buildCFamilyModule(ctx context.Context, in CBuildInput) (*CModuleDescription, error) {
	m, params := in.Module, in.Params
	t := params.triple()
	buildDir := fmt.Sprintf("%s/%s.build", params.dataDir(), m.ID.Name)

	var args []string

	// 1. Triple, optimization, defines, blocks.
	args = append(args, "-target", t.String())
	if params.Configuration == triple.Debug {
		args = append(args, "-O0", "-DDEBUG=1")
	} else {
		args = append(args, "-Os")
	}
	args = append(args, "-DSWIFT_PACKAGE=1", "-fblocks")

	// 2. Darwin ARC.
	if t.IsDarwin() {
		args = append(args, "-fobjc-arc")
	}

	// 3. Modules (darwin only).
	if t.IsDarwin() {
		args = append(args, "-fmodules", "-fmodule-name="+m.ID.Name, "-fmodules-cache-path="+params.moduleCachePath())
	}

	// 4. Self include path.
	if m.PublicHeadersDir != "" {
		args = append(args, "-I", m.PublicHeadersDir)
	}

	// 5. Dependency include/module-map paths.
	for _, depID := range in.CompileDeps {
		dep, ok := in.Graph.Module(depID)
		if !ok {
			continue
		}
		switch dep.Kind {
		case ModuleCSource:
			if dep.PublicHeadersDir != "" {
				args = append(args, "-I", dep.PublicHeadersDir)
			}
			if mapPath := effectiveModuleMapPath(dep, params); mapPath != "" {
				args = append(args, "-fmodule-map-file="+mapPath)
			}
		case ModuleSystemLibrary:
			if dep.ModuleMapPath != "" {
				args = append(args, "-fmodule-map-file="+dep.ModuleMapPath)
			}
			if dep.PkgConfigResolved != nil {
				includeArgs, _ := systemLibraryFlags(&SystemModuleDescription{result: dep.PkgConfigResolved})
				args = append(args, includeArgs...)
			}
		case ModuleBinaryArtifact:
			if variant, ok := selectBinaryVariant(in.Manifests[dep.ID], t); ok && variant.HeadersPath != "" {
				args = append(args, "-I", variant.HeadersPath)
			}
		}
	}

	// 6. Declared settings.
	env := params.environment()
	for _, s := range m.Settings {
		if !s.Applies(env) {
			continue
		}
		switch s.Kind {
		case SettingDefine:
			args = append(args, "-D"+s.Value)
		case SettingHeaderSearchPath:
			args = append(args, "-I", s.Value)
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
				if in.Toolchain != nil {
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
				}
				args = append(args, tok)
			}
		}
	}

	// 7. Debug info.
	if t.IsWindows() {
		args = append(args, "-gdwarf")
	} else {
		args = append(args, "-g")
	}

	// 8. Linux frame pointer default.
	if t.IsLinux() && !params.Debugging.OmitFramePointersSet {
		args = append(args, "-fno-omit-frame-pointer")
	} else if params.Debugging.OmitFramePointersSet {
		if params.Debugging.OmitFramePointers {
			args = append(args, "-fomit-frame-pointer")
		} else {
			args = append(args, "-fno-omit-frame-pointer")
		}
	}

	// 9. C++ standard.
	if m.IsCxx && m.CxxLanguageStandard != "" {
		args = append(args, "-std="+m.CxxLanguageStandard)
	}

	// 10. Remote package warning suppression.
	if m.IsRemotePackage {
		args = append(args, "-w")
	}

	// 11. swift-corelibs-foundation workaround.
	if m.ID.Package == "swift-corelibs-foundation" && !t.IsDarwin() {
		args = append(args, "-I", params.dataDir()+"/swift-resources/shims")
	}

	outputs := OutputPaths{}
	mapPath := m.ModuleMapPath
	synthesized := false
	if mapPath == "" && m.PublicHeadersDir != "" {
		mapPath = fmt.Sprintf("%s/module.modulemap", buildDir)
		synthesized = true
	}
	outputs.ModuleMapPath = mapPath

	var objects []string
	for _, src := range m.Sources {
		ext := strings.ToLower(path.Ext(src))
		if !cSourceExtensions[ext] {
			continue
		}
		base := strings.TrimSuffix(path.Base(src), path.Ext(src))
		objects = append(objects, fmt.Sprintf("%s/%s.o", buildDir, base))
	}
	outputs.Objects = objects

	if m.HasResources {
		outputs.ResourceAccessorSource = fmt.Sprintf("%s/resource_bundle_accessor.h", buildDir)
	}

	return &CModuleDescription{
		baseModuleDescription: baseModuleDescription{module: m, destination: in.Destination},
		compileArgs:           args,
		objects:                objects,
		outputs:                outputs,
		synthesizedMap:         synthesized,
	}, nil
}

// selectUmbrellaHeader picks the single top-level public header to use as a
// synthesized module's umbrella header, per spec.md §4.2.2: if, after
// dropping headers excluded by HeaderIgnorePatterns (matched the way a
// .dockerignore excludes build-context paths), exactly one header remains
// directly under PublicHeadersDir, it becomes the umbrella header; otherwise
// the umbrella directory is used and this returns "".
func selectUmbrellaHeader(m *ResolvedModule) string {
	if len(m.PublicHeaders) == 0 {
		return ""
	}

	var matcher *patternmatcher.PatternMatcher
	if len(m.HeaderIgnorePatterns) > 0 {
		pm, err := patternmatcher.New(m.HeaderIgnorePatterns)
		if err == nil {
			matcher = pm
		}
	}

	var topLevel []string
	for _, h := range m.PublicHeaders {
		rel := strings.TrimPrefix(h, strings.TrimSuffix(m.PublicHeadersDir, "/")+"/")
		if strings.Contains(rel, "/") {
			continue
		}
		if matcher != nil {
			if ignored, err := matcher.MatchesOrParentMatches(rel); err == nil && ignored {
				continue
			}
		}
		topLevel = append(topLevel, h)
	}

	if len(topLevel) != 1 {
		return ""
	}
	return topLevel[0]
}

// synthesizeModuleMap returns the modulemap file contents for a module that
// declares public headers but provides no module map, per spec.md §4.2.2's
// "Module-map synthesis": a single top-level module wrapping the umbrella
// header (if there is exactly one header at the top of the public headers
// directory) or the umbrella directory otherwise.
func synthesizeModuleMap(m *ResolvedModule, umbrellaHeader string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s {\n", m.ID.Name)
	if umbrellaHeader != "" {
		fmt.Fprintf(&b, "    umbrella header %q\n", umbrellaHeader)
	} else {
		fmt.Fprintf(&b, "    umbrella %q\n", m.PublicHeadersDir)
	}
	b.WriteString("    export *\n")
	if m.IsCxx {
		b.WriteString("    requires cplusplus\n")
	}
	b.WriteString("}\n")
	return b.String()
}
