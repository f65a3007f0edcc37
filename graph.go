package planner

import "github.com/forgebuild/planner/triple"

// PackageID identifies a package by the identity the resolver assigned it
// (spec.md §3.1's "package-identity"). It is opaque to this engine beyond
// equality and the well-known identity used by the swift-corelibs-foundation
// workaround (§4.2.2).
type PackageID string

// ModuleID identifies a single resolved module: its declaring package plus
// its name within that package. Two packages may each declare a module
// named "Utils" without colliding.
type ModuleID struct {
	Package PackageID `yaml:"package" json:"package"`
	Name    string    `yaml:"name" json:"name"`
}

// ProductID identifies a single resolved product the same way ModuleID
// identifies a module.
type ProductID struct {
	Package PackageID `yaml:"package" json:"package"`
	Name    string    `yaml:"name" json:"name"`
}

// ModuleKind tags a ResolvedModule's language family. spec.md §3.1.
type ModuleKind string

const (
	ModuleSwiftSource    ModuleKind = "swift-source"
	ModuleCSource        ModuleKind = "c-source"
	ModuleSystemLibrary  ModuleKind = "system-library"
	ModuleBinaryArtifact ModuleKind = "binary-artifact"
	ModulePlugin         ModuleKind = "plugin"
	ModuleSnippet        ModuleKind = "snippet"
	ModuleTest           ModuleKind = "test"
)

// ProductKind tags a ResolvedProduct's linkage. spec.md §3.1.
type ProductKind string

const (
	ProductExecutable       ProductKind = "executable"
	ProductLibraryStatic    ProductKind = "library-static"
	ProductLibraryDynamic   ProductKind = "library-dynamic"
	ProductLibraryAutomatic ProductKind = "library-automatic"
	ProductTest             ProductKind = "test"
	ProductReplStub         ProductKind = "repl-stub"
	ProductPlugin           ProductKind = "plugin"
)

// IsLibrary reports whether the product kind is one of the three library
// linkage kinds.
func (k ProductKind) IsLibrary() bool {
	return k == ProductLibraryStatic || k == ProductLibraryDynamic || k == ProductLibraryAutomatic
}

// BuildSettingKind enumerates the declared-setting kinds spec.md §4.2.1(5)
// and §4.2.2(6) assemble into compiler/linker command lines, in manifest
// order.
type BuildSettingKind string

const (
	SettingDefine               BuildSettingKind = "define"
	SettingHeaderSearchPath     BuildSettingKind = "header-search-path"
	SettingUnsafeFlag           BuildSettingKind = "unsafe-flag"
	SettingCxxInteropMode       BuildSettingKind = "cxx-interop-mode"
	SettingUpcomingFeature      BuildSettingKind = "upcoming-feature"
	SettingExperimentalFeature  BuildSettingKind = "experimental-feature"
	SettingLanguageVersion      BuildSettingKind = "language-version"
	SettingDefaultIsolation     BuildSettingKind = "default-isolation"
	SettingStrictMemorySafety   BuildSettingKind = "strict-memory-safety"
	SettingLinkedLibrary        BuildSettingKind = "linked-library"
	SettingLinkedFramework      BuildSettingKind = "linked-framework"
	SettingUnsafeLinkerFlag     BuildSettingKind = "unsafe-linker-flag"
)

// BuildSetting is one declared manifest setting, evaluated against the
// current environment before being applied. spec.md §4.2.1(5).
type BuildSetting struct {
	Kind      BuildSettingKind `yaml:"kind" json:"kind"`
	Value     string           `yaml:"value" json:"value"`
	Condition *Condition       `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// Applies reports whether this setting applies in the given environment.
func (s BuildSetting) Applies(env triple.Environment) bool {
	return s.Condition.Satisfied(env)
}

// DependencyTargetKind tags what a DependencyEdge points at.
type DependencyTargetKind string

const (
	DependencyModule  DependencyTargetKind = "module"
	DependencyProduct DependencyTargetKind = "product"
)

// DependencyEdge is a single typed, optionally conditioned dependency from
// a module (or product) to another module or product. spec.md §3.1.
type DependencyEdge struct {
	TargetKind DependencyTargetKind `yaml:"target_kind" json:"target_kind"`
	Module     ModuleID             `yaml:"module,omitempty" json:"module,omitempty"`
	Product    ProductID            `yaml:"product,omitempty" json:"product,omitempty"`
	Condition  *Condition           `yaml:"condition,omitempty" json:"condition,omitempty"`

	// MacroOrPluginUse marks an edge that is consumed only by the compiler
	// during compilation of the depending module (a macro or build-tool
	// plugin use), which flips the destination to Host for everything
	// reachable through it. spec.md §4.4.2.
	MacroOrPluginUse bool `yaml:"macro_or_plugin_use,omitempty" json:"macro_or_plugin_use,omitempty"`

	// DynamicLibraryEdge marks that the target (when it is a product) is a
	// dynamic-library product. The link-static closure does not read this
	// field; it truncates on the target product's Kind instead.
	DynamicLibraryEdge bool `yaml:"-" json:"-"`
}

// ResolvedModule is one immutable unit of compilation from the resolved
// package graph. spec.md §3.1.
type ResolvedModule struct {
	ID   ModuleID   `yaml:"id" json:"id"`
	Kind ModuleKind `yaml:"kind" json:"kind"`

	Sources          []string `yaml:"sources,omitempty" json:"sources,omitempty"`
	IncludeDir       string   `yaml:"include_dir,omitempty" json:"include_dir,omitempty"`
	PublicHeadersDir string   `yaml:"public_headers_dir,omitempty" json:"public_headers_dir,omitempty"`
	ModuleMapPath    string   `yaml:"module_map_path,omitempty" json:"module_map_path,omitempty"`

	// PublicHeaders lists the header files already discovered under
	// PublicHeadersDir (file enumeration itself is the external loader's
	// job, same as Sources). Used for umbrella-header selection during
	// module-map synthesis. spec.md §4.2.2.
	PublicHeaders []string `yaml:"public_headers,omitempty" json:"public_headers,omitempty"`

	// HeaderIgnorePatterns excludes candidate umbrella headers the way a
	// .dockerignore excludes build-context files, e.g. "*_private.h" or
	// "Internal/**". spec.md §4.2.2's module-map synthesis.
	HeaderIgnorePatterns []string `yaml:"header_ignore_patterns,omitempty" json:"header_ignore_patterns,omitempty"`

	LanguageStandard    string `yaml:"language_standard,omitempty" json:"language_standard,omitempty"`
	CxxLanguageStandard string `yaml:"cxx_language_standard,omitempty" json:"cxx_language_standard,omitempty"`
	IsCxx               bool   `yaml:"is_cxx,omitempty" json:"is_cxx,omitempty"`

	Settings     []BuildSetting   `yaml:"settings,omitempty" json:"settings,omitempty"`
	Dependencies []DependencyEdge `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`

	SupportedPlatforms map[string]struct{} `yaml:"-" json:"-"`

	ToolsVersion        string            `yaml:"tools_version,omitempty" json:"tools_version,omitempty"`
	MinPlatformVersions map[string]string `yaml:"min_platform_versions,omitempty" json:"min_platform_versions,omitempty"`

	// BinaryArtifactDir is the pre-built artifact directory for
	// ModuleBinaryArtifact modules (info-manifest-bearing XCFramework or
	// artifacts-archive). spec.md §4.2.3.
	BinaryArtifactDir string `yaml:"binary_artifact_dir,omitempty" json:"binary_artifact_dir,omitempty"`

	// EnableEmbedded mirrors the "embedded" experimental feature, which
	// forces whole-module-optimization (§4.2.1(2)) and a link-time flag
	// (§4.3 step 15).
	EnableEmbedded bool `yaml:"enable_embedded,omitempty" json:"enable_embedded,omitempty"`

	// EnableEntryPointRenaming requests the §4.2.1(12) rename, subject to
	// driver parameters and triple support.
	EnableEntryPointRenaming bool `yaml:"enable_entry_point_renaming,omitempty" json:"enable_entry_point_renaming,omitempty"`

	// HasResources marks that a resource-bundle accessor source should be
	// synthesized for this module. spec.md §4.5 step 2.
	HasResources bool `yaml:"has_resources,omitempty" json:"has_resources,omitempty"`

	// IsRemotePackage marks a module declared by a package loaded from a
	// source-control or registry source (not root or local-path). Triggers
	// `-w` in C-family compiles. spec.md §4.2.2(10).
	IsRemotePackage bool `yaml:"is_remote_package,omitempty" json:"is_remote_package,omitempty"`

	// PkgConfigName and PkgConfigProviders are only meaningful for
	// ModuleSystemLibrary. spec.md §4.2.5.
	PkgConfigName      string   `yaml:"pkg_config_name,omitempty" json:"pkg_config_name,omitempty"`
	PkgConfigProviders []string `yaml:"pkg_config_providers,omitempty" json:"pkg_config_providers,omitempty"`
	// PkgConfigResolved is filled in by the (external) pkg-config
	// collaborator; nil means lookup failed.
	PkgConfigResolved *PkgConfigResult `yaml:"pkg_config_resolved,omitempty" json:"pkg_config_resolved,omitempty"`
}

// PkgConfigResult is the resolved include/library search paths a
// system-library module's pkg-config lookup produced.
type PkgConfigResult struct {
	IncludePaths []string `yaml:"include_paths,omitempty" json:"include_paths,omitempty"`
	LibraryPaths []string `yaml:"library_paths,omitempty" json:"library_paths,omitempty"`
	Libraries    []string `yaml:"libraries,omitempty" json:"libraries,omitempty"`
}

// SupportsPlatform reports whether the module declares support for the
// given canonical platform name. An empty declared set means "all".
func (m *ResolvedModule) SupportsPlatform(platform string) bool {
	if len(m.SupportedPlatforms) == 0 {
		return true
	}
	_, ok := m.SupportedPlatforms[platform]
	return ok
}

// IsCompiled reports whether this module kind produces compile commands and
// object files of its own (as opposed to system-library/plugin, which do
// not). spec.md §4.6's no-buildable-module check depends on this.
func (k ModuleKind) IsCompiled() bool {
	switch k {
	case ModuleSwiftSource, ModuleCSource, ModuleSnippet, ModuleTest:
		return true
	default:
		return false
	}
}

// ResolvedProduct is one immutable linkable artifact from the resolved
// package graph. spec.md §3.1.
type ResolvedProduct struct {
	ID   ProductID   `yaml:"id" json:"id"`
	Kind ProductKind `yaml:"kind" json:"kind"`

	// DeclaredModules + DerivedModules together form this product's module
	// set M(P). Derived modules are ones the resolver synthesized (e.g. a
	// default entry-point module); the engine treats both identically.
	DeclaredModules []ModuleID `yaml:"declared_modules,omitempty" json:"declared_modules,omitempty"`
	DerivedModules  []ModuleID `yaml:"derived_modules,omitempty" json:"derived_modules,omitempty"`

	MinPlatformVersions map[string]string `yaml:"min_platform_versions,omitempty" json:"min_platform_versions,omitempty"`

	// Dependencies are product-level dependency edges (e.g. a test product
	// that depends on the library product under test). Most dependencies
	// live on modules; this covers the rarer product-to-product case.
	Dependencies []DependencyEdge `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// Modules returns the product's full module set, declared then derived.
func (p *ResolvedProduct) Modules() []ModuleID {
	out := make([]ModuleID, 0, len(p.DeclaredModules)+len(p.DerivedModules))
	out = append(out, p.DeclaredModules...)
	out = append(out, p.DerivedModules...)
	return out
}

// PackageGraph is the resolved input the engine consumes: every module and
// product in the build, by identity, plus which packages are roots (i.e.
// directly requested, as opposed to pulled in transitively). spec.md §6.1.
type PackageGraph struct {
	Modules      map[ModuleID]*ResolvedModule   `yaml:"modules" json:"modules"`
	Products     map[ProductID]*ResolvedProduct `yaml:"products" json:"products"`
	RootPackages []PackageID                    `yaml:"root_packages,omitempty" json:"root_packages,omitempty"`
}

// Module looks up a module by ID, returning (nil, false) if absent.
func (g *PackageGraph) Module(id ModuleID) (*ResolvedModule, bool) {
	m, ok := g.Modules[id]
	return m, ok
}

// Product looks up a product by ID, returning (nil, false) if absent.
func (g *PackageGraph) Product(id ProductID) (*ResolvedProduct, bool) {
	p, ok := g.Products[id]
	return p, ok
}

// AllProducts returns every product in the graph, sorted by (package, name)
// for deterministic iteration order (spec.md §5's determinism guarantee).
func (g *PackageGraph) AllProducts() []*ResolvedProduct {
	out := make([]*ResolvedProduct, 0, len(g.Products))
	for _, p := range g.Products {
		out = append(out, p)
	}
	sortProducts(out)
	return out
}

// AllModules returns every module in the graph, sorted by (package, name).
func (g *PackageGraph) AllModules() []*ResolvedModule {
	out := make([]*ResolvedModule, 0, len(g.Modules))
	for _, m := range g.Modules {
		out = append(out, m)
	}
	sortModules(out)
	return out
}
