package planner

// OutputPaths collects the file paths a module build description may emit,
// per spec.md §4.2's "Outputs" subsections. Variants that don't produce a
// given file leave it empty.
type OutputPaths struct {
	Objects           []string
	SwiftModulePath   string
	InterfacePath     string
	DiagnosticFiles   []string
	ObjCHeaderPath    string
	ModuleWrapObject  string
	ModuleMapPath     string
	OutputFileMapPath string
	ResourceAccessorSource string
}

// ModuleBuildDescription is the capability interface every module-kind
// variant implements, per the tagged-variant design in spec.md §9: variants
// that don't participate in a capability return its zero value rather than
// requiring a type switch at every call site.
type ModuleBuildDescription interface {
	ID() ModuleID
	Destination() Destination
	Kind() ModuleKind

	// Objects lists the object files this module contributes to a link.
	// Empty for system-library and plugin modules.
	Objects() []string

	// CompileArgs is the module's full compiler command line, in the
	// deterministic composition order spec.md §4.2 mandates. Empty for
	// system-library and plugin modules, which emit no compile commands.
	CompileArgs() []string

	// SymbolGraphExtractArgs mirrors CompileArgs but with per-source and
	// diagnostic-only flags removed, per SPEC_FULL.md's supplemented
	// accessor spec.
	SymbolGraphExtractArgs() []string

	Outputs() OutputPaths

	// HasModuleMap reports whether ModuleMapPath/import flags should be
	// emitted for dependents of this module.
	HasModuleMap() bool
}

// baseModuleDescription carries the fields every variant shares.
type baseModuleDescription struct {
	module      *ResolvedModule
	destination Destination
}

func (b baseModuleDescription) ID() ModuleID            { return b.module.ID }
func (b baseModuleDescription) Destination() Destination { return b.destination }
func (b baseModuleDescription) Kind() ModuleKind        { return b.module.Kind }
