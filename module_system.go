package planner

import (
	"fmt"

	"github.com/forgebuild/planner/internal/diagnostics"
)

// fallbackPkgConfigProvider is suggested when a system-library module
// declares no PkgConfigProviders of its own.
const fallbackPkgConfigProvider = "brew"

// SystemModuleDescription is the compile description for a system-library
// module: it contributes no compile commands or object files, only a module
// map reference and (when pkg-config resolution succeeded) include/library
// search paths for its dependents. spec.md §4.2.5.
type SystemModuleDescription struct {
	baseModuleDescription
	outputs OutputPaths
	result  *PkgConfigResult
}

func (d *SystemModuleDescription) Objects() []string               { return nil }
func (d *SystemModuleDescription) CompileArgs() []string           { return nil }
func (d *SystemModuleDescription) SymbolGraphExtractArgs() []string { return nil }
func (d *SystemModuleDescription) Outputs() OutputPaths             { return d.outputs }
func (d *SystemModuleDescription) HasModuleMap() bool               { return d.module.ModuleMapPath != "" }
func (d *SystemModuleDescription) PkgConfigResult() *PkgConfigResult { return d.result }

// buildSystemLibraryModule records a system-library module's module map and
// pkg-config-derived search paths. If the module declares a pkg-config name
// but PkgConfigResolved is nil (lookup failed upstream), a warning is
// recorded on diags naming the module's first declared provider (or
// fallbackPkgConfigProvider when none is declared), and the
// build proceeds without include/library flags: spec.md §4.2.5 treats a
// failed pkg-config lookup as non-fatal, falling back to whatever headers
// the module map alone can locate.
func buildSystemLibraryModule(m *ResolvedModule, destination Destination, diags *diagnostics.Collector) (*SystemModuleDescription, error) {
	if m.ModuleMapPath == "" {
		return nil, fmt.Errorf("system library module %s/%s declares no module map", m.ID.Package, m.ID.Name)
	}

	desc := &SystemModuleDescription{
		baseModuleDescription: baseModuleDescription{module: m, destination: destination},
		outputs:               OutputPaths{ModuleMapPath: m.ModuleMapPath},
	}

	if m.PkgConfigName == "" {
		return desc, nil
	}

	if m.PkgConfigResolved == nil {
		if diags != nil {
			provider := fallbackPkgConfigProvider
			if len(m.PkgConfigProviders) > 0 {
				provider = m.PkgConfigProviders[0]
			}
			diags.Warn(diagnostics.PkgConfigMissing, fmt.Sprintf(
				"pkg-config lookup for %q failed; install it via %s, or continue without the declared dependency",
				m.PkgConfigName, provider,
			), map[string]string{
				"module":  string(m.ID.Name),
				"package": string(m.ID.Package),
			})
		}
		return desc, nil
	}

	desc.result = m.PkgConfigResolved
	return desc, nil
}

// systemLibraryFlags derives the -I/-L/-l flags a dependent's compile/link
// command should add for a resolved system-library module.
func systemLibraryFlags(d *SystemModuleDescription) (includeArgs, libArgs []string) {
	if d.result == nil {
		return nil, nil
	}
	for _, p := range d.result.IncludePaths {
		includeArgs = append(includeArgs, "-I", p)
	}
	for _, p := range d.result.LibraryPaths {
		libArgs = append(libArgs, "-L", p)
	}
	for _, lib := range d.result.Libraries {
		libArgs = append(libArgs, "-l"+lib)
	}
	return includeArgs, libArgs
}
