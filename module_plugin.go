package planner

import "fmt"

// PluginBuildDescription is the compile description for a plugin module.
// Plugins are planned only at the Host destination (spec.md §4.2.4): they
// emit no compile commands, only a record of the commands the executor must
// run to produce the plugin's own executable, which the consuming module's
// description then references by path (module_swift.go's PluginDeps).
type PluginBuildDescription struct {
	baseModuleDescription
	buildCommands []PluginBuildCommand
	outputs       OutputPaths
}

// PluginBuildCommand is one shell invocation the build-tool plugin declares
// it needs run before the consuming module compiles (its Package.swift-style
// "createBuildToolCommand" output, already evaluated and made concrete by
// the resolver upstream of this engine). spec.md §4.2.4.
type PluginBuildCommand struct {
	DisplayName  string
	Executable   string
	Arguments    []string
	InputPaths   []string
	OutputPaths  []string
}

func (d *PluginBuildDescription) Objects() []string               { return nil }
func (d *PluginBuildDescription) CompileArgs() []string           { return nil }
func (d *PluginBuildDescription) SymbolGraphExtractArgs() []string { return nil }
func (d *PluginBuildDescription) Outputs() OutputPaths             { return d.outputs }
func (d *PluginBuildDescription) HasModuleMap() bool               { return false }
func (d *PluginBuildDescription) BuildCommands() []PluginBuildCommand { return d.buildCommands }

// buildPluginModule records a plugin's declared build commands for the
// executor. destination is asserted to be Host: a plugin module reached via
// a Target-destination edge is a planner bug upstream of this function, per
// spec.md §4.2.4's "plugins execute on the host, never the target."
func buildPluginModule(m *ResolvedModule, destination Destination, commands []PluginBuildCommand) (*PluginBuildDescription, error) {
	if destination != Host {
		return nil, fmt.Errorf("plugin module %s/%s planned for non-host destination %s", m.ID.Package, m.ID.Name, destination)
	}
	return &PluginBuildDescription{
		baseModuleDescription: baseModuleDescription{module: m, destination: destination},
		buildCommands:         commands,
	}, nil
}
