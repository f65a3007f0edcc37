package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/moby/buildkit/identity"

	"github.com/forgebuild/planner/internal/buildfs"
	"github.com/forgebuild/planner/internal/diagnostics"
	"github.com/forgebuild/planner/toolchain"
	"github.com/forgebuild/planner/triple"
)

// moduleKey and productKey give the plan's maps a (id, destination) key,
// per spec.md §9's "cross-destination duplication" design note.
type moduleKey struct {
	id ModuleID
	d  Destination
}

type productKey struct {
	id ProductID
	d  Destination
}

// BuildPlan is the assembled result of planning a package graph against a
// pair of BuildParameters. spec.md §4.5/§6.2.
type BuildPlan struct {
	modules  map[moduleKey]ModuleBuildDescription
	products map[productKey]*ProductBuildDescription

	graph *PackageGraph
	envs  Environments
	params map[Destination]BuildParameters

	Diagnostics *diagnostics.Collector
}

// AssembleInput bundles everything Assemble needs.
type AssembleInput struct {
	Graph         *PackageGraph
	TargetParams  BuildParameters
	HostParams    BuildParameters
	Toolchain     toolchain.Toolchain
	FS            buildfs.FS
	SourceReader  func(path string) ([]byte, error)
	Manifests     map[ModuleID]BinaryArtifactManifest
	PluginCommands map[ModuleID][]PluginBuildCommand
	ToolsVersions map[PackageID]string
}

// Assemble runs the Build Plan Assembler's five strictly-ordered steps.
// spec.md §4.5.
func Assemble(ctx context.Context, in AssembleInput) (*BuildPlan, error) {
	if in.Graph == nil {
		return nil, fmt.Errorf("assemble: nil package graph")
	}
	diags := diagnostics.NewCollector(nil)
	// assemblyID correlates every diagnostic/log line emitted by one Assemble
	// call, the way the teacher tags a buildkit solve with a progress-group
	// ID. It never enters the plan's contents, so it has no bearing on
	// spec.md §5's determinism guarantee.
	assemblyID := identity.NewID()
	diags.WithField("assembly_id", assemblyID).Debug("assembling build plan")

	envs := Environments{
		Target: triple.FromTriple(in.TargetParams.triple(), in.TargetParams.Configuration),
		Host:   triple.FromTriple(in.HostParams.triple(), in.HostParams.Configuration),
	}
	params := map[Destination]BuildParameters{Target: in.TargetParams, Host: in.HostParams}

	// Step 0: reject cyclic graphs before any closure walk, per spec.md §9
	// ("do NOT attempt to build plans for cyclic graphs").
	adj := buildDependencyGraph(in.Graph, envs)
	if err := detectCycles(adj); err != nil {
		return nil, err
	}

	// Step 1: compute the reachable (module, destination) and
	// (product, destination) sets from all root packages and all products.
	reachableModules, reachableProducts := reachableSets(in.Graph, envs)

	// Step 2: build module descriptions for that set.
	moduleDescs := map[moduleKey]ModuleBuildDescription{}
	for _, mk := range reachableModules {
		m, ok := in.Graph.Module(mk.id)
		if !ok {
			continue
		}
		desc, err := buildModuleDescription(ctx, in, m, mk.d, envs, diags)
		if err != nil {
			return nil, err
		}
		if desc != nil {
			moduleDescs[mk] = desc
		}
	}

	if err := writeSynthesizedModuleMaps(ctx, in.FS, in.Graph, moduleDescs); err != nil {
		return nil, err
	}
	if err := writeResourceAccessors(ctx, in.FS, in.Graph, moduleDescs); err != nil {
		return nil, err
	}

	// Step 3: build product descriptions for that set.
	productDescs := map[productKey]*ProductBuildDescription{}
	for _, pk := range reachableProducts {
		p, ok := in.Graph.Product(pk.id)
		if !ok {
			continue
		}
		desc, err := buildProductDescription(ctx, ProductBuildInput{
			Graph:       in.Graph,
			Product:     p,
			Destination: pk.d,
			Params:      params[pk.d],
			Envs:        envs,
			ModuleDescs: moduleDescsForDestination(moduleDescs, pk.d),
			Toolchain:   in.Toolchain,
		})
		if err != nil {
			return nil, err
		}
		productDescs[pk] = desc
		if err := writeLinkFileList(ctx, in.FS, desc); err != nil {
			return nil, err
		}
	}

	// Step 4: synthesize test-discovery and test-entry-point artifacts.
	if err := synthesizeTestArtifacts(ctx, in, envs, moduleDescs, productDescs, diags); err != nil {
		return nil, err
	}

	// Step 5: validate.
	if err := validate(in.Graph, envs, diags); err != nil {
		return nil, err
	}

	return &BuildPlan{
		modules:     moduleDescs,
		products:    productDescs,
		graph:       in.Graph,
		envs:        envs,
		params:      params,
		Diagnostics: diags,
	}, nil
}

func moduleDescsForDestination(all map[moduleKey]ModuleBuildDescription, d Destination) map[ModuleID]ModuleBuildDescription {
	out := map[ModuleID]ModuleBuildDescription{}
	for k, v := range all {
		if k.d == d {
			out[k.id] = v
		}
	}
	return out
}

// reachableSets walks every product in the graph at both destinations,
// computing the reachable (id, destination) pairs via the compile and
// link-static closures. Modules of root packages that belong to no product
// are not visited.
func reachableSets(g *PackageGraph, envs Environments) ([]moduleKey, []productKey) {
	moduleSeen := map[moduleKey]bool{}
	productSeen := map[productKey]bool{}

	addModule := func(id ModuleID, d Destination) {
		k := moduleKey{id, d}
		if !moduleSeen[k] {
			moduleSeen[k] = true
		}
	}
	addProduct := func(id ProductID, d Destination) {
		k := productKey{id, d}
		if !productSeen[k] {
			productSeen[k] = true
		}
	}

	for _, p := range g.AllProducts() {
		for _, d := range []Destination{Target, Host} {
			addProduct(p.ID, d)
			for _, m := range p.Modules() {
				addModule(m, d)
			}
			objs, dylibs := linkStaticClosure(g, p.ID, d, envs)
			for _, m := range objs {
				addModule(m, d)
			}
			for _, dy := range dylibs {
				addProduct(dy, d)
			}
			for _, m := range p.Modules() {
				for _, cm := range compileClosure(g, m, d, envs) {
					addModule(cm, d)
				}
				for _, macroMod := range macroToolDependencies(g, m, d, envs) {
					hostDest := d.Flip()
					addModule(macroMod, hostDest)
					for _, cm := range compileClosure(g, macroMod, hostDest, envs) {
						addModule(cm, hostDest)
					}
					for _, mm := range macroToolDependencies(g, macroMod, hostDest, envs) {
						addModule(mm, hostDest)
					}
				}
			}
		}
	}

	moduleList := make([]moduleKey, 0, len(moduleSeen))
	for k := range moduleSeen {
		moduleList = append(moduleList, k)
	}
	sortModuleKeys(moduleList)

	productList := make([]productKey, 0, len(productSeen))
	for k := range productSeen {
		productList = append(productList, k)
	}
	sortProductKeys(productList)

	return moduleList, productList
}

func sortModuleKeys(in []moduleKey) {
	sortSliceStable(len(in), func(i, j int) bool {
		if in[i].id.Package != in[j].id.Package {
			return in[i].id.Package < in[j].id.Package
		}
		if in[i].id.Name != in[j].id.Name {
			return in[i].id.Name < in[j].id.Name
		}
		return in[i].d < in[j].d
	}, func(i, j int) { in[i], in[j] = in[j], in[i] })
}

func sortProductKeys(in []productKey) {
	sortSliceStable(len(in), func(i, j int) bool {
		if in[i].id.Package != in[j].id.Package {
			return in[i].id.Package < in[j].id.Package
		}
		if in[i].id.Name != in[j].id.Name {
			return in[i].id.Name < in[j].id.Name
		}
		return in[i].d < in[j].d
	}, func(i, j int) { in[i], in[j] = in[j], in[i] })
}

// sortSliceStable is a tiny insertion sort shared by the two key-sorters
// above and by synthesizeTestArtifacts' package sort; the slices involved
// are small (module/product/package counts per package graph), so pulling
// in sort.Slice's reflection-based comparator for these call sites is not
// worth it.
func sortSliceStable(n int, less func(i, j int) bool, swap func(i, j int)) {
	for i := 1; i < n; i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			swap(j, j-1)
		}
	}
}

func buildModuleDescription(ctx context.Context, in AssembleInput, m *ResolvedModule, d Destination, envs Environments, diags *diagnostics.Collector) (ModuleBuildDescription, error) {
	params := in.HostParams
	if d == Target {
		params = in.TargetParams
	}

	switch m.Kind {
	case ModuleSwiftSource, ModuleSnippet, ModuleTest:
		return buildSwiftModule(ctx, SwiftBuildInput{
			Graph:        in.Graph,
			Module:       m,
			Destination:  d,
			Params:       params,
			CompileDeps:  compileClosure(in.Graph, m.ID, d, envs),
			PluginDeps:   resolvePluginDeps(in.Graph, m, d, envs, params, in.HostParams),
			Toolchain:     in.Toolchain,
			Diagnostics:   diags,
			SourceReader:  in.SourceReader,
			ToolsVersions: in.ToolsVersions,
			Manifests:     in.Manifests,
		})
	case ModuleCSource:
		return buildCFamilyModule(ctx, CBuildInput{
			Graph:         in.Graph,
			Module:        m,
			Destination:   d,
			Params:        params,
			CompileDeps:   compileClosure(in.Graph, m.ID, d, envs),
			Toolchain:     in.Toolchain,
			Diagnostics:   diags,
			ToolsVersions: in.ToolsVersions,
			Manifests:     in.Manifests,
		})
	case ModuleSystemLibrary:
		return buildSystemLibraryModule(m, d, diags)
	case ModuleBinaryArtifact:
		manifest := in.Manifests[m.ID]
		return buildBinaryArtifactModule(m, d, params.triple(), manifest)
	case ModulePlugin:
		return buildPluginModule(m, d, in.PluginCommands[m.ID])
	default:
		return nil, fmt.Errorf("assemble: module %s/%s has unknown kind %q", m.ID.Package, m.ID.Name, m.Kind)
	}
}

func resolvePluginDeps(g *PackageGraph, m *ResolvedModule, d Destination, envs Environments, params, hostParams BuildParameters) []*hostPluginPlan {
	var out []*hostPluginPlan
	for _, macroMod := range macroToolDependencies(g, m.ID, d, envs) {
		mm, ok := g.Module(macroMod)
		if !ok {
			continue
		}
		out = append(out, &hostPluginPlan{
			Module:         macroMod,
			ExecutablePath: fmt.Sprintf("%s/%s", hostParams.dataDir(), mm.ID.Name),
		})
	}
	return out
}

func writeSynthesizedModuleMaps(ctx context.Context, fs buildfs.FS, g *PackageGraph, descs map[moduleKey]ModuleBuildDescription) error {
	for k, desc := range descs {
		cdesc, ok := desc.(*CModuleDescription)
		if !ok || !cdesc.synthesizedMap {
			continue
		}
		m, ok := g.Module(k.id)
		if !ok {
			continue
		}
		content := synthesizeModuleMap(m, selectUmbrellaHeader(m))
		if _, err := buildfs.WriteIfChanged(ctx, fs, cdesc.outputs.ModuleMapPath, []byte(content)); err != nil {
			return err
		}
	}
	return nil
}

func writeResourceAccessors(ctx context.Context, fs buildfs.FS, g *PackageGraph, descs map[moduleKey]ModuleBuildDescription) error {
	for k, desc := range descs {
		m, ok := g.Module(k.id)
		if !ok || !m.HasResources {
			continue
		}
		path := desc.Outputs().ResourceAccessorSource
		if path == "" {
			continue
		}
		var content string
		if strings.HasSuffix(path, ".swift") {
			content = "import Foundation\n\nextension Bundle {\n    static let module: Bundle = {\n        .main\n    }()\n}\n"
		} else {
			content = fmt.Sprintf("#define %s_RESOURCE_BUNDLE \"%s.bundle\"\n", strings.ToUpper(m.ID.Name), m.ID.Name)
		}
		if _, err := buildfs.WriteIfChanged(ctx, fs, path, []byte(content)); err != nil {
			return err
		}
	}
	return nil
}

func writeLinkFileList(ctx context.Context, fs buildfs.FS, desc *ProductBuildDescription) error {
	if desc.Kind() == ProductLibraryStatic {
		return nil
	}
	content := strings.Join(desc.Objects(), "\n")
	if content != "" {
		content += "\n"
	}
	_, err := buildfs.WriteIfChanged(ctx, fs, desc.LinkFileListPath(), []byte(content))
	return err
}

// ModuleDescription looks up the build description for a module planned at
// the given destination, or (nil, false) if it is not part of the plan.
func (p *BuildPlan) ModuleDescription(id ModuleID, d Destination) (ModuleBuildDescription, bool) {
	desc, ok := p.modules[moduleKey{id, d}]
	return desc, ok
}

// ProductDescription looks up the build description for a product planned
// at the given destination, or (nil, false) if it is not part of the plan.
func (p *BuildPlan) ProductDescription(id ProductID, d Destination) (*ProductBuildDescription, bool) {
	desc, ok := p.products[productKey{id, d}]
	return desc, ok
}

// CompileArguments returns the module's compile command line, per spec.md
// §6.2's compile_arguments(module) accessor.
func (p *BuildPlan) CompileArguments(id ModuleID, d Destination) []string {
	desc, ok := p.ModuleDescription(id, d)
	if !ok {
		return nil
	}
	return desc.CompileArgs()
}

// SymbolGraphExtractArguments returns the module's symbol-graph-extraction
// command line, per spec.md §6.2.
func (p *BuildPlan) SymbolGraphExtractArguments(id ModuleID, d Destination) []string {
	desc, ok := p.ModuleDescription(id, d)
	if !ok {
		return nil
	}
	return desc.SymbolGraphExtractArgs()
}

// LinkArguments returns the product's link command line, per spec.md §6.2's
// link_arguments(product) accessor.
func (p *BuildPlan) LinkArguments(id ProductID, d Destination) []string {
	desc, ok := p.ProductDescription(id, d)
	if !ok {
		return nil
	}
	return desc.LinkArgs()
}

// Objects returns the product's object file list, per spec.md §6.2's
// objects(product) accessor.
func (p *BuildPlan) Objects(id ProductID, d Destination) []string {
	desc, ok := p.ProductDescription(id, d)
	if !ok {
		return nil
	}
	return desc.Objects()
}

// CreateREPLArguments assembles a flat -I/-L/-l/repl argument list suitable
// for launching an interactive session against every module reachable at
// the Target destination, per SPEC_FULL.md's supplemented accessor spec.
func (p *BuildPlan) CreateREPLArguments() []string {
	keys := make([]moduleKey, 0, len(p.modules))
	for k := range p.modules {
		if k.d == Target {
			keys = append(keys, k)
		}
	}
	sortModuleKeys(keys)

	var args []string
	for _, k := range keys {
		if out := p.modules[k].Outputs(); out.SwiftModulePath != "" {
			args = append(args, "-I", strings.TrimSuffix(out.SwiftModulePath, "/"+k.id.Name+".swiftmodule"))
		}
	}
	args = append(args, "-L", p.params[Target].dataDir())
	for _, k := range keys {
		if cdesc, ok := p.modules[k].(*CModuleDescription); ok && len(cdesc.objects) > 0 {
			args = append(args, "-l"+k.id.Name)
		}
	}
	args = dedupStrings(args)
	args = append(args, "repl")
	return args
}
