package planner

import (
	"sort"

	"github.com/forgebuild/planner/triple"
)

// Environments pairs each destination with the (platform, configuration)
// pair dependency conditions are evaluated against. spec.md §4.1.
type Environments map[Destination]triple.Environment

// vertex identifies one node of the destination-scoped dependency graph used
// for cycle detection: either a module or a product, planned for a specific
// destination. spec.md §4.4.3 requires the graph be acyclic *within* a
// destination; a module/product pair that legitimately appears at both
// destinations is two distinct vertices, never a cycle by itself.
type vertex struct {
	isProduct   bool
	module      ModuleID
	product     ProductID
	destination Destination
}

func moduleVertex(id ModuleID, d Destination) vertex  { return vertex{module: id, destination: d} }
func productVertex(id ProductID, d Destination) vertex {
	return vertex{isProduct: true, product: id, destination: d}
}

// buildDependencyGraph constructs the full vertex/edge graph (module and
// product vertices, every dependency edge including macro/plugin edges)
// used for cycle detection; the closure walks traverse the PackageGraph
// directly rather than this map. Edges failing condition evaluation are
// omitted entirely, per
// spec.md §4.1's "filtering is the only mechanism that makes a dependency
// not exist in the plan."
func buildDependencyGraph(g *PackageGraph, envs Environments) map[vertex][]vertex {
	adj := make(map[vertex][]vertex)

	addEdge := func(from, to vertex) {
		adj[from] = append(adj[from], to)
	}

	for _, m := range g.AllModules() {
		for _, d := range []Destination{Target, Host} {
			from := moduleVertex(m.ID, d)
			env := envs[d]
			for _, e := range m.Dependencies {
				if !e.Condition.Satisfied(env) {
					continue
				}
				to := d
				if e.MacroOrPluginUse {
					to = d.Flip()
				}
				switch e.TargetKind {
				case DependencyModule:
					addEdge(from, moduleVertex(e.Module, to))
				case DependencyProduct:
					addEdge(from, productVertex(e.Product, to))
				}
			}
		}
	}

	for _, p := range g.AllProducts() {
		for _, d := range []Destination{Target, Host} {
			from := productVertex(p.ID, d)
			for _, m := range p.Modules() {
				addEdge(from, moduleVertex(m, d))
			}
			env := envs[d]
			for _, e := range p.Dependencies {
				if !e.Condition.Satisfied(env) {
					continue
				}
				to := d
				if e.MacroOrPluginUse {
					to = d.Flip()
				}
				switch e.TargetKind {
				case DependencyModule:
					addEdge(from, moduleVertex(e.Module, to))
				case DependencyProduct:
					addEdge(from, productVertex(e.Product, to))
				}
			}
		}
	}

	return adj
}

// detectCycles runs Tarjan's strongly-connected-components algorithm over
// the dependency graph and returns an error for the first nontrivial SCC
// (or self-loop) found, the same cycle-is-fatal rule
// github.com/Azure/dalec's graph.go applies to package-level dependencies,
// adapted here to the engine's module/product/destination vertex space.
func detectCycles(adj map[vertex][]vertex) error {
	index := 0
	indices := make(map[vertex]int)
	lowlink := make(map[vertex]int)
	onStack := make(map[vertex]bool)
	var stack []vertex

	var found *CycleDetectedError

	var strongConnect func(v vertex)
	strongConnect = func(v vertex) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, ok := indices[w]; !ok {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
			if found != nil {
				return
			}
		}

		if lowlink[v] == indices[v] {
			var component []vertex
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}

			selfLoop := len(component) == 1 && containsEdge(adj, component[0], component[0])
			if len(component) > 1 || selfLoop {
				found = &CycleDetectedError{Destination: v.destination, Cycle: vertexNames(component)}
			}
		}
	}

	// Sort vertices for deterministic traversal order (spec.md §5).
	verts := make([]vertex, 0, len(adj))
	for v := range adj {
		verts = append(verts, v)
	}
	sort.Slice(verts, func(i, j int) bool { return vertexKey(verts[i]) < vertexKey(verts[j]) })

	for _, v := range verts {
		if _, ok := indices[v]; ok {
			continue
		}
		strongConnect(v)
		if found != nil {
			return found
		}
	}
	return nil
}

func containsEdge(adj map[vertex][]vertex, from, to vertex) bool {
	for _, w := range adj[from] {
		if w == to {
			return true
		}
	}
	return false
}

func vertexKey(v vertex) string {
	if v.isProduct {
		return "p:" + string(v.destination) + ":" + string(v.product.Package) + "/" + v.product.Name
	}
	return "m:" + string(v.destination) + ":" + string(v.module.Package) + "/" + v.module.Name
}

func vertexNames(vs []vertex) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = vertexKey(v)
	}
	return out
}

// compileClosure computes the set of (module, destination) pairs whose
// interfaces the root module's compiler invocation must see: every module
// transitively reachable via non-macro edges, including (for spec.md §4.4's
// "dynamic-library products do NOT truncate") modules reached through any
// product dependency regardless of that product's linkage kind.
func compileClosure(g *PackageGraph, root ModuleID, destination Destination, envs Environments) []ModuleID {
	seen := map[ModuleID]bool{}
	var order []ModuleID

	var visitModule func(id ModuleID)
	var visitProduct func(id ProductID)

	visitModule = func(id ModuleID) {
		if seen[id] {
			return
		}
		seen[id] = true
		order = append(order, id)

		m, ok := g.Module(id)
		if !ok {
			return
		}
		env := envs[destination]
		for _, e := range m.Dependencies {
			if e.MacroOrPluginUse {
				continue // compile-time tool invocation, not an interface dependency
			}
			if !e.Condition.Satisfied(env) {
				continue
			}
			switch e.TargetKind {
			case DependencyModule:
				visitModule(e.Module)
			case DependencyProduct:
				visitProduct(e.Product)
			}
		}
	}

	visitProduct = func(id ProductID) {
		p, ok := g.Product(id)
		if !ok {
			return
		}
		for _, m := range p.Modules() {
			visitModule(m)
		}
	}

	rootModule, ok := g.Module(root)
	if !ok {
		return nil
	}
	// The root's own module is excluded from its dependency closure; we
	// start the walk from its dependencies, not the root itself.
	env := envs[destination]
	for _, e := range rootModule.Dependencies {
		if e.MacroOrPluginUse {
			continue
		}
		if !e.Condition.Satisfied(env) {
			continue
		}
		switch e.TargetKind {
		case DependencyModule:
			visitModule(e.Module)
		case DependencyProduct:
			visitProduct(e.Product)
		}
	}

	return order
}

// macroToolDependencies returns the modules root depends on via a
// macro/plugin-use edge that is satisfied in the given destination's
// environment. Each is planned as its own Host-destination root by the plan
// assembler (spec.md §4.2.4, §4.4.2).
func macroToolDependencies(g *PackageGraph, root ModuleID, destination Destination, envs Environments) []ModuleID {
	m, ok := g.Module(root)
	if !ok {
		return nil
	}
	env := envs[destination]
	var out []ModuleID
	for _, e := range m.Dependencies {
		if !e.MacroOrPluginUse || e.TargetKind != DependencyModule {
			continue
		}
		if !e.Condition.Satisfied(env) {
			continue
		}
		out = append(out, e.Module)
	}
	return out
}

// linkStaticClosure computes the link inputs for product root at the given
// destination: the transitive set of modules whose objects must be linked
// (following only non-dynamic-library edges), and the set of dynamic
// library products the link command must reference instead. spec.md §4.3
// "Selection of link inputs" and §4.4's link-closure variant.
func linkStaticClosure(g *PackageGraph, root ProductID, destination Destination, envs Environments) (objectModules []ModuleID, dylibs []ProductID) {
	seenModules := map[ModuleID]bool{}
	seenProducts := map[ProductID]bool{}
	var dylibOrder []ProductID

	var visitModule func(id ModuleID)
	var visitProduct func(id ProductID)

	visitModule = func(id ModuleID) {
		if seenModules[id] {
			return
		}
		seenModules[id] = true
		objectModules = append(objectModules, id)

		m, ok := g.Module(id)
		if !ok {
			return
		}
		env := envs[destination]
		for _, e := range m.Dependencies {
			if e.MacroOrPluginUse {
				continue
			}
			if !e.Condition.Satisfied(env) {
				continue
			}
			switch e.TargetKind {
			case DependencyModule:
				visitModule(e.Module)
			case DependencyProduct:
				visitProduct(e.Product)
			}
		}
	}

	visitProduct = func(id ProductID) {
		if seenProducts[id] {
			return
		}
		seenProducts[id] = true

		p, ok := g.Product(id)
		if !ok {
			return
		}
		if p.Kind == ProductLibraryDynamic {
			if id != root {
				dylibOrder = append(dylibOrder, id)
			}
			// Truncate: a dynamic dependency's objects are never merged in,
			// but a dylib may itself depend on further dylibs, which still
			// need to appear on the link line.
			env := envs[destination]
			for _, e := range p.Dependencies {
				if e.MacroOrPluginUse || e.TargetKind != DependencyProduct {
					continue
				}
				if !e.Condition.Satisfied(env) {
					continue
				}
				visitProduct(e.Product)
			}
			return
		}
		for _, m := range p.Modules() {
			visitModule(m)
		}
		env := envs[destination]
		for _, e := range p.Dependencies {
			if e.MacroOrPluginUse {
				continue
			}
			if !e.Condition.Satisfied(env) {
				continue
			}
			switch e.TargetKind {
			case DependencyModule:
				visitModule(e.Module)
			case DependencyProduct:
				visitProduct(e.Product)
			}
		}
	}

	rootProduct, ok := g.Product(root)
	if !ok {
		return nil, nil
	}
	for _, m := range rootProduct.Modules() {
		visitModule(m)
	}
	env := envs[destination]
	for _, e := range rootProduct.Dependencies {
		if e.MacroOrPluginUse {
			continue
		}
		if !e.Condition.Satisfied(env) {
			continue
		}
		switch e.TargetKind {
		case DependencyModule:
			visitModule(e.Module)
		case DependencyProduct:
			visitProduct(e.Product)
		}
	}

	return objectModules, dylibOrder
}

// dynamicLibraryClosure returns the dynamic-library products that
// linkStaticClosure collects for root, excluding root itself. It shares that
// walk's truncation: past a dynamic-library product only the product's own
// product-level dependency edges are followed, so a dynamic library reached
// solely through the dependencies of a dynamic library's modules is not
// included.
func dynamicLibraryClosure(g *PackageGraph, root ProductID, destination Destination, envs Environments) []ProductID {
	_, dylibs := linkStaticClosure(g, root, destination, envs)
	return dylibs
}
