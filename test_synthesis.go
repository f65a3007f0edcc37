package planner

import (
	"context"
	"fmt"

	"github.com/forgebuild/planner/internal/buildfs"
	"github.com/forgebuild/planner/internal/diagnostics"
	"github.com/forgebuild/planner/triple"
)

// TestDiscoverySpec describes the synthesized test-discovery module for one
// package: a generated swift source (see generateTestDiscoverySource),
// compiled like any other swift-source module. Synthesized only on non-darwin
// platforms, where there is no Objective-C runtime to enumerate test classes
// at load time. spec.md §4.3.2(1).
type TestDiscoverySpec struct {
	Module         ModuleID
	GeneratedSource string
	TestModules    []ModuleID
}

// TestEntryPointSpec describes the synthesized `<Package>PackageTests`
// product: an executable on non-darwin platforms, a bundle on darwin.
// spec.md §4.3.2(2).
type TestEntryPointSpec struct {
	Product      ProductID
	Kind         ProductKind
	TestModules  []ModuleID
	DiscoveryModule *ModuleID
}

// synthesizeTestDiscovery produces the discovery module descriptor for a
// package's test modules, or nil on darwin where none is needed.
func synthesizeTestDiscovery(pkg PackageID, testModules []ModuleID, t triple.Triple) *TestDiscoverySpec {
	if t.IsDarwin() || len(testModules) == 0 {
		return nil
	}
	return &TestDiscoverySpec{
		Module:          ModuleID{Package: pkg, Name: fmt.Sprintf("%s_TestDiscovery", pkg)},
		GeneratedSource: generateTestDiscoverySource(pkg, testModules),
		TestModules:     testModules,
	}
}

// generateTestDiscoverySource produces the synthesized swift source for the
// discovery module: it imports XCTest and each test module with @testable,
// and defines __allTests() returning an empty list. No XCTestCase types or
// test methods are enumerated into that list.
func generateTestDiscoverySource(pkg PackageID, testModules []ModuleID) string {
	src := "import XCTest\n\n"
	for _, m := range testModules {
		src += fmt.Sprintf("@testable import %s\n", m.Name)
	}
	src += "\nfunc __allTests() -> [XCTestCaseEntry] {\n    return []\n}\n"
	return src
}

// synthesizeTestEntryPoint produces the `<Package>PackageTests` product
// descriptor: an executable on non-darwin, a bundle on darwin (the Kind
// distinction is plumbed through ProductKind.ProductTest, which
// product_desc.go already renders per-platform in its "kind-specific flags"
// step).
func synthesizeTestEntryPoint(pkg PackageID, testModules []ModuleID, discovery *TestDiscoverySpec) *TestEntryPointSpec {
	spec := &TestEntryPointSpec{
		Product:     ProductID{Package: pkg, Name: fmt.Sprintf("%sPackageTests", pkg)},
		Kind:        ProductTest,
		TestModules: testModules,
	}
	if discovery != nil {
		m := discovery.Module
		spec.DiscoveryModule = &m
	}
	return spec
}

// testEntryPointProduct materializes spec into a ResolvedProduct the rest of
// the engine (closure resolution, product description building) can treat
// like any other product in the graph.
func testEntryPointProduct(spec *TestEntryPointSpec) *ResolvedProduct {
	modules := append([]ModuleID{}, spec.TestModules...)
	if spec.DiscoveryModule != nil {
		modules = append(modules, *spec.DiscoveryModule)
	}
	return &ResolvedProduct{
		ID:             spec.Product,
		Kind:           spec.Kind,
		DerivedModules: modules,
	}
}

// synthesizeTestArtifacts implements plan.go step 4: for every package with
// test modules reachable at the Target destination, synthesize its
// discovery module (non-darwin only) and its `<Package>PackageTests` entry
// point product, writing the generated discovery source and wiring both
// into the plan's module/product maps. spec.md §4.3.2/§4.5 step 4.
func synthesizeTestArtifacts(
	ctx context.Context,
	in AssembleInput,
	envs Environments,
	moduleDescs map[moduleKey]ModuleBuildDescription,
	productDescs map[productKey]*ProductBuildDescription,
	diags *diagnostics.Collector,
) error {
	testModulesByPackage := map[PackageID][]ModuleID{}
	for _, m := range in.Graph.AllModules() {
		if m.Kind != ModuleTest {
			continue
		}
		if _, ok := moduleDescs[moduleKey{m.ID, Target}]; !ok {
			continue
		}
		testModulesByPackage[m.ID.Package] = append(testModulesByPackage[m.ID.Package], m.ID)
	}

	t := in.TargetParams.triple()

	var packages []PackageID
	for pkg := range testModulesByPackage {
		packages = append(packages, pkg)
	}
	sortSliceStable(len(packages), func(i, j int) bool { return packages[i] < packages[j] }, func(i, j int) {
		packages[i], packages[j] = packages[j], packages[i]
	})

	for _, pkg := range packages {
		testModules := testModulesByPackage[pkg]
		extraModules := map[ModuleID]*ResolvedModule{}

		discovery := synthesizeTestDiscovery(pkg, testModules, t)
		if discovery != nil {
			srcPath := fmt.Sprintf("%s/%s.build/__TestDiscovery.swift", in.TargetParams.dataDir(), discovery.Module.Name)
			if _, err := buildfs.WriteIfChanged(ctx, in.FS, srcPath, []byte(discovery.GeneratedSource)); err != nil {
				return err
			}

			discoveryModule := &ResolvedModule{
				ID:      discovery.Module,
				Kind:    ModuleTest,
				Sources: []string{srcPath},
			}
			extraModules[discovery.Module] = discoveryModule

			desc, err := buildSwiftModule(ctx, SwiftBuildInput{
				Graph:       in.Graph,
				Module:      discoveryModule,
				Destination: Target,
				Params:      in.TargetParams,
				Toolchain:   in.Toolchain,
				Diagnostics: diags,
			})
			if err != nil {
				return err
			}
			moduleDescs[moduleKey{discovery.Module, Target}] = desc
		}

		entryPoint := synthesizeTestEntryPoint(pkg, testModules, discovery)
		product := testEntryPointProduct(entryPoint)

		// Link-input resolution needs to look the synthesized product and
		// discovery module up by ID; use an ephemeral graph view carrying
		// them rather than mutating the caller's resolved graph (spec.md §5:
		// "the engine reads from but does not mutate the resolved graph").
		extendedGraph := graphWithExtras(in.Graph, extraModules, map[ProductID]*ResolvedProduct{product.ID: product})

		desc, err := buildProductDescription(ctx, ProductBuildInput{
			Graph:              extendedGraph,
			Product:            product,
			Destination:        Target,
			Params:             in.TargetParams,
			Envs:               envs,
			ModuleDescs:        moduleDescsForDestination(moduleDescs, Target),
			IsDarwinTestBundle: t.IsDarwin(),
			Toolchain:          in.Toolchain,
		})
		if err != nil {
			return err
		}
		productDescs[productKey{product.ID, Target}] = desc
		if err := writeLinkFileList(ctx, in.FS, desc); err != nil {
			return err
		}
	}

	return nil
}

// graphWithExtras returns a shallow copy of g with extraModules/extraProducts
// merged in, leaving g itself untouched.
func graphWithExtras(g *PackageGraph, extraModules map[ModuleID]*ResolvedModule, extraProducts map[ProductID]*ResolvedProduct) *PackageGraph {
	out := &PackageGraph{
		Modules:      make(map[ModuleID]*ResolvedModule, len(g.Modules)+len(extraModules)),
		Products:     make(map[ProductID]*ResolvedProduct, len(g.Products)+len(extraProducts)),
		RootPackages: g.RootPackages,
	}
	for k, v := range g.Modules {
		out.Modules[k] = v
	}
	for k, v := range g.Products {
		out.Products[k] = v
	}
	for k, v := range extraModules {
		out.Modules[k] = v
	}
	for k, v := range extraProducts {
		out.Products[k] = v
	}
	return out
}
