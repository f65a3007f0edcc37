package planner

import (
	"context"
	"fmt"

	"github.com/forgebuild/planner/toolchain"
	"github.com/forgebuild/planner/triple"
)

// ProductBuildDescription is the link description for a single
// (resolved-product, destination) pair. spec.md §4.3.
type ProductBuildDescription struct {
	product     *ResolvedProduct
	destination Destination
	linkArgs    []string
	outputPath  string
	objects     []string
	dylibs      []ProductID
	linkFileListPath string
}

func (d *ProductBuildDescription) ID() ProductID          { return d.product.ID }
func (d *ProductBuildDescription) Destination() Destination { return d.destination }
func (d *ProductBuildDescription) Kind() ProductKind      { return d.product.Kind }
func (d *ProductBuildDescription) LinkArgs() []string     { return d.linkArgs }
func (d *ProductBuildDescription) OutputPath() string     { return d.outputPath }
func (d *ProductBuildDescription) Objects() []string      { return d.objects }
func (d *ProductBuildDescription) DynamicLibraryDeps() []ProductID { return d.dylibs }
func (d *ProductBuildDescription) LinkFileListPath() string { return d.linkFileListPath }

// ProductBuildInput bundles everything buildProductDescription needs.
type ProductBuildInput struct {
	Graph             *PackageGraph
	Product           *ResolvedProduct
	Destination       Destination
	Params            BuildParameters
	Envs              Environments
	ModuleDescs       map[ModuleID]ModuleBuildDescription // every module in the plan at this destination
	IsDarwinTestBundle bool
	Toolchain         toolchain.Toolchain
}

func outputExtension(t triple.Triple, kind ProductKind) string {
	switch kind {
	case ProductLibraryStatic:
		return ".a"
	case ProductLibraryDynamic:
		if t.IsDarwin() {
			return ".dylib"
		}
		if t.IsWindows() {
			return ".dll"
		}
		return ".so"
	case ProductExecutable, ProductTest, ProductReplStub, ProductPlugin:
		return t.ExecutableExtension()
	default:
		return ""
	}
}

func buildProductDescription(ctx context.Context, in ProductBuildInput) (*ProductBuildDescription, error) {
	p, params := in.Product, in.Params
	t := params.triple()
	buildDir := params.dataDir()

	objectModules, dylibs := linkStaticClosure(in.Graph, p.ID, in.Destination, in.Envs)

	var objects []string
	var binaryArgs []string
	hasCxxObject := false
	var swiftModulePaths []string
	embeddedEnabled := false
	for _, mid := range objectModules {
		desc, ok := in.ModuleDescs[mid]
		if !ok {
			continue
		}
		objects = append(objects, desc.Objects()...)
		if m, ok2 := in.Graph.Module(mid); ok2 {
			if m.IsCxx {
				hasCxxObject = true
			}
			if m.EnableEmbedded {
				embeddedEnabled = true
			}
		}
		switch md := desc.(type) {
		case *SwiftModuleDescription:
			if md.Outputs().SwiftModulePath != "" {
				swiftModulePaths = append(swiftModulePaths, md.Outputs().SwiftModulePath)
			}
		case *BinaryModuleDescription:
			binaryArgs = append(binaryArgs, binaryLinkFlags(md, t.IsDarwin())...)
		}
	}

	ext := outputExtension(t, p.Kind)
	outName := moduleNameToProductModuleName(p.ID.Name)
	outputPath := fmt.Sprintf("%s/%s%s", buildDir, p.ID.Name, ext)
	linkFileList := fmt.Sprintf("%s/%s.LinkFileList", buildDir, p.ID.Name)

	var args []string

	// 1-2. Front-end, search dir, output.
	args = append(args, "-L", buildDir, "-o", outputPath)

	// 3. Module name.
	args = append(args, "-module-name", outName)

	// 4. Dynamic library deps.
	for _, dylibID := range dylibs {
		args = append(args, "-l"+moduleNameToProductModuleName(dylibID.Name))
	}

	// 4b. Binary-artifact link inputs.
	args = append(args, binaryArgs...)

	// 5. Kind-specific flags.
	switch p.Kind {
	case ProductExecutable, ProductReplStub:
		args = append(args, "-emit-executable")
	case ProductLibraryDynamic:
		args = append(args, "-emit-library")
		if t.IsDarwin() {
			args = append(args, "-Xlinker", "-install_name", "-Xlinker", fmt.Sprintf("@rpath/lib%s.dylib", outName))
		}
	case ProductTest:
		if t.IsDarwin() {
			args = append(args, "-Xlinker", "-bundle")
		} else {
			args = append(args, "-emit-executable")
		}
	case ProductLibraryStatic:
		// Handled by the librarian, not the swift driver; see product_static_lib.go.
	}

	// 6. Rpath policy.
	if p.Kind != ProductLibraryStatic {
		switch {
		case t.IsDarwin():
			if !params.Linking.DisableLocalRPath {
				loaderPath := "@loader_path"
				if in.IsDarwinTestBundle {
					loaderPath = "@loader_path/../../../"
				}
				args = append(args, "-Xlinker", "-rpath", "-Xlinker", loaderPath)
			}
			if !params.Linking.LinkStaticSwiftStdlib {
				libDir := "/usr/lib/swift"
				if in.Toolchain != nil {
					if res, _ := in.Toolchain.ResourcePath(ctx); res != "" {
						libDir = res
					}
				}
				args = append(args, "-Xlinker", "-rpath", "-Xlinker", libDir+"/macosx")
			}
		case t.IsLinux() || t.IsFreeBSD():
			args = append(args, "-Xlinker", "-rpath=$ORIGIN")
		}
	}

	// 7. Dead strip.
	if p.Kind != ProductLibraryStatic && params.Configuration == triple.Release &&
		params.Linking.DeadStripEnabled && len(params.Sanitizers) == 0 {
		switch {
		case t.IsDarwin():
			args = append(args, "-Xlinker", "-dead_strip")
		case t.IsLinux() || t.IsWASI():
			args = append(args, "-Xlinker", "--gc-sections")
		case t.IsWindows():
			args = append(args, "-Xlinker", "/OPT:REF")
		}
	}

	// 8. Link-file-list.
	if p.Kind != ProductLibraryStatic {
		args = append(args, "@"+linkFileList)
	}

	// 9. Target triple.
	if p.Kind != ProductLibraryStatic {
		args = append(args, "-target", t.String())
	}

	// 10. Linker settings from manifest.
	env := params.environment()
	for _, m := range p.Modules() {
		mod, ok := in.Graph.Module(m)
		if !ok {
			continue
		}
		for _, s := range mod.Settings {
			if !s.Applies(env) {
				continue
			}
			switch s.Kind {
			case SettingLinkedLibrary:
				args = append(args, "-l"+s.Value)
			case SettingLinkedFramework:
				args = append(args, "-framework", s.Value)
			case SettingUnsafeLinkerFlag:
				args = append(args, "-Xlinker", s.Value)
			}
		}
	}

	// 11. LTO, sanitizers, static-stdlib.
	if p.Kind != ProductLibraryStatic {
		if params.Linking.LTOMode != LTONone {
			args = append(args, "-lto="+string(params.Linking.LTOMode))
		}
		for _, s := range params.Sanitizers {
			args = append(args, "-sanitize="+string(s))
		}
		if params.Linking.LinkStaticSwiftStdlib {
			args = append(args, "-static-stdlib")
		}

		// 12. Debug info.
		args = append(args, "-g")
		if t.IsWindows() {
			args = append(args, "-use-ld=lld", "-Xlinker", "-debug:dwarf")
		}

		// 13. C++ runtime.
		if hasCxxObject {
			switch {
			case t.IsDarwin(), t.IsFreeBSD():
				args = append(args, "-lc++")
			case !t.IsWindows():
				args = append(args, "-lstdc++")
			}
		}

		// 14. darwin -add_ast_path.
		if t.IsDarwin() {
			for _, sp := range swiftModulePaths {
				args = append(args, "-Xlinker", "-add_ast_path", "-Xlinker", sp)
			}
		}

		// 15. Embedded.
		if embeddedEnabled {
			args = append(args, "-enable-experimental-feature", "Embedded")
		}
	}

	return &ProductBuildDescription{
		product:          p,
		destination:      in.Destination,
		linkArgs:         args,
		outputPath:       outputPath,
		objects:          objects,
		dylibs:           dylibs,
		linkFileListPath: linkFileList,
	}, nil
}
