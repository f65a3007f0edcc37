package planner

import (
	"fmt"

	"github.com/forgebuild/planner/triple"
)

// BinaryArtifactManifest is the subset of an XCFramework/artifacts-archive
// info manifest the engine needs: the list of variants a binary artifact
// ships, each scoped to a triple and (for libraries) a library/headers path
// pair. spec.md §4.2.3.
type BinaryArtifactManifest struct {
	Variants []BinaryArtifactVariant `yaml:"variants" json:"variants"`
}

// BinaryArtifactVariant is one entry of a BinaryArtifactManifest: the triple
// (or architecture set) it matches, plus the paths to use once matched.
type BinaryArtifactVariant struct {
	SupportedTriples []string `yaml:"supported_triples" json:"supported_triples"`
	LibraryPath      string   `yaml:"library_path" json:"library_path"`
	HeadersPath      string   `yaml:"headers_path,omitempty" json:"headers_path,omitempty"`
	IsFramework      bool     `yaml:"is_framework,omitempty" json:"is_framework,omitempty"`
}

// BinaryModuleDescription is the compile description for a binary-artifact
// module: it contributes no compile commands of its own, only link
// inputs and (for frameworks/libraries with headers) an include path.
// spec.md §4.2.3.
type BinaryModuleDescription struct {
	baseModuleDescription
	libraryPath string
	headersPath string
	isFramework bool
	outputs     OutputPaths
}

func (d *BinaryModuleDescription) Objects() []string             { return nil }
func (d *BinaryModuleDescription) CompileArgs() []string         { return nil }
func (d *BinaryModuleDescription) SymbolGraphExtractArgs() []string { return nil }
func (d *BinaryModuleDescription) Outputs() OutputPaths           { return d.outputs }
func (d *BinaryModuleDescription) HasModuleMap() bool             { return false }
func (d *BinaryModuleDescription) LibraryPath() string            { return d.libraryPath }
func (d *BinaryModuleDescription) HeadersPath() string            { return d.headersPath }
func (d *BinaryModuleDescription) IsFramework() bool              { return d.isFramework }

// buildBinaryArtifactModule selects the manifest variant matching t and
// produces the module's link-input description. Returns
// UnknownBinaryArtifactVariantError if no variant's triple/architecture set
// matches. spec.md §4.2.3's matching rule: an exact triple string match
// first, falling back to an architecture-only match against t.Arch when the
// manifest entry omits vendor/OS/environment components (a bare arch name).
func buildBinaryArtifactModule(m *ResolvedModule, destination Destination, t triple.Triple, manifest BinaryArtifactManifest) (*BinaryModuleDescription, error) {
	variant, ok := selectBinaryVariant(manifest, t)
	if !ok {
		return nil, &UnknownBinaryArtifactVariantError{Module: m.ID, Triple: t.String()}
	}

	outputs := OutputPaths{}
	return &BinaryModuleDescription{
		baseModuleDescription: baseModuleDescription{module: m, destination: destination},
		libraryPath:           variant.LibraryPath,
		headersPath:           variant.HeadersPath,
		isFramework:           variant.IsFramework,
		outputs:               outputs,
	}, nil
}

func selectBinaryVariant(manifest BinaryArtifactManifest, t triple.Triple) (BinaryArtifactVariant, bool) {
	for _, v := range manifest.Variants {
		for _, s := range v.SupportedTriples {
			if s == t.String() {
				return v, true
			}
		}
	}
	for _, v := range manifest.Variants {
		for _, s := range v.SupportedTriples {
			if s == t.Arch {
				return v, true
			}
		}
	}
	return BinaryArtifactVariant{}, false
}

// binaryLinkFlags derives the link-line contribution of a matched binary
// artifact variant: a framework search path plus -framework on darwin, or a
// library search path plus -l<name> otherwise.
func binaryLinkFlags(d *BinaryModuleDescription, darwin bool) []string {
	if d.isFramework && darwin {
		return []string{"-F", d.libraryPath, "-framework", d.module.ID.Name}
	}
	return []string{"-L", d.libraryPath, fmt.Sprintf("-l%s", d.module.ID.Name)}
}
