package planner

import "github.com/forgebuild/planner/triple"

// IndexStoreMode controls whether compile commands emit an index store for
// IDE/indexing consumers. spec.md §6.1.
type IndexStoreMode string

const (
	IndexStoreOff  IndexStoreMode = "off"
	IndexStoreOn   IndexStoreMode = "on"
	IndexStoreAuto IndexStoreMode = "auto"
)

// LTOMode selects link-time optimization flavor, if any.
type LTOMode string

const (
	LTONone      LTOMode = ""
	LTOFull      LTOMode = "llvm-full"
	LTOThin      LTOMode = "llvm-thin"
)

// DebuggingParameters controls debug-info emission detail. spec.md §6.1.
type DebuggingParameters struct {
	OmitFramePointers         bool // explicit override; nil-equivalent handled by OmitFramePointersSet
	OmitFramePointersSet      bool
	DWARFVersion              int
}

// DriverParameters controls compiler-driver behaviors orthogonal to a
// single module's settings. spec.md §6.1.
type DriverParameters struct {
	ExplicitModuleBuild bool
	CanRenameEntryPoint bool
}

// LinkingParameters controls link-time behavior shared across all products
// in a destination. spec.md §6.1.
type LinkingParameters struct {
	DeadStripEnabled      bool
	LTOMode               LTOMode
	DisableLocalRPath     bool
	LinkStaticSwiftStdlib bool
}

// Sanitizer names a compiler/linker sanitizer to enable.
type Sanitizer string

// Flags are the extra, unfiltered, user-declared compiler/linker options a
// BuildParameters set carries for each tool family. spec.md §6.1's "flags"
// field; kept as raw strings since spec.md §9 treats user-provided flags as
// opaque and unfiltered per destination.
type Flags struct {
	CC      []string
	CXX     []string
	Swift   []string
	Linker  []string
}

// BuildParameters is one destination's worth of build configuration.
// spec.md §3.1/§6.1. A BuildPlan always carries exactly two: one Target, one
// Host.
type BuildParameters struct {
	Destination   Destination
	DataPath      string
	Configuration triple.Configuration
	HostTriple    triple.Triple
	TargetTriple  triple.Triple
	Flags         Flags
	WorkerCount   int
	IndexStoreMode IndexStoreMode
	Debugging     DebuggingParameters
	Driver        DriverParameters
	Linking       LinkingParameters
	Sanitizers    []Sanitizer
	EmbeddedSwift bool // "embedded" experimental feature, spec.md §4.2.1(2)
}

// triple returns the triple this destination's module/product descriptions
// are built for: the target triple for Destination Target, the host triple
// for Destination Host.
func (p BuildParameters) triple() triple.Triple {
	if p.Destination == Host {
		return p.HostTriple
	}
	return p.TargetTriple
}

func (p BuildParameters) environment() triple.Environment {
	return triple.FromTriple(p.triple(), p.Configuration)
}

func (p BuildParameters) dataDir() string {
	return p.DataPath + "/" + string(p.Configuration)
}

// moduleCachePath is the shared compiler module cache directory, spec.md §6.4.
func (p BuildParameters) moduleCachePath() string {
	return p.dataDir() + "/ModuleCache"
}

func (p BuildParameters) hasSanitizer(name Sanitizer) bool {
	for _, s := range p.Sanitizers {
		if s == name {
			return true
		}
	}
	return false
}
