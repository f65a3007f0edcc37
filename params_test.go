package planner

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/forgebuild/planner/triple"
)

func TestBuildParametersTripleSelectsByDestination(t *testing.T) {
	host, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)
	target, err := triple.Parse("aarch64-unknown-linux-gnu")
	assert.NilError(t, err)

	p := BuildParameters{Destination: Target, HostTriple: host, TargetTriple: target}
	assert.Equal(t, p.triple().String(), target.String())

	p.Destination = Host
	assert.Equal(t, p.triple().String(), host.String())
}

func TestBuildParametersDataDirAndModuleCachePath(t *testing.T) {
	p := BuildParameters{DataPath: "/build", Configuration: triple.Release}
	assert.Equal(t, p.dataDir(), "/build/release")
	assert.Equal(t, p.moduleCachePath(), "/build/release/ModuleCache")
}

func TestBuildParametersHasSanitizer(t *testing.T) {
	p := BuildParameters{Sanitizers: []Sanitizer{"address", "thread"}}
	assert.Assert(t, p.hasSanitizer("address"))
	assert.Assert(t, !p.hasSanitizer("undefined"))
}
