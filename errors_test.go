package planner

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestErrorMessagesNameTheOffendingIdentities(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want []string
	}{
		{
			"product name collision",
			&ProductNameCollisionError{Name: "Utils", Packages: []PackageID{"A", "B"}},
			[]string{"Utils", "A", "B"},
		},
		{
			"platform version incompatible",
			&PlatformVersionIncompatibleError{
				ConsumerModule:  ModuleID{Package: "App", Name: "Core"},
				ConsumerVersion: "13.0",
				ProducerProduct: ProductID{Package: "Lib", Name: "Net"},
				ProducerVersion: "12.0",
				Platform:        "macos",
			},
			[]string{"App", "Core", "13.0", "Lib", "Net", "12.0", "macos"},
		},
		{
			"cycle detected",
			&CycleDetectedError{Destination: Target, Cycle: []string{"m:target:A/X", "m:target:A/Y"}},
			[]string{"target", "A/X", "A/Y"},
		},
		{"no buildable module", &NoBuildableModuleError{}, []string{"no compilable modules"}},
		{
			"unknown binary artifact variant",
			&UnknownBinaryArtifactVariantError{Module: ModuleID{Package: "P", Name: "M"}, Triple: "arm64-apple-ios"},
			[]string{"P", "M", "arm64-apple-ios"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			msg := c.err.Error()
			for _, want := range c.want {
				assert.Assert(t, strings.Contains(msg, want), "expected %q to contain %q", msg, want)
			}
		})
	}
}
