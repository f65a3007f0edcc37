package planner

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"13.0", "12.4", 1},
		{"12.4", "13.0", -1},
		{"5.9", "5.9", 0},
		{"5", "5.0", 0},
		{"5.10", "5.9", 1},
		{"", "", 0},
	}
	for _, c := range cases {
		got := compareVersions(c.a, c.b)
		assert.Equal(t, got, c.want, "compareVersions(%q, %q)", c.a, c.b)
	}
}

func TestModuleNameToProductModuleName(t *testing.T) {
	assert.Equal(t, moduleNameToProductModuleName("my-tool"), "my_tool")
	assert.Equal(t, moduleNameToProductModuleName("NoDashes"), "NoDashes")
}

func TestDedupStrings(t *testing.T) {
	in := []string{"-I", "a", "-I", "a", "-I", "b"}
	got := dedupStrings(in)
	assert.DeepEqual(t, got, []string{"-I", "a", "-I", "b"})
}

func TestSortModulesDeterministicOrder(t *testing.T) {
	mods := []*ResolvedModule{
		{ID: ModuleID{Package: "Zeta", Name: "B"}},
		{ID: ModuleID{Package: "Alpha", Name: "Z"}},
		{ID: ModuleID{Package: "Alpha", Name: "A"}},
	}
	sortModules(mods)
	assert.Equal(t, mods[0].ID.Name, "A")
	assert.Equal(t, mods[1].ID.Name, "Z")
	assert.Equal(t, mods[2].ID.Package, PackageID("Zeta"))
}

func TestSortedStringKeys(t *testing.T) {
	got := sortedStringKeys(map[string]struct{}{"b": {}, "a": {}, "c": {}})
	assert.DeepEqual(t, got, []string{"a", "b", "c"})
}
