package planner

import (
	"sort"
	"strconv"
	"strings"
)

// sortModules orders modules by (package, name) for deterministic traversal,
// the way github.com/Azure/dalec's helpers.go sorts map-derived slices
// before using them in any generated output.
func sortModules(in []*ResolvedModule) {
	sort.Slice(in, func(i, j int) bool {
		if in[i].ID.Package != in[j].ID.Package {
			return in[i].ID.Package < in[j].ID.Package
		}
		return in[i].ID.Name < in[j].ID.Name
	})
}

func sortProducts(in []*ResolvedProduct) {
	sort.Slice(in, func(i, j int) bool {
		if in[i].ID.Package != in[j].ID.Package {
			return in[i].ID.Package < in[j].ID.Package
		}
		return in[i].ID.Name < in[j].ID.Name
	})
}

// sortedStringKeys returns the keys of a string set in sorted order.
func sortedStringKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// compareVersions compares two dotted numeric version strings
// (e.g. "13.0" vs "12.4"), returning -1, 0, or 1. Non-numeric or empty
// segments sort as 0, matching the lenient comparisons the teacher's
// platform-version checks need without pulling in a full semver library for
// what is, in this domain, always a short dotted-integer tuple.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// moduleNameToProductModuleName converts a product's declared name into the
// value passed to `-module-name` on the link line: dashes become
// underscores, other characters pass through unchanged. spec.md §4.3(3).
func moduleNameToProductModuleName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// dedupStrings returns args with duplicate entries removed, preserving
// first-occurrence order. An "-I" or "-L" flag and the path after it count
// as one entry, so a repeated search path is dropped together with its flag
// while every kept path keeps its own flag. Used by CreateREPLArguments.
func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for i := 0; i < len(in); i++ {
		entry := in[i : i+1]
		if (in[i] == "-I" || in[i] == "-L") && i+1 < len(in) {
			entry = in[i : i+2]
			i++
		}
		key := strings.Join(entry, "\x00")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry...)
	}
	return out
}
