package planner

import (
	"sort"
	"strings"

	"github.com/forgebuild/planner/internal/diagnostics"
)

// validate runs the checks spec.md §4.6 requires after assembly. It returns
// the first fatal error encountered (propagation policy: the first fatal
// error aborts plan construction). Tools-version feature gating is applied
// earlier, while compile arguments are assembled (module_swift.go,
// module_cfamily.go), since by the time validation runs the compile command
// lines have already been built and a setting dropped here would no longer
// affect them.
func validate(g *PackageGraph, envs Environments, diags *diagnostics.Collector) error {
	if err := validateProductNameUniqueness(g); err != nil {
		return err
	}
	if err := validatePlatformVersions(g, envs); err != nil {
		return err
	}
	if err := validateBuildableModule(g); err != nil {
		return err
	}
	return nil
}

// validateProductNameUniqueness groups products by case-insensitive name;
// any group of size > 1 is fatal unless every member is automatic linkage.
func validateProductNameUniqueness(g *PackageGraph) error {
	groups := map[string][]*ResolvedProduct{}
	for _, p := range g.AllProducts() {
		key := strings.ToLower(p.ID.Name)
		groups[key] = append(groups[key], p)
	}

	var names []string
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		members := groups[name]
		if len(members) <= 1 {
			continue
		}
		allAutomatic := true
		for _, m := range members {
			if m.Kind != ProductLibraryAutomatic {
				allAutomatic = false
				break
			}
		}
		if allAutomatic {
			continue
		}
		var pkgs []PackageID
		for _, m := range members {
			pkgs = append(pkgs, m.ID.Package)
		}
		return &ProductNameCollisionError{Name: members[0].ID.Name, Packages: pkgs}
	}
	return nil
}

// validatePlatformVersions checks every consumer-module -> producer-product
// edge on the currently built platform: if both sides declare a minimum
// version for that platform, the consumer's must be >= the producer's.
func validatePlatformVersions(g *PackageGraph, envs Environments) error {
	for _, d := range []Destination{Target, Host} {
		env := envs[d]
		for _, m := range g.AllModules() {
			consumerVersion, hasConsumer := m.MinPlatformVersions[env.Platform]
			if !hasConsumer {
				continue
			}
			for _, e := range m.Dependencies {
				if e.TargetKind != DependencyProduct {
					continue
				}
				if !e.Condition.Satisfied(env) {
					continue
				}
				prod, ok := g.Product(e.Product)
				if !ok {
					continue
				}
				producerVersion, hasProducer := prod.MinPlatformVersions[env.Platform]
				if !hasProducer {
					continue
				}
				if compareVersions(consumerVersion, producerVersion) < 0 {
					return &PlatformVersionIncompatibleError{
						ConsumerModule:  m.ID,
						ConsumerVersion: consumerVersion,
						ProducerProduct: prod.ID,
						ProducerVersion: producerVersion,
						Platform:        env.Platform,
					}
				}
			}
		}
	}
	return nil
}

// validateBuildableModule fails if the graph contains zero modules whose
// kind produces compile commands.
func validateBuildableModule(g *PackageGraph) error {
	for _, m := range g.AllModules() {
		if m.Kind.IsCompiled() {
			return nil
		}
	}
	return &NoBuildableModuleError{}
}

// toolsVersionFeatureThresholds names the minimum tools-version each gated
// feature requires. spec.md §4.6's "tools-version gating".
var toolsVersionFeatureThresholds = map[string]string{
	"package-name-flag":     "5.9",
	"c-header-plugin-gen":   "5.9",
}

// gatedFeatureName reports whether s names a tools-version-gated feature
// (a SettingUnsafeFlag value prefixed "feature:"), used by module_swift.go
// and module_cfamily.go while assembling compile arguments, and by
// toolsVersionFeatureThresholds above to look up the required version.
func gatedFeatureName(s BuildSetting) (string, bool) {
	const prefix = "feature:"
	if s.Kind != SettingUnsafeFlag || !strings.HasPrefix(s.Value, prefix) {
		return "", false
	}
	return strings.TrimPrefix(s.Value, prefix), true
}
