package planner

import "fmt"

// Fatal error kinds, spec.md §7. Each is a distinct type so callers can
// branch with errors.As instead of string matching, the way
// github.com/Azure/dalec's Target.validate() aggregates typed errors with
// errors.Join rather than formatting one giant message.

type ProductNameCollisionError struct {
	Name     string
	Packages []PackageID
}

func (e *ProductNameCollisionError) Error() string {
	return fmt.Sprintf("product name collision: %q is declared by multiple non-automatic products in packages %v", e.Name, e.Packages)
}

type PlatformVersionIncompatibleError struct {
	ConsumerModule  ModuleID
	ConsumerVersion string
	ProducerProduct ProductID
	ProducerVersion string
	Platform        string
}

func (e *PlatformVersionIncompatibleError) Error() string {
	return fmt.Sprintf(
		"platform version incompatible on %s: module %s/%s requires %s, but product %s/%s only declares %s; "+
			"raise %s's minimum platform version or lower %s's minimum platform version",
		e.Platform,
		e.ConsumerModule.Package, e.ConsumerModule.Name, e.ConsumerVersion,
		e.ProducerProduct.Package, e.ProducerProduct.Name, e.ProducerVersion,
		e.ConsumerModule.Package, e.ProducerProduct.Package,
	)
}

type CycleDetectedError struct {
	Destination Destination
	Cycle       []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency cycle detected in %s destination: %v", e.Destination, e.Cycle)
}

type NoBuildableModuleError struct{}

func (e *NoBuildableModuleError) Error() string {
	return "build plan contains no compilable modules"
}

type UnknownBinaryArtifactVariantError struct {
	Module ModuleID
	Triple string
}

func (e *UnknownBinaryArtifactVariantError) Error() string {
	return fmt.Sprintf("binary artifact module %s/%s has no variant matching triple %s", e.Module.Package, e.Module.Name, e.Triple)
}
