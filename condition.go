package planner

import (
	"context"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/pkg/errors"

	"github.com/forgebuild/planner/triple"
)

// Condition is a dependency edge's optional predicate: a set of platform
// names and an optional configuration name. spec.md §4.1.
//
// Decoding follows the same union-of-shapes convention github.com/Azure/dalec
// uses for PackageDependencyList in deps.go: a condition may be written as a
// bare platform name, a list of platform names, or a structured mapping with
// "platforms" and "configuration" keys.
type Condition struct {
	Platforms     map[string]struct{}
	Configuration triple.Configuration // empty means "any configuration"
}

// Satisfied reports whether the condition holds for the given environment,
// per spec.md §4.1: an empty platform set always matches, and an empty
// configuration always matches.
func (c *Condition) Satisfied(env triple.Environment) bool {
	if c == nil {
		return true
	}
	if len(c.Platforms) > 0 {
		if _, ok := c.Platforms[env.Platform]; !ok {
			return false
		}
	}
	if c.Configuration != "" && c.Configuration != env.Configuration {
		return false
	}
	return true
}

type conditionShape struct {
	Platforms     []string `yaml:"platforms,omitempty" json:"platforms,omitempty"`
	Configuration string   `yaml:"configuration,omitempty" json:"configuration,omitempty"`
}

func (c *Condition) UnmarshalYAML(ctx context.Context, node ast.Node) error {
	if node == nil || node.Type() == ast.NullType {
		*c = Condition{}
		return nil
	}

	switch node.Type() {
	case ast.StringType:
		var name string
		if err := yaml.NodeToValue(node, &name); err != nil {
			return errors.Wrap(err, "unmarshal condition platform name")
		}
		*c = Condition{Platforms: map[string]struct{}{name: {}}}
		return nil
	case ast.SequenceType:
		var names []string
		if err := yaml.NodeToValue(node, &names); err != nil {
			return errors.Wrap(err, "unmarshal condition platform list")
		}
		c.Platforms = make(map[string]struct{}, len(names))
		for _, n := range names {
			c.Platforms[n] = struct{}{}
		}
		return nil
	case ast.MappingType:
		var shape conditionShape
		if err := yaml.NodeToValue(node, &shape); err != nil {
			return errors.Wrap(err, "unmarshal condition")
		}
		c.Platforms = make(map[string]struct{}, len(shape.Platforms))
		for _, n := range shape.Platforms {
			c.Platforms[n] = struct{}{}
		}
		c.Configuration = triple.Configuration(shape.Configuration)
		return nil
	default:
		return fmt.Errorf("unsupported condition shape: %s", node.Type())
	}
}

func (c Condition) MarshalYAML() (interface{}, error) {
	shape := conditionShape{Configuration: string(c.Configuration)}
	for p := range c.Platforms {
		shape.Platforms = append(shape.Platforms, p)
	}
	return shape, nil
}
