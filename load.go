package planner

import (
	"io"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"

	"github.com/forgebuild/planner/triple"
)

// packageGraphShape is the wire format LoadPackageGraph decodes: a flat list
// of modules and products, each carrying its own id, rather than a
// struct-keyed map (YAML mapping keys are strings; the in-memory
// PackageGraph's map keys are composite IDs built after decoding).
type packageGraphShape struct {
	Modules      []ResolvedModule `yaml:"modules"`
	Products     []ResolvedProduct `yaml:"products"`
	RootPackages []PackageID      `yaml:"root_packages"`
}

// LoadPackageGraph decodes a resolved package graph from YAML, the format
// the upstream dependency resolver emits and the format the engine's own
// fixtures and CLI consume. spec.md §6.1.
func LoadPackageGraph(r io.Reader) (*PackageGraph, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read package graph")
	}

	var shape packageGraphShape
	if err := yaml.Unmarshal(b, &shape); err != nil {
		return nil, errors.Wrap(err, "unmarshal package graph")
	}

	g := &PackageGraph{
		Modules:      make(map[ModuleID]*ResolvedModule, len(shape.Modules)),
		Products:     make(map[ProductID]*ResolvedProduct, len(shape.Products)),
		RootPackages: shape.RootPackages,
	}
	for i := range shape.Modules {
		m := shape.Modules[i]
		g.Modules[m.ID] = &m
	}
	for i := range shape.Products {
		p := shape.Products[i]
		g.Products[p.ID] = &p
	}

	return g, nil
}

// buildParametersShape is the YAML-facing shape for one destination's
// BuildParameters, decoded separately from the in-memory BuildParameters
// struct because triples arrive as plain strings on the wire.
type buildParametersShape struct {
	DataPath       string            `yaml:"data_path"`
	Configuration  string            `yaml:"configuration"`
	HostTriple     string            `yaml:"host_triple"`
	TargetTriple   string            `yaml:"target_triple"`
	WorkerCount    int               `yaml:"worker_count"`
	IndexStoreMode string            `yaml:"index_store_mode"`
	Debugging      DebuggingParameters `yaml:"debugging_parameters"`
	Driver         DriverParameters    `yaml:"driver_parameters"`
	Linking        LinkingParameters   `yaml:"linking_parameters"`
	Sanitizers     []string          `yaml:"sanitizers"`
	Flags          Flags             `yaml:"flags"`
}

// LoadBuildParameters decodes a destination's BuildParameters from YAML.
func LoadBuildParameters(r io.Reader, destination Destination) (BuildParameters, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return BuildParameters{}, errors.Wrap(err, "read build parameters")
	}

	var shape buildParametersShape
	if err := yaml.Unmarshal(b, &shape); err != nil {
		return BuildParameters{}, errors.Wrap(err, "unmarshal build parameters")
	}

	host, err := parseTripleField(shape.HostTriple)
	if err != nil {
		return BuildParameters{}, errors.Wrap(err, "host_triple")
	}
	target, err := parseTripleField(shape.TargetTriple)
	if err != nil {
		return BuildParameters{}, errors.Wrap(err, "target_triple")
	}

	var sanitizers []Sanitizer
	for _, s := range shape.Sanitizers {
		sanitizers = append(sanitizers, Sanitizer(s))
	}

	cfg := configurationFromString(shape.Configuration)

	return BuildParameters{
		Destination:    destination,
		DataPath:       shape.DataPath,
		Configuration:  cfg,
		HostTriple:     host,
		TargetTriple:   target,
		Flags:          shape.Flags,
		WorkerCount:    shape.WorkerCount,
		IndexStoreMode: indexStoreModeFromString(shape.IndexStoreMode),
		Debugging:      shape.Debugging,
		Driver:         shape.Driver,
		Linking:        shape.Linking,
		Sanitizers:     sanitizers,
	}, nil
}

func parseTripleField(s string) (triple.Triple, error) {
	if s == "" {
		return triple.Triple{}, nil
	}
	return triple.Parse(s)
}

func configurationFromString(s string) triple.Configuration {
	if s == "release" {
		return triple.Release
	}
	return triple.Debug
}

func indexStoreModeFromString(s string) IndexStoreMode {
	switch s {
	case "on":
		return IndexStoreOn
	case "auto":
		return IndexStoreAuto
	default:
		return IndexStoreOff
	}
}
