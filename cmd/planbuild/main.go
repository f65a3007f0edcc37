package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/forgebuild/planner"
	"github.com/forgebuild/planner/internal/buildfs"
	"github.com/forgebuild/planner/toolchain"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "usage: planbuild <graph.yaml> <target-params.yaml> <host-params.yaml>")
		os.Exit(2)
	}

	graphFile, targetFile, hostFile := os.Args[1], os.Args[2], os.Args[3]

	graph, err := loadGraph(graphFile)
	if err != nil {
		fatal(err)
	}
	targetParams, err := loadParams(targetFile, planner.Target)
	if err != nil {
		fatal(err)
	}
	hostParams, err := loadParams(hostFile, planner.Host)
	if err != nil {
		fatal(err)
	}

	tc := &toolchain.Static{
		Swift:     "/usr/bin/swiftc",
		Clang:     "/usr/bin/clang",
		Librarian: "/usr/bin/ar",
		Linker:    "/usr/bin/ld",
	}

	plan, err := planner.Assemble(context.Background(), planner.AssembleInput{
		Graph:        graph,
		TargetParams: targetParams,
		HostParams:   hostParams,
		Toolchain:    tc,
		FS:           buildfs.DiskFS{},
	})
	if err != nil {
		fatal(err)
	}

	printPlan(plan, graph)
}

func loadGraph(path string) (*planner.PackageGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return planner.LoadPackageGraph(f)
}

func loadParams(path string, d planner.Destination) (planner.BuildParameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return planner.BuildParameters{}, err
	}
	defer f.Close()
	return planner.LoadBuildParameters(f, d)
}

func printPlan(plan *planner.BuildPlan, graph *planner.PackageGraph) {
	type productOutput struct {
		Package string   `json:"package"`
		Name    string   `json:"name"`
		LinkArgs []string `json:"link_arguments"`
		Objects  []string `json:"objects"`
	}

	var out []productOutput
	for _, p := range graph.AllProducts() {
		for _, d := range []planner.Destination{planner.Target, planner.Host} {
			desc, ok := plan.ProductDescription(p.ID, d)
			if !ok {
				continue
			}
			out = append(out, productOutput{
				Package:  string(p.ID.Package),
				Name:     p.ID.Name,
				LinkArgs: desc.LinkArgs(),
				Objects:  desc.Objects(),
			})
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatal(err)
	}

	for _, diag := range plan.Diagnostics.Items() {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", diag.Kind, diag.Message)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
