package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/forgebuild/planner"
)

func main() {
	r := jsonschema.Reflector{
		ExpandedStruct: true,
	}

	schema := r.Reflect(&planner.PackageGraph{})

	dt, err := json.MarshalIndent(schema, "", "\t")
	if err != nil {
		panic(err)
	}

	if len(os.Args) > 1 {
		if err := os.MkdirAll(filepath.Dir(os.Args[1]), 0o755); err != nil {
			panic(err)
		}
		if err := os.WriteFile(os.Args[1], dt, 0o644); err != nil {
			panic(err)
		}
		return
	}

	os.Stdout.Write(dt)
}
