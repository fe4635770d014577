package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/mjcole76/octochase/internal/sim"
)

type schemaFile struct {
	name   string
	schema *jsonschema.Schema
}

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "", "directory to write the JSON schemas into")
	flag.Parse()

	if outDir == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	for _, file := range buildSchemas() {
		if err := writeSchema(filepath.Join(outDir, file.name), file.schema); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", file.name, err)
			os.Exit(1)
		}
	}
}

func buildSchemas() []schemaFile {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}

	snapshot := reflector.Reflect(new(sim.Snapshot))
	snapshot.Title = "Octochase Snapshot"
	snapshot.Description = "Per-frame simulation state streamed in websocket state frames"

	results := reflector.Reflect(new(sim.Results))
	results.Title = "Octochase Results"
	results.Description = "Final record of a finished run"

	return []schemaFile{
		{name: "snapshot.schema.json", schema: snapshot},
		{name: "results.schema.json", schema: results},
	}
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
