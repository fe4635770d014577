package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildSchemasWritesEachFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schemas")

	files := buildSchemas()
	if len(files) != 2 {
		t.Fatalf("expected two schemas, got %d", len(files))
	}
	for _, file := range files {
		if err := writeSchema(filepath.Join(dir, file.name), file.schema); err != nil {
			t.Fatalf("writeSchema(%s) returned error: %v", file.name, err)
		}
	}

	for name, wantType := range map[string]string{
		"snapshot.schema.json": "Snapshot",
		"results.schema.json":  "Results",
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("%s is not valid JSON: %v", name, err)
		}
		title, _ := decoded["title"].(string)
		if !strings.HasPrefix(title, "Octochase") {
			t.Fatalf("unexpected title in %s: %q", name, title)
		}
		if !strings.Contains(string(data), wantType) {
			t.Fatalf("expected %s to describe %s", name, wantType)
		}
		if _, err := os.Stat(filepath.Join(dir, name+".tmp")); !os.IsNotExist(err) {
			t.Fatalf("expected temp file for %s to be renamed away", name)
		}
	}
}

func TestSnapshotSchemaUsesJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(buildSchemas()[0].schema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	for _, field := range []string{"sessionId", "predators", "progress", "activePowerups"} {
		if !strings.Contains(string(data), `"`+field+`"`) {
			t.Fatalf("expected snapshot schema to mention %q", field)
		}
	}
}
