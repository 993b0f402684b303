package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildSchema(t *testing.T) {
	data, err := json.Marshal(buildSchema())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"layout"`, `"legend"`, `"not_walkable"`, `"hex_pointy"`, `"Grid level"`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("schema lacks %s", want)
		}
	}

	out := filepath.Join(t.TempDir(), "schema", "level.json")
	if err := writeSchema(out, data); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("schema not written: %v", err)
	}
}
