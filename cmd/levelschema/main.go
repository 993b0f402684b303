// Command levelschema writes the JSON schema for level files.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/milk9111/gridsystem/grid"
	"github.com/milk9111/gridsystem/levels"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema; stdout when empty")
	flag.Parse()

	data, err := json.MarshalIndent(buildSchema(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal schema: %v\n", err)
		os.Exit(1)
	}
	if outPath == "" {
		fmt.Println(string(data))
		return
	}
	if err := writeSchema(outPath, data); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
	}
	schema := reflector.Reflect(new(levels.Level))
	schema.Title = "Grid level"
	schema.Description = "Validates level files under levels/"

	// grid.Kind is an int that marshals as text.
	if schema.Properties != nil {
		schema.Properties.Set("kind", &jsonschema.Schema{
			Type:        "string",
			Description: "Grid tiling",
			Enum:        []interface{}{grid.Rect.String(), grid.HexFlatTop.String(), grid.HexPointyTop.String()},
		})
	}
	return schema
}

func writeSchema(outPath string, data []byte) error {
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
