package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

// Write encodes g in the given format and writes it to w. The output can
// be read back with [Read] into an equivalent graph.
func Write(g *cpg.Graph, w io.Writer, f Format) error {
	d := FromGraph(g)
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return nil
}

// WriteJSON encodes g as indented JSON.
func WriteJSON(g *cpg.Graph, w io.Writer) error { return Write(g, w, FormatJSON) }

// WriteYAML encodes g as YAML.
func WriteYAML(g *cpg.Graph, w io.Writer) error { return Write(g, w, FormatYAML) }

// Export writes g to path, choosing the format from its extension.
func Export(g *cpg.Graph, path string) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(g, file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
