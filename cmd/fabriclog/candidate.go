package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vivaneiona/fabriclog"
)

// writeCandidate prints rec for review. The capture date is left out: it is
// stamped when the record is saved.
func writeCandidate(w io.Writer, rec fabriclog.FabricRecord, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		out := struct {
			Name          string  `json:"name"`
			Material      string  `json:"material"`
			Width         string  `json:"width"`
			LengthM       float64 `json:"length"`
			TotalPrice    int64   `json:"total_price"`
			UnitPricePerM int64   `json:"unit_price_per_m"`
			Color         string  `json:"color"`
			Shop          string  `json:"shop"`
		}{rec.Name, rec.Material, rec.Width, rec.LengthM, rec.TotalPrice, rec.UnitPricePerM, rec.Color, rec.Shop}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// readCandidate loads a record printed by extract. YAML is a superset of
// JSON, so either output format is accepted, as is a hand-written file.
func readCandidate(stdin io.Reader, path string) (fabriclog.FabricRecord, error) {
	var rec fabriclog.FabricRecord
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return rec, err
	}
	if err := yaml.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("candidate %s: %w", path, err)
	}
	return rec, nil
}
