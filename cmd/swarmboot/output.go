// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/swarmboot/swarmboot/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeStructured encodes v as JSON, YAML or TOML. It reports false, writing
// nothing, when format is text. TOML needs a struct or map at the top level.
func writeStructured(w io.Writer, format config.OutputFormat, v any) (bool, error) {
	switch format {
	case config.OutputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return true, err
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return true, enc.Close()
	case config.OutputTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		if err := enc.Encode(v); err != nil {
			return true, fmt.Errorf("failed to encode TOML: %w", err)
		}
		return true, nil
	default:
		return false, nil
	}
}
