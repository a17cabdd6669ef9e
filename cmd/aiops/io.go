package main

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// decodeInput turns a JSON or YAML document into operation arguments. YAML is
// chosen by file extension.
func decodeInput(path string, data []byte) (json.RawMessage, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to parse yaml input")
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert yaml input")
		}
		return raw, nil
	default:
		if !json.Valid(data) {
			return nil, errors.New("input is not valid JSON")
		}
		return json.RawMessage(data), nil
	}
}

// encodeOutput writes v as indented JSON or as YAML. Strings (markdown
// operations) are written as-is.
func encodeOutput(w io.Writer, v any, format string) error {
	if s, ok := v.(string); ok {
		_, err := io.WriteString(w, s+"\n")
		return err
	}
	switch format {
	case formatYAML:
		// Round-trip through JSON so YAML keys follow the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "failed to encode output")
		}
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return errors.Wrap(err, "failed to convert output")
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "failed to write yaml")
		}
		return enc.Close()
	case formatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "failed to write json")
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}
