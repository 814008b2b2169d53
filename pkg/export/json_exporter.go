package export

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONExporter renders values as two-space indented JSON without HTML escaping.
type JSONExporter struct{}

// NewJSONExporter constructs a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Render encodes v as pretty-printed JSON.
func (e *JSONExporter) Render(v interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
