package codec

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAML encodes values as YAML documents. Streams are multi-document YAML.
type YAML struct{}

// Marshal encodes the value to YAML.
func (YAML) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

// Unmarshal decodes the YAML data into v.
func (YAML) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// NewDecoder returns a YAML stream decoder.
func (YAML) NewDecoder(r io.Reader) Decoder { return yaml.NewDecoder(r) }

// Name returns the unique name of the codec ("yaml").
func (YAML) Name() string { return "yaml" }
