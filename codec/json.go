package codec

import (
	"encoding/json"
	"io"
)

// JSON is the standard-library JSON codec, an alternative to GoJSON.
//
// Streams are newline-delimited JSON, one value per line.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// NewDecoder returns a JSON stream decoder.
func (JSON) NewDecoder(r io.Reader) Decoder { return json.NewDecoder(r) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }
