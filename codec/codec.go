// Package codec centralizes record encoding.
//
// Record streams are self-describing only through the codec name stored
// alongside them; opening a stream with another codec fails to decode.
package codec

import (
	"fmt"
	"io"
	"sort"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// NewDecoder returns a decoder reading a stream written by a StreamWriter.
	NewDecoder(r io.Reader) Decoder
	Name() string
}

// Decoder reads consecutive values from a stream. Decode returns io.EOF
// after the last value.
type Decoder interface {
	Decode(v any) error
}

var codecs = map[string]Codec{
	"go-json": GoJSON{},
	"json":    JSON{},
	"yaml":    YAML{},
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	c, ok := codecs[name]
	return c, ok
}

// Names returns the names of the built-in codecs in sorted order.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}

// StreamWriter writes a sequence of values with one codec, framing them so
// the codec's Decoder can read them back one by one.
type StreamWriter struct {
	w     io.Writer
	c     Codec
	count int
}

// NewStreamWriter creates a StreamWriter. A nil c uses Default.
func NewStreamWriter(w io.Writer, c Codec) *StreamWriter {
	if c == nil {
		c = Default
	}
	return &StreamWriter{w: w, c: c}
}

// Write encodes and writes v.
func (s *StreamWriter) Write(v any) error {
	b, err := s.c.Marshal(v)
	if err != nil {
		return fmt.Errorf("codec %s: %w", s.c.Name(), err)
	}

	switch s.c.(type) {
	case YAML:
		b = append([]byte("---\n"), b...)
	default:
		b = append(b, '\n')
	}

	if _, err := s.w.Write(b); err != nil {
		return err
	}
	s.count++
	return nil
}

// Count returns the number of values written.
func (s *StreamWriter) Count() int { return s.count }

// Codec returns the codec used by the writer.
func (s *StreamWriter) Codec() Codec { return s.c }
