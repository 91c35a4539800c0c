package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/weavecache/codec"
	"github.com/hupe1980/weavecache/resource"
)

// Record summarizes one frequency partition of one semicoherent block.
type Record struct {
	Partition  int       `json:"partition" yaml:"partition"`
	SemiIndex  uint64    `json:"semi_index" yaml:"semi_index"`
	Freq       float64   `json:"freq" yaml:"freq"`
	NFreqs     int       `json:"nfreqs" yaml:"nfreqs"`
	Params     []float64 `json:"params" yaml:"params,flow"`
	PeakBin    int       `json:"peak_bin" yaml:"peak_bin"`
	PeakFreq   float64   `json:"peak_freq" yaml:"peak_freq"`
	PeakPower  float32   `json:"peak_power" yaml:"peak_power"`
	CohIndexes []uint64  `json:"coh_indexes" yaml:"coh_indexes,flow"`
}

// RecordWriter writes records as a compressed codec stream.
type RecordWriter struct {
	stream *codec.StreamWriter
	comp   io.WriteCloser
	out    *resource.ThrottledWriter

	closed   bool
	closeErr error
}

// NewRecordWriter creates a RecordWriter on w. Writes to w wait for the IO
// budget of rc, which may be nil.
func NewRecordWriter(ctx context.Context, w io.Writer, c codec.Codec, compression Compression, level int, rc *resource.Controller) (*RecordWriter, error) {
	out := resource.NewThrottledWriter(ctx, w, rc)
	comp, err := newCompressor(out, compression, level)
	if err != nil {
		return nil, err
	}
	return &RecordWriter{
		stream: codec.NewStreamWriter(comp, c),
		comp:   comp,
		out:    out,
	}, nil
}

// Write appends r to the stream.
func (w *RecordWriter) Write(r Record) error {
	return w.stream.Write(r)
}

// Count returns the number of records written.
func (w *RecordWriter) Count() int { return w.stream.Count() }

// Bytes returns the number of bytes that reached the underlying writer, after
// compression. It is final only once Close has returned.
func (w *RecordWriter) Bytes() int64 { return w.out.Written() }

// Close flushes the compressor. The underlying writer is not closed.
// Repeated calls return the result of the first.
func (w *RecordWriter) Close() error {
	if w.closed {
		return w.closeErr
	}
	w.closed = true
	w.closeErr = w.comp.Close()
	return w.closeErr
}

// ReadRecords decodes every record of a stream written by a RecordWriter and
// passes it to fn.
func ReadRecords(r io.Reader, c codec.Codec, compression Compression, fn func(Record) error) error {
	if c == nil {
		c = codec.Default
	}

	rc, err := newDecompressor(r, compression)
	if err != nil {
		return err
	}
	defer rc.Close()

	dec := c.NewDecoder(rc)
	for i := 0; ; i++ {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode record %d: %w", i, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
