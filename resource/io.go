package resource

import (
	"context"
	"io"
)

// ThrottledWriter writes through to an io.Writer once the controller's IO
// budget allows it, and counts the bytes that reached the writer.
type ThrottledWriter struct {
	ctx     context.Context
	dst     io.Writer
	rc      *Controller
	written int64
}

// NewThrottledWriter wraps dst. A nil controller never throttles.
func NewThrottledWriter(ctx context.Context, dst io.Writer, rc *Controller) *ThrottledWriter {
	return &ThrottledWriter{ctx: ctx, dst: dst, rc: rc}
}

func (w *ThrottledWriter) Write(p []byte) (int, error) {
	if err := w.rc.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	n, err := w.dst.Write(p)
	w.written += int64(n)
	return n, err
}

// Written returns the number of bytes written to the underlying writer.
func (w *ThrottledWriter) Written() int64 { return w.written }
