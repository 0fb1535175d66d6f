package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/shelfsync/backend/internal/domain"
)

// JSONLWriter writes one canonical product per line. It is safe for
// concurrent use by the batch workers.
type JSONLWriter struct {
	mu      sync.Mutex
	buf     *bufio.Writer
	enc     *json.Encoder
	closer  io.Closer
	written int
}

// NewJSONLWriter writes to w. Close flushes but only closes w when it is an
// io.Closer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	jw := &JSONLWriter{buf: buf, enc: enc}
	if c, ok := w.(io.Closer); ok {
		jw.closer = c
	}
	return jw
}

// OpenFile appends to the JSONL file at path, creating it and its directory
// when missing, so a resumed run extends the earlier output.
func OpenFile(path string) (*JSONLWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return NewJSONLWriter(f), nil
}

// Write appends product as one JSON line.
func (w *JSONLWriter) Write(ctx context.Context, product *domain.CanonicalProduct) error {
	if product == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(product); err != nil {
		return fmt.Errorf("encode product %s: %w", product.URL, err)
	}
	w.written++
	return nil
}

// Written returns the number of products written so far.
func (w *JSONLWriter) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Flush writes buffered lines to the underlying writer.
func (w *JSONLWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Flush()
}

// Close flushes and closes the underlying file.
func (w *JSONLWriter) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
