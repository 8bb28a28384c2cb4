// Package responsewriter wraps http.ResponseWriter so the logging and
// metrics middleware can see the status code and response size after the
// status API handlers have run.
package responsewriter

import (
	"net/http"
)

// Writer records what was written through it. The zero status means no
// header has been sent yet.
type Writer struct {
	http.ResponseWriter
	status int
	bytes  int
}

// Wrap returns a recording writer around w.
func Wrap(w http.ResponseWriter) *Writer {
	return &Writer{ResponseWriter: w}
}

// WriteHeader sends the header once; later calls are dropped, matching the
// net/http contract that the first WriteHeader wins.
func (w *Writer) WriteHeader(status int) {
	if w.status != 0 {
		return
	}
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write sends body bytes, implying a 200 header when none was sent.
func (w *Writer) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// StatusCode returns the status sent to the client. Handlers that wrote a
// body without an explicit header report 200; handlers that wrote nothing
// at all also report 200, matching what net/http sends on return.
func (w *Writer) StatusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// BytesWritten returns the response body size.
func (w *Writer) BytesWritten() int {
	return w.bytes
}

// Unwrap exposes the underlying writer for http.ResponseController.
func (w *Writer) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
