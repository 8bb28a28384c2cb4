package http

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Timeout bounds how long a status API handler may run. When the deadline
// passes, the client gets 504 and the handler's context is canceled; any
// writes the abandoned handler attempts afterwards are discarded. Exactly
// one side writes the response, enforced by a shared lock.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()
			r = r.WithContext(ctx)

			gw := &guardedWriter{ResponseWriter: w}

			done := make(chan struct{})
			go func() {
				next.ServeHTTP(gw, r)
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				gw.mu.Lock()
				gw.abandoned = true
				if !gw.wrote {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					_, _ = w.Write([]byte(`{"error":"request timeout"}`))
				}
				gw.mu.Unlock()
			}
		})
	}
}

// guardedWriter discards handler writes once the timeout response has been
// sent, so an abandoned handler cannot corrupt the client's response.
type guardedWriter struct {
	http.ResponseWriter
	mu        sync.Mutex
	abandoned bool
	wrote     bool
}

func (w *guardedWriter) WriteHeader(status int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.abandoned || w.wrote {
		return
	}
	w.wrote = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *guardedWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.abandoned {
		return 0, http.ErrHandlerTimeout
	}
	if !w.wrote {
		w.wrote = true
		w.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
