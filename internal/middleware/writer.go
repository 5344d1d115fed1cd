package middleware

import "net/http"

// hookWriter runs before once, just before the status line goes out.
// Stages use it to add headers or cookies after the handler ran but before
// anything is committed.
type hookWriter struct {
	http.ResponseWriter
	before func(http.Header)
	fired  bool
	status int
}

func newHookWriter(w http.ResponseWriter, before func(http.Header)) *hookWriter {
	return &hookWriter{ResponseWriter: w, before: before}
}

func (w *hookWriter) fire() {
	if !w.fired {
		w.fired = true
		w.before(w.Header())
	}
}

func (w *hookWriter) WriteHeader(code int) {
	w.fire()
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *hookWriter) Write(b []byte) (int, error) {
	w.fire()
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *hookWriter) Flush() {
	w.fire()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *hookWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Status returns the written status, 0 if nothing went out yet.
func (w *hookWriter) Status() int { return w.status }
