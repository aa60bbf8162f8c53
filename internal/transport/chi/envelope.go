package chi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// envelope is the uniform body every API response is rewritten into.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// envelopeExempt reports paths served as-is: docs, schema, metrics, health and the landing page.
func envelopeExempt(path string) bool {
	switch {
	case path == "/", path == "/metrics", path == "/health":
		return true
	case strings.HasPrefix(path, "/docs"), strings.HasPrefix(path, "/openapi"):
		return true
	}
	return false
}

// EnvelopeMiddleware rewrites JSON responses into {code, message, data}.
// Successful bodies become data with message "Success". Error bodies of the
// form {"detail": ...} carry a string detail as message, or a field error
// list as data with message "Validation error".
func EnvelopeMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if envelopeExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			bw := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(bw, r)

			if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
				bw.flush()
				return
			}

			body := wrap(bw.status, bytes.TrimSpace(bw.buf.Bytes()))
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(bw.status)
			_, _ = w.Write(body)
		})
	}
}

func wrap(status int, raw []byte) []byte {
	env := envelope{Code: status, Message: "Success"}
	if status < http.StatusBadRequest {
		if len(raw) > 0 && json.Valid(raw) {
			env.Data = raw
		}
		return mustMarshal(env)
	}

	env.Message = http.StatusText(status)
	var errBody struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &errBody) == nil && len(errBody.Detail) > 0 {
		var msg string
		if json.Unmarshal(errBody.Detail, &msg) == nil {
			env.Message = msg
		} else {
			env.Data = errBody.Detail
			if status == http.StatusUnprocessableEntity {
				env.Message = "Validation error"
			}
		}
	}
	return mustMarshal(env)
}

// mustMarshal encodes env. Data is always valid JSON at this point.
func mustMarshal(env envelope) []byte {
	b, _ := json.Marshal(env)
	return b
}

// bufferedWriter holds the response until the handler returns.
type bufferedWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	buf         bytes.Buffer
}

func (b *bufferedWriter) WriteHeader(status int) {
	if !b.wroteHeader {
		b.status = status
		b.wroteHeader = true
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.buf.Write(p) //nolint:wrapcheck // in-memory buffer
}

func (b *bufferedWriter) flush() {
	b.ResponseWriter.WriteHeader(b.status)
	_, _ = b.ResponseWriter.Write(b.buf.Bytes())
}
