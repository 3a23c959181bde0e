// pkg/server/respond.go

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"AveList/pkg/compress"
)

type errorBody struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

type failure struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// negotiate picks the first compressor the client accepts.
func negotiate(r *http.Request) compress.Compressor {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name := strings.TrimSpace(part)
		if i := strings.IndexByte(name, ';'); i >= 0 {
			name = strings.TrimSpace(name[:i])
		}
		for _, known := range compress.Names() {
			if strings.EqualFold(name, known) {
				return compress.NewCompressor(known)
			}
		}
	}
	return nil
}

// writeJSON encodes v, compressing it when the client asked for it and the
// server allows it (see withCompression).
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("json: %s", err)
		status = http.StatusInternalServerError
		body = []byte(`{"success":false,"error":{"message":"encode response"}}`)
	}
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	if c := negotiate(r); c != nil && compressionAllowed(r) {
		if out, err := compress.Encode(c, body); err == nil {
			h.Set("Content-Encoding", c.Name())
			h.Set(compress.RawLengthHeader, strconv.Itoa(len(body)))
			h.Add("Vary", "Accept-Encoding")
			body = out
		} else {
			logger.Warnf("compress with %s: %s", c.Name(), err)
		}
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, failure{Error: errorBody{Message: msg}})
}
