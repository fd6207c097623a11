package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var noCacheHeaders = map[string]string{
	"Expires":         time.Unix(0, 0).Format(time.RFC1123),
	"Cache-Control":   "no-cache, private, max-age=0",
	"Pragma":          "no-cache",
	"X-Accel-Expires": "0",
}

// SetNoCacheHeaders instructs clients and proxies not to cache the response.
func SetNoCacheHeaders(w http.ResponseWriter) {
	if w == nil {
		return
	}
	for k, v := range noCacheHeaders {
		w.Header().Set(k, v)
	}
}

// LimitRead reads and closes r. If r holds more than limit bytes, an error
// carrying http.StatusRequestEntityTooLarge is returned.
func LimitRead(r io.ReadCloser, limit int64) ([]byte, error) {
	defer r.Close()
	lr := io.LimitReader(r, limit)

	// Read as far as we are allowed to
	bodyBytes, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	// If we read exactly the limit, the body might be larger
	if int64(len(bodyBytes)) == limit {
		// Try to read one more byte
		buf := make([]byte, 1)
		var n int
		if n, err = r.Read(buf); err != nil && err != io.EOF {
			return nil, fmt.Errorf(
				"failed to check for additional content: %w",
				err,
			)
		}
		if n > 0 {
			return nil, Error(
				fmt.Errorf("content exceeds limit of %d bytes", limit),
				http.StatusRequestEntityTooLarge,
			)
		}
	}
	return bodyBytes, nil
}

// WriteResponseJSON writes body to w as JSON with the given status code. A
// nil body is written as an empty object.
func WriteResponseJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if body == nil {
		body = struct{}{}
	}
	_ = json.NewEncoder(w).Encode(body)
}
