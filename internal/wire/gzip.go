package wire

import (
	"compress/gzip"
	"io"
	"net/http"
)

// decodeBody transparently decompresses a gzip-encoded request body, which
// the Snowflake Go driver sends by default for query and session requests.
func decodeBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") == "gzip" {
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "invalid gzip body", http.StatusBadRequest)
				return
			}
			defer gz.Close()
			r.Body = io.NopCloser(gz)
		}
		next.ServeHTTP(w, r)
	})
}
