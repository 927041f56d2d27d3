package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/go-http-utils/headers"
	"go.uber.org/zap"
)

// Gunzip decompresses gzip encoded request bodies before they reach next.
// Event batches from editor plugins may arrive compressed.
func Gunzip(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		// Skip if not gzip.
		//
		if !strings.Contains(r.Header.Get(headers.ContentEncoding), "gzip") {
			next.ServeHTTP(w, r)

			return
		}

		body := &bytes.Buffer{}

		g, err := gzip.NewReader(r.Body)
		if err != nil {
			zap.L().Warn("cannot read gzip request body", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

			return
		}
		defer g.Close()

		if _, err := io.Copy(body, g); err != nil { // nolint:gosec
			zap.L().Warn("cannot decompress request body", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

			return
		}

		r.Header.Del(headers.ContentEncoding)
		r.Body = io.NopCloser(body)
		r.ContentLength = int64(body.Len())

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
