package middleware

import "net/http"

// BodyLimit caps how much of a request body a handler can read. Reads
// past the cap fail, which the JSON decoders surface as a 400; multipart
// uploads additionally enforce their own per-file limit at parse time.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
