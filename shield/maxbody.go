package shield

import "net/http"

// MaxBody returns middleware that caps request bodies at maxBytes. Reads
// past the cap fail with *http.MaxBytesError, which multipart parsing
// surfaces to the handler. A non-positive maxBytes disables the cap.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
