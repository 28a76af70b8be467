package storefront

import (
	"net/http"
	"strings"
)

// maxFormBytes caps form-encoded request bodies.
const maxFormBytes = 64 << 10

// pageCSP allows the inline watch map script and nothing else from outside.
const pageCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; frame-ancestors 'none'"

// securityHeaders sets the headers every shop response carries.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", pageCSP)
		// Envelopes differ from the page at the same URL.
		h.Add("Vary", "X-Requested-With")
		next.ServeHTTP(w, r)
	})
}

// maxFormBody limits form-encoded bodies, with or without a charset
// parameter. Other content types pass through.
func maxFormBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// headToGet lets GET routes answer HEAD.
func headToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
