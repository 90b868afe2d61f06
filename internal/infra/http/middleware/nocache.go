package middleware

import "net/http"

// NoCache marks responses as never cacheable. Verdicts depend on the time of
// the request and the CRM state at that moment.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetNoCache(w.Header())
		next.ServeHTTP(w, r)
	})
}

func SetNoCache(h http.Header) {
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
