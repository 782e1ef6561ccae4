package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// publicPaths bypass authentication so probes and scrapers need no key.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// apiKeys holds the accepted bearer tokens.
type apiKeys [][]byte

func newAPIKeys(keys []string) apiKeys {
	var out apiKeys
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, []byte(k))
		}
	}
	return out
}

// match compares token against every key in constant time.
func (ks apiKeys) match(token string) bool {
	found := 0
	for _, k := range ks {
		found |= subtle.ConstantTimeCompare(k, []byte(token))
	}
	return found == 1
}

// BearerAuthMiddleware rejects requests without a known "Authorization:
// Bearer <key>" header. With no non-blank keys it is a pass-through.
func BearerAuthMiddleware(keys []string) func(http.Handler) http.Handler {
	known := newAPIKeys(keys)

	return func(next http.Handler) http.Handler {
		if len(known) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}

			scheme, token, _ := strings.Cut(header, " ")
			if !strings.EqualFold(scheme, "Bearer") {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			if !known.match(token) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
