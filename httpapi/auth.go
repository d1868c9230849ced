package httpapi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// tokenGuard admits requests bearing one of a fixed set of API tokens. Only
// SHA-256 digests of the tokens are held in memory.
type tokenGuard struct {
	digests [][sha256.Size]byte
}

func newTokenGuard(tokens []string) *tokenGuard {
	g := &tokenGuard{}
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			g.digests = append(g.digests, sha256.Sum256([]byte(t)))
		}
	}
	if len(g.digests) == 0 {
		return nil
	}
	return g
}

// allows compares against every digest so timing does not reveal which
// token, if any, matched.
func (g *tokenGuard) allows(token string) bool {
	if token == "" {
		return false
	}
	sum := sha256.Sum256([]byte(token))
	ok := 0
	for i := range g.digests {
		ok |= subtle.ConstantTimeCompare(sum[:], g.digests[i][:])
	}
	return ok == 1
}

// extractBearerToken returns the value of an "Authorization: Bearer <token>"
// header, or "" when absent or malformed.
func extractBearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// authenticate rejects requests without a valid bearer token. Paths listed in
// open pass through.
func (g *tokenGuard) authenticate(open ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range open {
				if r.URL.Path == p {
					next.ServeHTTP(w, r)
					return
				}
			}
			if !g.allows(extractBearerToken(r)) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="passhash"`)
				writeJSON(w, errorResponse{Message: "unauthenticated", Code: "unauthenticated"}, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
