package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "bearer "

// ExtractToken pulls a token from the Authorization header (Bearer scheme)
// or, failing that, from the given query parameter. Live connections may
// hand their token at upgrade time instead of via an authenticate command.
func ExtractToken(r *http.Request, queryParam string) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if strings.HasPrefix(strings.ToLower(header), bearerPrefix) {
			return strings.TrimSpace(header[len(bearerPrefix):])
		}
	}
	if queryParam == "" {
		queryParam = "token"
	}
	return strings.TrimSpace(r.URL.Query().Get(queryParam))
}
