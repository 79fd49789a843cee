package utils

import (
	"net/http"

	"styledecor/globals"
)

// GetIdentityFromRequest returns the verified caller email set by the
// authentication middleware, or "" when the request is unauthenticated.
func GetIdentityFromRequest(r *http.Request) string {
	identity, ok := r.Context().Value(globals.IdentityKey).(string)
	if !ok {
		return ""
	}
	return identity
}
