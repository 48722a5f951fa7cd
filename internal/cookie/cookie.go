package cookie

import "net/http"

// Transport carries a session token between client and server in an
// HTTP-only cookie with a configurable name and max age.
type Transport struct {
	Name   string // Cookie name
	MaxAge int    // Cookie lifetime in seconds
}

// New creates a new cookie Transport
func New(name string, maxAge int) *Transport {
	return &Transport{
		Name:   name,
		MaxAge: maxAge,
	}
}

// Extract reads the token from the request cookie. The second return
// value is false when the cookie is absent or empty, which is not an
// error: unauthenticated requests simply carry no cookie.
func (t *Transport) Extract(r *http.Request) (string, bool) {
	c, err := r.Cookie(t.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Attach writes the token onto the response with the configured max age.
func (t *Transport) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   t.MaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear removes the cookie from the client (logout).
func (t *Transport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
