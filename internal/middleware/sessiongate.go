package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// Route classes for page navigation. Protected paths require a session,
// public-only paths bounce authenticated users back into the app.
var (
	protectedPrefixes  = []string{"/feed", "/workout", "/profile", "/friends"}
	publicOnlyPrefixes = []string{"/login", "/register", "/profile-setup"}
)

const (
	feedPath  = "/feed"
	loginPath = "/login"
)

// SessionChecker resolves whether the request carries a valid session.
type SessionChecker interface {
	HasSession(r *http.Request) bool
}

// SessionCheckerFunc adapts a function to the SessionChecker interface.
type SessionCheckerFunc func(r *http.Request) bool

func (f SessionCheckerFunc) HasSession(r *http.Request) bool { return f(r) }

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// SessionGate runs on every navigable request. The session check is
// performed fresh each time; the decision is never cached across
// requests.
//
// Rules: the root redirects to /feed or /login depending on session
// state; protected paths send unauthenticated visitors to /login with
// the original path preserved in a redirect query parameter;
// public-only paths send authenticated visitors to /feed; everything
// else passes through.
func SessionGate(checker SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			authed := checker.HasSession(r)

			switch {
			case path == "/":
				if authed {
					http.Redirect(w, r, feedPath, http.StatusFound)
				} else {
					http.Redirect(w, r, loginPath, http.StatusFound)
				}
				return
			case hasPrefix(path, protectedPrefixes):
				if !authed {
					target := loginPath + "?redirect=" + url.QueryEscape(path)
					http.Redirect(w, r, target, http.StatusFound)
					return
				}
			case hasPrefix(path, publicOnlyPrefixes):
				if authed {
					http.Redirect(w, r, feedPath, http.StatusFound)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CookieSessionChecker validates the session cookie's access token via
// the given verifier.
type CookieSessionChecker struct {
	Verify func(token string) error
}

func (c *CookieSessionChecker) HasSession(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	return c.Verify(cookie.Value) == nil
}
