package server

import (
	"errors"
	"net/http"

	"github.com/matheuscscp/declarative-oauth2/internal/config"
)

const (
	stateCookieName = "csrf-state"
)

var (
	errStateCookieMissing = errors.New("state cookie missing or expired")
	errStateQueryMissing  = errors.New("state missing from callback")
	errStateMismatch      = errors.New("callback state does not match state cookie")
)

// setStateCookie binds the consent to the browser that started it. The
// cookie is scoped to the callback path of the provider.
func setStateCookie(w http.ResponseWriter, provider, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     callbackPath(provider),
		MaxAge:   int(config.TransactionTimeout.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// consumeStateCookie deletes the state cookie and checks it against the
// state echoed on the callback. The cookie is deleted even when the check
// fails.
func consumeStateCookie(w http.ResponseWriter, r *http.Request, provider, callbackState string) (string, error) {
	c, err := r.Cookie(stateCookieName)
	if err != nil || c.Value == "" {
		return "", errStateCookieMissing
	}

	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Path:   callbackPath(provider),
		MaxAge: -1,
	})

	switch {
	case callbackState == "":
		return "", errStateQueryMissing
	case callbackState != c.Value:
		return "", errStateMismatch
	}
	return c.Value, nil
}
