package store

import (
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	transactionMaxSize = 10000 // in bytes
)

// Transaction represents one declarative OAuth 2.0 authorization in flight.
// It records the provider and host that started it, the redirect URL sent
// in the consent URL, and the PKCE code verifier generated for it.
type Transaction struct {
	Provider     string
	Host         string
	RedirectURL  string
	CodeVerifier string
}

func NewTransaction(r *http.Request, provider, redirectURL string) *Transaction {
	return &Transaction{
		Provider:     provider,
		Host:         r.Host,
		RedirectURL:  redirectURL,
		CodeVerifier: oauth2.GenerateVerifier(),
	}
}

// Verify checks that the callback reached the same host and provider that
// started the transaction.
func (t *Transaction) Verify(r *http.Request, provider string) error {
	if t.Provider != provider {
		return fmt.Errorf("transaction was started for provider '%s', got callback for '%s'", t.Provider, provider)
	}
	if t.Host != r.Host {
		return fmt.Errorf("transaction was started on host '%s', got callback on '%s'", t.Host, r.Host)
	}
	return nil
}

func (t *Transaction) size() uint {
	return uint(len(t.Provider) + len(t.Host) + len(t.RedirectURL) + len(t.CodeVerifier))
}
