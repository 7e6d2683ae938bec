package provider

import (
	"context"

	"github.com/matheuscscp/declarative-oauth2/internal/flow"
)

// Interface is one configured connector driven by the declarative flow
// engine.
type Interface interface {
	Name() string
	// StateKey is the callback parameter that carries the state.
	StateKey() (string, error)
	BuildConsent(ctx context.Context, redirectURL, codeVerifier string) (*flow.Consent, error)
	CompleteFlow(ctx context.Context, callbackParams map[string]string, redirectURL, codeVerifier string) (map[string]any, error)
}
