package declarative

import (
	"context"

	"github.com/matheuscscp/declarative-oauth2/internal/config"
	"github.com/matheuscscp/declarative-oauth2/internal/constants"
	"github.com/matheuscscp/declarative-oauth2/internal/flow"
	"github.com/matheuscscp/declarative-oauth2/internal/provider"
)

type declarativeProvider struct {
	conf *config.ProviderConfig
	flow *flow.Flow
}

func New(conf *config.ProviderConfig, f *flow.Flow) provider.Interface {
	return &declarativeProvider{conf: conf, flow: f}
}

func (d *declarativeProvider) Name() string {
	return d.conf.Name
}

func (d *declarativeProvider) StateKey() (string, error) {
	return flow.CallbackStateKey(d.conf.Spec, d.conf.InputConfig())
}

func (d *declarativeProvider) BuildConsent(ctx context.Context, redirectURL, codeVerifier string) (*flow.Consent, error) {
	return d.flow.BuildConsent(withCodeVerifier(ctx, codeVerifier), d.conf.ID(), redirectURL,
		d.conf.InputConfig(), d.conf.Spec, d.conf.ParamConfig())
}

func (d *declarativeProvider) CompleteFlow(ctx context.Context, callbackParams map[string]string,
	redirectURL, codeVerifier string) (map[string]any, error) {

	return d.flow.CompleteFlow(withCodeVerifier(ctx, codeVerifier), callbackParams, redirectURL,
		d.conf.InputConfig(), d.conf.Spec, d.conf.ParamConfig())
}

// withCodeVerifier hands the PKCE code verifier of the transaction to the
// flow outside of the user input, which is validated against the connector
// schema. An operator-supplied verifier in the input wins.
func withCodeVerifier(ctx context.Context, codeVerifier string) context.Context {
	if codeVerifier == "" {
		return ctx
	}
	return flow.WithExtraInput(ctx, map[string]any{constants.QueryParamCodeVerifier: codeVerifier})
}
