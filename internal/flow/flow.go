// Package flow implements the OAuth 2.0 authorization code grant driven by a
// declarative provider specification.
package flow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/matheuscscp/declarative-oauth2/internal/constants"
	"github.com/matheuscscp/declarative-oauth2/internal/document"
	"github.com/matheuscscp/declarative-oauth2/internal/logging"
	"github.com/matheuscscp/declarative-oauth2/internal/spec"
	"github.com/matheuscscp/declarative-oauth2/internal/template"
	"github.com/matheuscscp/declarative-oauth2/internal/validation"
)

const (
	maxResponseSize = 1 << 20 // 1MiB
)

// Flow is the declarative OAuth 2.0 flow engine. It holds no per-call state
// and is safe for concurrent use.
type Flow struct {
	httpClient *http.Client
	handler    specHandler
}

// Option configures a Flow.
type Option func(*Flow)

// WithHTTPClient sets the client used for the token exchange. A client
// found in the context under oauth2.HTTPClient takes precedence.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Flow) {
		f.httpClient = c
	}
}

// WithNowFunc sets the clock used to compute token expiry dates.
func WithNowFunc(now func() time.Time) Option {
	return func(f *Flow) {
		f.handler.now = now
	}
}

// WithStateSupplier sets the state generator used when the configuration
// declares no state bounds.
func WithStateSupplier(supplier func() (string, error)) Option {
	return func(f *Flow) {
		f.handler.stateSupplier = supplier
	}
}

// WithInterpolator sets the template interpolator.
func WithInterpolator(i *template.Interpolator) Option {
	return func(f *Flow) {
		f.handler.interpolator = i
	}
}

func New(opts ...Option) *Flow {
	f := &Flow{
		httpClient: http.DefaultClient,
		handler:    newSpecHandler(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type extraInputKey struct{}

// WithExtraInput returns a context carrying values added to the user input
// configuration after it passed schema validation, so they are not subject
// to the input schema. Keys present in the input win.
func WithExtraInput(ctx context.Context, extra map[string]any) context.Context {
	return context.WithValue(ctx, extraInputKey{}, extra)
}

func withExtraInput(ctx context.Context, input map[string]any) map[string]any {
	extra, _ := ctx.Value(extraInputKey{}).(map[string]any)
	if len(extra) == 0 {
		return input
	}
	out := document.Clone(input)
	if out == nil {
		out = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// Consent is the result of the consent phase.
type Consent struct {
	URL string
	// State must be echoed back by the provider on the callback. The caller
	// correlates it, the engine keeps no record of it.
	State string
}

// BuildConsentURL returns the URL the user must be redirected to in order to
// grant consent. It performs no network I/O.
func (f *Flow) BuildConsentURL(ctx context.Context, definitionID uuid.UUID, redirectURL string,
	input map[string]any, s *spec.OAuthConfigSpecification, params *spec.ParamConfig) (string, error) {

	consent, err := f.BuildConsent(ctx, definitionID, redirectURL, input, s, params)
	if err != nil {
		return "", err
	}
	return consent.URL, nil
}

// BuildConsent is like BuildConsentURL but also returns the generated state.
func (f *Flow) BuildConsent(ctx context.Context, definitionID uuid.UUID, redirectURL string,
	input map[string]any, s *spec.OAuthConfigSpecification, params *spec.ParamConfig) (*Consent, error) {

	l := logging.FromContext(ctx).WithField("definitionID", definitionID)

	if err := validateInput(s, input); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("%w for definition %s", ErrParamConfigNotFound, definitionID)
	}
	conf, err := effectiveConfig(s, withExtraInput(ctx, input))
	if err != nil {
		return nil, err
	}

	state, err := f.handler.generateState(conf)
	if err != nil {
		return nil, err
	}
	values, err := consentValues(conf, params.ClientID, redirectURL, state)
	if err != nil {
		return nil, err
	}
	consentURL, err := f.handler.renderURL(ctx, values, conf.ConsentURL, "consent_url")
	if err != nil {
		return nil, err
	}

	l.WithField("templateKeys", sortedKeys(values)).Debug("consent url built")
	return &Consent{URL: consentURL, State: state}, nil
}

// CompleteFlow exchanges the authorization code delivered on the callback
// for tokens and returns the declared outputs. A user that declined consent
// yields a negative result instead of an error. Nothing is retried.
func (f *Flow) CompleteFlow(ctx context.Context, callbackParams map[string]string, redirectURL string,
	input map[string]any, s *spec.OAuthConfigSpecification, params *spec.ParamConfig) (map[string]any, error) {

	l := logging.FromContext(ctx)

	if err := validateInput(s, input); err != nil {
		return nil, err
	}
	if code := callbackParams[constants.QueryParamError]; code == constants.OAuthErrorAccessDenied {
		l.WithField("error", code).Info("user declined consent")
		return map[string]any{
			constants.OutputRequestSucceeded: false,
			constants.OutputRequestError:     code,
		}, nil
	}
	if params == nil {
		return nil, ErrParamConfigNotFound
	}
	conf, err := effectiveConfig(s, withExtraInput(ctx, input))
	if err != nil {
		return nil, err
	}

	authCode, err := callbackParam(callbackParams, conf, spec.KeyAuthCode)
	if err != nil {
		return nil, err
	}
	state, err := callbackParam(callbackParams, conf, spec.KeyState)
	if err != nil {
		return nil, err
	}

	values, err := tokenValues(conf, params, authCode, redirectURL, state)
	if err != nil {
		return nil, err
	}
	tokenURL, err := f.handler.renderURL(ctx, values, conf.AccessTokenURL, "access_token_url")
	if err != nil {
		return nil, err
	}
	body, err := f.handler.renderMap(ctx, values, conf.AccessTokenParams)
	if err != nil {
		return nil, fmt.Errorf("failed to render access_token_params: %w", err)
	}
	headers, err := f.handler.renderMap(ctx, values, conf.AccessTokenHeaders)
	if err != nil {
		return nil, fmt.Errorf("failed to render access_token_headers: %w", err)
	}
	contentType := selectContentType(conf)

	l = l.WithFields(logrus.Fields{
		"tokenURL":    redactURL(tokenURL),
		"contentType": contentType.String(),
		"bodyKeys":    sortedKeys(body),
		"headerKeys":  sortedKeys(headers),
	})
	l.Debug("exchanging authorization code")

	respBody, status, err := f.exchange(ctx, tokenURL, contentType, headers, body)
	if err != nil {
		return nil, err
	}
	output, err := f.handler.extractOutput(conf, respBody, tokenURL, status)
	if err != nil {
		return nil, err
	}

	result, err := formatOutput(s, params, output)
	if err != nil {
		return nil, err
	}

	l.WithField("outputKeys", sortedKeys(result)).Info("authorization code exchanged")
	return result, nil
}

// CallbackStateKey returns the name of the callback parameter that carries
// the state, as declared by the effective configuration.
func CallbackStateKey(s *spec.OAuthConfigSpecification, input map[string]any) (string, error) {
	if s == nil {
		return "", ErrMissingSpec
	}
	conf, err := effectiveConfig(s, input)
	if err != nil {
		return "", err
	}
	return conf.Alias(spec.KeyState), nil
}

// Revoke revokes the tokens of a completed flow. Declarative providers do
// not support revocation, so it does nothing.
func (f *Flow) Revoke(ctx context.Context, output map[string]any) error {
	return nil
}

func (f *Flow) exchange(ctx context.Context, tokenURL string, contentType ContentType,
	headers, params map[string]string) ([]byte, int, error) {

	reqBody, err := contentType.Encode(params)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set(constants.HeaderContentType, contentType.String())
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client(ctx).Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send token request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read token response: %w", err)
	}
	if _, err := document.Parse(b); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse token response (status %d): %w", resp.StatusCode, err)
	}
	return b, resp.StatusCode, nil
}

func (f *Flow) client(ctx context.Context) *http.Client {
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && c != nil {
		return c
	}
	return f.httpClient
}

func validateInput(s *spec.OAuthConfigSpecification, input map[string]any) error {
	if s == nil {
		return ErrMissingSpec
	}
	if err := validation.Ensure(s.OAuthUserInputFromConnectorConfigSpecification, input); err != nil {
		return fmt.Errorf("failed to validate input oauth configuration: %w", err)
	}
	return nil
}

// effectiveConfig merges the declarative configuration on top of the user
// input configuration.
func effectiveConfig(s *spec.OAuthConfigSpecification, input map[string]any) (*spec.Config, error) {
	merged, err := document.Merge(input, s.OAuthConnectorInputSpecification)
	if err != nil {
		return nil, err
	}
	conf, err := spec.ParseConfig(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return conf, nil
}

func callbackParam(params map[string]string, conf *spec.Config, k spec.Key) (string, error) {
	name := conf.Alias(k)
	v, ok := params[name]
	if !ok {
		return "", fmt.Errorf("%w: undefined %s '%s' in callback parameters, keys available: %v",
			ErrMissingField, k.OverrideField(), name, sortedKeys(params))
	}
	return v, nil
}

// formatOutput filters the extracted output through the output
// specifications and validates each part against its schema. Declared
// server outputs present in the provider parameter configuration are
// reported masked.
func formatOutput(s *spec.OAuthConfigSpecification, params *spec.ParamConfig, output map[string]any) (map[string]any, error) {
	result := make(map[string]any)
	for _, k := range spec.OutputProperties(s.CompleteOAuthOutputSpecification) {
		if v, ok := output[k]; ok {
			result[k] = v
		}
	}
	if err := validation.Ensure(s.CompleteOAuthOutputSpecification, result); err != nil {
		return nil, fmt.Errorf("failed to validate oauth output: %w", err)
	}

	server := make(map[string]any)
	for _, k := range spec.OutputProperties(s.CompleteOAuthServerOutputSpecification) {
		if params.Has(k) {
			server[k] = constants.SecretMask
		}
	}
	if err := validation.Ensure(s.CompleteOAuthServerOutputSpecification, server); err != nil {
		return nil, fmt.Errorf("failed to validate oauth server output: %w", err)
	}

	for k, v := range server {
		result[k] = v
	}
	return result, nil
}
