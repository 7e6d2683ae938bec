package flow

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/matheuscscp/declarative-oauth2/internal/document"
	"github.com/matheuscscp/declarative-oauth2/internal/logging"
	"github.com/matheuscscp/declarative-oauth2/internal/spec"
	"github.com/matheuscscp/declarative-oauth2/internal/template"
)

const (
	// TokenExpiryDateKey is the output key of the absolute token expiry
	// computed from the extracted expiry key.
	TokenExpiryDateKey = "token_expiry_date"

	stateAlphabet         = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.-_"
	fallbackStateAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	fallbackStateLength   = 7
)

// specHandler turns a declarative configuration into template maps, renders
// templates and extracts outputs from token responses.
type specHandler struct {
	interpolator  *template.Interpolator
	now           func() time.Time
	stateSupplier func() (string, error)
}

func newSpecHandler() specHandler {
	return specHandler{
		interpolator:  template.New(),
		now:           time.Now,
		stateSupplier: defaultStateSupplier,
	}
}

func defaultStateSupplier() (string, error) {
	return randomString(fallbackStateAlphabet, fallbackStateLength)
}

// generateState returns a new state. Bounded states are drawn from the
// extended alphabet with a length uniform in [min,max].
func (h *specHandler) generateState(c *spec.Config) (string, error) {
	if c.State == nil {
		s, err := h.stateSupplier()
		if err != nil {
			return "", fmt.Errorf("failed to generate state: %w", err)
		}
		return s, nil
	}

	lo, hi, err := c.State.Range()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	n, err := randomInt(hi - lo + 1)
	if err != nil {
		return "", fmt.Errorf("failed to generate state length: %w", err)
	}
	s, err := randomString(stateAlphabet, lo+n)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return s, nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func randomString(alphabet string, length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		idx, err := randomInt(len(alphabet))
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx]
	}
	return string(b), nil
}

// defaultValues seeds a template map with the key aliases and every field
// of the configuration, stringified.
func defaultValues(c *spec.Config) (template.Values, error) {
	values := make(template.Values)
	for _, k := range spec.MandatoryKeys {
		values[k.OverrideField()] = k.DefaultAlias()
	}
	for k, v := range c.Fields() {
		s, err := document.String(v)
		if err != nil {
			return nil, fmt.Errorf("failed to stringify configuration field '%s': %w", k, err)
		}
		values[k] = s
	}
	return values, nil
}

// templateValues builds the template map of one protocol phase. Each phase
// value is stored under the configured alias of its key, and the value and
// parameter references are derived from it.
func templateValues(c *spec.Config, phase map[spec.Key]string) (template.Values, error) {
	values, err := defaultValues(c)
	if err != nil {
		return nil, err
	}
	for k, v := range phase {
		values[c.Alias(k)] = v
	}
	for _, k := range spec.MandatoryKeys {
		alias := c.Alias(k)
		v, ok := values[alias]
		if !ok {
			continue
		}
		values[k.ValueRef()] = v
		if k == spec.KeyRedirectURI || k == spec.KeyScope {
			v = url.QueryEscape(v)
		}
		values[k.ParamRef()] = alias + "=" + v
	}
	return values, nil
}

func consentValues(c *spec.Config, clientID, redirectURL, state string) (template.Values, error) {
	return templateValues(c, map[spec.Key]string{
		spec.KeyClientID:    clientID,
		spec.KeyRedirectURI: redirectURL,
		spec.KeyState:       state,
	})
}

func tokenValues(c *spec.Config, params *spec.ParamConfig, authCode, redirectURL, state string) (template.Values, error) {
	return templateValues(c, map[spec.Key]string{
		spec.KeyClientID:     params.ClientID,
		spec.KeyClientSecret: params.ClientSecret,
		spec.KeyAuthCode:     authCode,
		spec.KeyRedirectURI:  redirectURL,
		spec.KeyState:        state,
	})
}

func (h *specHandler) render(ctx context.Context, values template.Values, tmpl string) (string, error) {
	s, err := h.interpolator.Render(values, tmpl)
	if err != nil {
		if errors.Is(err, template.ErrRestrictedContext) {
			logging.FromContext(ctx).WithError(err).Error("template rejected by interpolation policy")
		}
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return s, nil
}

// renderURL renders a URL template and normalizes the result. field names
// the configuration field the template comes from.
func (h *specHandler) renderURL(ctx context.Context, values template.Values, tmpl, field string) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("%w: '%s' is not declared", ErrMissingField, field)
	}
	s, err := h.render(ctx, values, tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to render '%s': %w", field, err)
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: '%s' rendered to an unparsable url: %w", ErrInvalidURL, field, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: '%s' rendered to a url without scheme or host", ErrInvalidURL, field)
	}
	return u.String(), nil
}

// renderMap renders both the keys and the values of a template map.
func (h *specHandler) renderMap(ctx context.Context, values template.Values, m map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for k, v := range m {
		key, err := h.render(ctx, values, k)
		if err != nil {
			return nil, fmt.Errorf("failed to render key '%s': %w", k, err)
		}
		tmpl, err := document.String(v)
		if err != nil {
			return nil, fmt.Errorf("failed to stringify value of '%s': %w", k, err)
		}
		value, err := h.render(ctx, values, tmpl)
		if err != nil {
			return nil, fmt.Errorf("failed to render value of '%s': %w", k, err)
		}
		out[key] = value
	}
	return out, nil
}

// extractOutput pulls every declared output path from the token response.
// A missing path fails the whole extraction.
func (h *specHandler) extractOutput(c *spec.Config, body []byte, tokenURL string, status int) (map[string]any, error) {
	paths := c.Outputs()
	out := make(map[string]any, len(paths)+1)
	for _, path := range paths {
		key := document.LastSegment(path)
		res, ok := document.Get(body, path)
		if !ok {
			return nil, fmt.Errorf("%w: '%s' not found in the token response of %s (status %d), expected fields: [%s]",
				ErrMissingField, key, redactURL(tokenURL), status, strings.Join(paths, ", "))
		}
		value, err := document.String(res)
		if err != nil {
			return nil, fmt.Errorf("failed to read '%s' from the token response: %w", key, err)
		}
		if key == c.ExpiryKey() {
			expiry, err := h.expiryDate(value)
			if err != nil {
				return nil, fmt.Errorf("failed to compute token expiry from '%s': %w", key, err)
			}
			out[TokenExpiryDateKey] = expiry
		}
		out[key] = value
	}
	return out, nil
}

func (h *specHandler) expiryDate(seconds string) (string, error) {
	n, err := cast.ToInt64E(seconds)
	if err != nil {
		return "", err
	}
	return h.now().Add(time.Duration(n) * time.Second).UTC().Format(time.RFC3339Nano), nil
}

// redactURL drops the query and fragment, which may carry secrets.
func redactURL(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
