package spec

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// Key names a mandatory template key.
type Key string

const (
	KeyAuthCode     Key = "auth_code"
	KeyClientID     Key = "client_id"
	KeyClientSecret Key = "client_secret"
	KeyRedirectURI  Key = "redirect_uri"
	KeyScope        Key = "scope"
	KeyState        Key = "state"
)

// MandatoryKeys lists the mandatory keys in a stable order.
var MandatoryKeys = []Key{
	KeyAuthCode,
	KeyClientID,
	KeyClientSecret,
	KeyRedirectURI,
	KeyScope,
	KeyState,
}

// OverrideField is the configuration field overriding the key alias, e.g.
// "client_id_key".
func (k Key) OverrideField() string { return string(k) + "_key" }

// DefaultAlias is the alias used when the configuration does not override it.
func (k Key) DefaultAlias() string {
	if k == KeyAuthCode {
		return "code"
	}
	return string(k)
}

// ValueRef is the canonical placeholder name for the raw value, e.g.
// "client_id_value".
func (k Key) ValueRef() string { return string(k) + "_value" }

// ParamRef is the placeholder name for the "alias=value" pair, e.g.
// "client_id_param".
func (k Key) ParamRef() string { return string(k) + "_param" }

const (
	DefaultTokenExpiryKey = "expires_in"
	DefaultExtractOutput  = "refresh_token"
	DefaultStateMin       = 7
	DefaultStateMax       = 24

	fieldConsentURL         = "consent_url"
	fieldAccessTokenURL     = "access_token_url"
	fieldAccessTokenParams  = "access_token_params"
	fieldAccessTokenHeaders = "access_token_headers"
	fieldExtractOutput      = "extract_output"
	fieldState              = "state"
	fieldTokenExpiryKey     = "token_expiry_key"
	fieldStateMin           = "min"
	fieldStateMax           = "max"
)

// StateBounds bounds the length of a generated state.
type StateBounds struct {
	Min *int
	Max *int
}

// Range returns the bounds with defaults applied.
func (s *StateBounds) Range() (int, int, error) {
	lo, hi := DefaultStateMin, DefaultStateMax
	if s.Min != nil {
		lo = *s.Min
	}
	if s.Max != nil {
		hi = *s.Max
	}
	if lo < 1 {
		return 0, 0, fmt.Errorf("%w: state min must be at least 1, got %d", ErrInvalidConfig, lo)
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("%w: state min %d is greater than max %d", ErrInvalidConfig, lo, hi)
	}
	return lo, hi, nil
}

// Config is the effective declarative configuration: the user input
// configuration merged with the declarative spec. Known fields are typed,
// everything else is kept in Extra so templates can reference it.
type Config struct {
	ConsentURL     string
	AccessTokenURL string
	// AccessTokenParams and AccessTokenHeaders are template maps: keys and
	// values are both rendered. A nil map means the field is absent.
	AccessTokenParams  map[string]any
	AccessTokenHeaders map[string]any
	ExtractOutput      []string
	State              *StateBounds
	TokenExpiryKey     string
	// Aliases holds key alias overrides, e.g. {client_id: "cid"}.
	Aliases map[Key]string
	Extra   map[string]any
}

// Alias returns the configured alias of k.
func (c *Config) Alias(k Key) string {
	if a := c.Aliases[k]; a != "" {
		return a
	}
	return k.DefaultAlias()
}

// Outputs returns the paths to extract from the token response.
func (c *Config) Outputs() []string {
	if len(c.ExtractOutput) == 0 {
		return []string{DefaultExtractOutput}
	}
	return c.ExtractOutput
}

// ExpiryKey returns the output key that yields a token expiry date.
func (c *Config) ExpiryKey() string {
	if c.TokenExpiryKey == "" {
		return DefaultTokenExpiryKey
	}
	return c.TokenExpiryKey
}

// ParseConfig reads an effective configuration object.
func ParseConfig(obj map[string]any) (*Config, error) {
	c := &Config{Aliases: make(map[Key]string)}
	var err error

	if c.ConsentURL, err = cast.ToStringE(obj[fieldConsentURL]); err != nil {
		return nil, fieldError(fieldConsentURL, err)
	}
	if c.AccessTokenURL, err = cast.ToStringE(obj[fieldAccessTokenURL]); err != nil {
		return nil, fieldError(fieldAccessTokenURL, err)
	}
	if c.TokenExpiryKey, err = cast.ToStringE(obj[fieldTokenExpiryKey]); err != nil {
		return nil, fieldError(fieldTokenExpiryKey, err)
	}
	if v, ok := obj[fieldAccessTokenParams]; ok && v != nil {
		if c.AccessTokenParams, err = cast.ToStringMapE(v); err != nil {
			return nil, fieldError(fieldAccessTokenParams, err)
		}
	}
	if v, ok := obj[fieldAccessTokenHeaders]; ok && v != nil {
		if c.AccessTokenHeaders, err = cast.ToStringMapE(v); err != nil {
			return nil, fieldError(fieldAccessTokenHeaders, err)
		}
	}
	if v, ok := obj[fieldExtractOutput]; ok && v != nil {
		if c.ExtractOutput, err = cast.ToStringSliceE(v); err != nil {
			return nil, fieldError(fieldExtractOutput, err)
		}
	}
	if v, ok := obj[fieldState]; ok && v != nil {
		if c.State, err = parseStateBounds(v); err != nil {
			return nil, err
		}
	}
	for _, k := range MandatoryKeys {
		alias, err := cast.ToStringE(obj[k.OverrideField()])
		if err != nil {
			return nil, fieldError(k.OverrideField(), err)
		}
		if alias != "" {
			c.Aliases[k] = alias
		}
	}

	for k, v := range obj {
		if isKnownField(k) {
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]any)
		}
		c.Extra[k] = v
	}
	return c, nil
}

func parseStateBounds(v any) (*StateBounds, error) {
	obj, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, fieldError(fieldState, err)
	}
	var s StateBounds
	for field, dst := range map[string]**int{fieldStateMin: &s.Min, fieldStateMax: &s.Max} {
		raw, ok := obj[field]
		if !ok || raw == nil {
			continue
		}
		n, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fieldError(fieldState+"."+field, err)
		}
		*dst = &n
	}
	return &s, nil
}

func isKnownField(name string) bool {
	switch name {
	case fieldConsentURL, fieldAccessTokenURL, fieldAccessTokenParams, fieldAccessTokenHeaders,
		fieldExtractOutput, fieldState, fieldTokenExpiryKey:
		return true
	}
	for _, k := range MandatoryKeys {
		if name == k.OverrideField() {
			return true
		}
	}
	return false
}

func fieldError(field string, err error) error {
	return fmt.Errorf("%w: field '%s': %w", ErrInvalidConfig, field, err)
}

// Fields returns every field of the configuration as a flat object,
// including the extra fields.
func (c *Config) Fields() map[string]any {
	obj := make(map[string]any, len(c.Extra)+16)
	for k, v := range c.Extra {
		obj[k] = v
	}
	set := func(k string, v string) {
		if v != "" {
			obj[k] = v
		}
	}
	set(fieldConsentURL, c.ConsentURL)
	set(fieldAccessTokenURL, c.AccessTokenURL)
	set(fieldTokenExpiryKey, c.TokenExpiryKey)
	for k, alias := range c.Aliases {
		set(k.OverrideField(), alias)
	}
	if c.AccessTokenParams != nil {
		obj[fieldAccessTokenParams] = c.AccessTokenParams
	}
	if c.AccessTokenHeaders != nil {
		obj[fieldAccessTokenHeaders] = c.AccessTokenHeaders
	}
	if len(c.ExtractOutput) > 0 {
		obj[fieldExtractOutput] = c.ExtractOutput
	}
	if c.State != nil {
		state := make(map[string]any, 2)
		if c.State.Min != nil {
			state[fieldStateMin] = *c.State.Min
		}
		if c.State.Max != nil {
			state[fieldStateMax] = *c.State.Max
		}
		obj[fieldState] = state
	}
	return obj
}

func (c *Config) UnmarshalJSON(b []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	parsed, err := ParseConfig(obj)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Fields())
}
