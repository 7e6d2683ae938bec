// Package spec holds the declarative OAuth configuration data model.
package spec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cast"
)

var ErrInvalidConfig = errors.New("invalid declarative oauth configuration")

// OAuthConfigSpecification is the per-provider declarative document. Every
// section is an opaque JSON object: schemas for the user input and outputs,
// plus the declarative configuration itself.
type OAuthConfigSpecification struct {
	// OAuthUserInputFromConnectorConfigSpecification is the JSON schema of
	// the user-editable input configuration.
	OAuthUserInputFromConnectorConfigSpecification map[string]any `json:"oauth_user_input_from_connector_config_specification,omitempty" yaml:"oauth_user_input_from_connector_config_specification,omitempty"`
	// CompleteOAuthOutputSpecification declares which flow outputs are
	// forwarded to the caller.
	CompleteOAuthOutputSpecification map[string]any `json:"complete_oauth_output_specification,omitempty" yaml:"complete_oauth_output_specification,omitempty"`
	// CompleteOAuthServerInputSpecification is the JSON schema of the
	// provider parameter configuration.
	CompleteOAuthServerInputSpecification map[string]any `json:"complete_oauth_server_input_specification,omitempty" yaml:"complete_oauth_server_input_specification,omitempty"`
	// CompleteOAuthServerOutputSpecification declares which instance-wide
	// secrets are reported back, masked.
	CompleteOAuthServerOutputSpecification map[string]any `json:"complete_oauth_server_output_specification,omitempty" yaml:"complete_oauth_server_output_specification,omitempty"`
	// OAuthConnectorInputSpecification is the declarative configuration. It
	// is merged on top of the user input configuration and parsed as Config.
	OAuthConnectorInputSpecification map[string]any `json:"oauth_connector_input_specification,omitempty" yaml:"oauth_connector_input_specification,omitempty"`
}

// OutputProperties returns the property names of an output specification.
func OutputProperties(outputSpec map[string]any) []string {
	props, err := cast.ToStringMapE(outputSpec["properties"])
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	return names
}

// ParamConfig is the operator-held provider parameter configuration. The
// client credentials are always stored under the literal keys client_id and
// client_secret; aliases declared by a spec never apply here.
type ParamConfig struct {
	ClientID     string
	ClientSecret string
	Extra        map[string]any
}

// Has reports whether the configuration carries a value for key.
func (p *ParamConfig) Has(key string) bool {
	switch key {
	case paramClientID:
		return p.ClientID != ""
	case paramClientSecret:
		return p.ClientSecret != ""
	}
	_, ok := p.Extra[key]
	return ok
}

const (
	paramClientID     = "client_id"
	paramClientSecret = "client_secret"
)

// ParseParamConfig reads a provider parameter configuration object.
func ParseParamConfig(obj map[string]any) (*ParamConfig, error) {
	if obj == nil {
		return nil, nil
	}
	var p ParamConfig
	var err error
	if p.ClientID, err = cast.ToStringE(obj[paramClientID]); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, paramClientID, err)
	}
	if p.ClientSecret, err = cast.ToStringE(obj[paramClientSecret]); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, paramClientSecret, err)
	}
	for k, v := range obj {
		if k == paramClientID || k == paramClientSecret {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}
	return &p, nil
}

func (p *ParamConfig) UnmarshalJSON(b []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	parsed, err := ParseParamConfig(obj)
	if err != nil {
		return err
	}
	if parsed != nil {
		*p = *parsed
	}
	return nil
}

func (p ParamConfig) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(p.Extra)+2)
	for k, v := range p.Extra {
		obj[k] = v
	}
	obj[paramClientID] = p.ClientID
	obj[paramClientSecret] = p.ClientSecret
	return json.Marshal(obj)
}
