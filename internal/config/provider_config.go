package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/matheuscscp/declarative-oauth2/internal/document"
	"github.com/matheuscscp/declarative-oauth2/internal/spec"
)

var providerNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ProviderConfig binds a declarative OAuth specification to the parameter
// configuration of one connector.
type ProviderConfig struct {
	Name string `yaml:"name" json:"name"`
	// DefinitionID identifies the connector definition. When empty, an ID is
	// derived from the name so it is stable across restarts.
	DefinitionID string `yaml:"definitionID" json:"definitionID"`
	// Spec and SpecFile are mutually exclusive. SpecFile may be JSON or YAML.
	Spec     *spec.OAuthConfigSpecification `yaml:"spec" json:"spec"`
	SpecFile string                         `yaml:"specFile" json:"specFile"`
	// Params holds the client credentials and other instance-wide secrets.
	// A provider without params is reported as not configured.
	Params map[string]any `yaml:"params" json:"params"`
	// Input is the user input configuration, validated against the schema in Spec.
	Input map[string]any `yaml:"input" json:"input"`

	definitionID uuid.UUID
	paramConfig  *spec.ParamConfig
}

func (p *ProviderConfig) validateAndInitialize() error {
	if p.Name == "" {
		return fmt.Errorf("name must be set")
	}
	if !providerNameRegex.MatchString(p.Name) {
		return fmt.Errorf("name '%s' must match %s", p.Name, providerNameRegex)
	}

	switch {
	case p.Spec != nil && p.SpecFile != "":
		return fmt.Errorf("spec and specFile are mutually exclusive")
	case p.SpecFile != "":
		s, err := loadSpecFile(p.SpecFile)
		if err != nil {
			return err
		}
		p.Spec = s
	case p.Spec == nil:
		return fmt.Errorf("one of spec or specFile must be set")
	}
	if len(p.Spec.OAuthConnectorInputSpecification) == 0 {
		return fmt.Errorf("spec.oauth_connector_input_specification must be set")
	}

	if p.DefinitionID == "" {
		p.definitionID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("declarative-oauth2:"+p.Name))
	} else {
		id, err := uuid.Parse(p.DefinitionID)
		if err != nil {
			return fmt.Errorf("failed to parse definitionID '%s': %w", p.DefinitionID, err)
		}
		p.definitionID = id
	}

	params, err := spec.ParseParamConfig(p.Params)
	if err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	p.paramConfig = params

	return nil
}

func loadSpecFile(fileName string) (*spec.OAuthConfigSpecification, error) {
	b, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read specFile: %w", err)
	}
	var s spec.OAuthConfigSpecification
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("failed to parse specFile '%s': %w", fileName, err)
	}
	return &s, nil
}

// ID returns the connector definition ID.
func (p *ProviderConfig) ID() uuid.UUID {
	return p.definitionID
}

// ParamConfig returns the provider parameter configuration, or nil when
// none is configured.
func (p *ProviderConfig) ParamConfig() *spec.ParamConfig {
	return p.paramConfig
}

// InputConfig returns a copy of the user input configuration.
func (p *ProviderConfig) InputConfig() map[string]any {
	return document.Clone(p.Input)
}
