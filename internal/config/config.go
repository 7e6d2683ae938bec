package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// TransactionTimeout bounds the time between the consent redirect and
	// the callback.
	TransactionTimeout = 10 * time.Minute

	defaultConfigFile = "/etc/declarative-oauth2/config/config.yaml"
	envConfigFile     = "DECLARATIVE_OAUTH2_CONFIG"
)

type Config struct {
	Server    ServerConfig      `yaml:"server" json:"server"`
	Providers []*ProviderConfig `yaml:"providers" json:"providers"`
}

func Load() (*Config, error) {
	fileName := defaultConfigFile
	if fn := os.Getenv(envConfigFile); fn != "" {
		fileName = fn
	}
	var cfg Config
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.ValidateAndInitialize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ValidateAndInitialize() error {
	// Apply defaults.
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if c.Server.AllowedHosts == nil {
		c.Server.AllowedHosts = []string{}
	}
	if c.Providers == nil {
		c.Providers = []*ProviderConfig{}
	}

	// Validate providers.
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}
	names := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p == nil {
			return fmt.Errorf("providers[%d] is empty", i)
		}
		if err := p.validateAndInitialize(); err != nil {
			return fmt.Errorf("invalid providers[%d]: %w", i, err)
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate provider name '%s' in providers[%d]", p.Name, i)
		}
		names[p.Name] = true
	}

	// Compile regular expressions.
	if err := buildRegexList(c.Server.AllowedHosts, &c.Server.regexAllowedHosts); err != nil {
		return fmt.Errorf("failed to build regex list for allowed hosts: %w", err)
	}

	return nil
}

// Provider returns the provider configured with the given name.
func (c *Config) Provider(name string) (*ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func buildRegexList(in []string, out *[]*regexp.Regexp) error {
	*out = nil
	for _, s := range in {
		r, err := regexp.Compile(s)
		if err != nil {
			return fmt.Errorf("failed to compile regex '%s': %w", s, err)
		}
		*out = append(*out, r)
	}
	return nil
}
