package factory

import (
	"fmt"

	"github.com/matheuscscp/declarative-oauth2/internal/config"
	"github.com/matheuscscp/declarative-oauth2/internal/flow"
	"github.com/matheuscscp/declarative-oauth2/internal/provider"
	"github.com/matheuscscp/declarative-oauth2/internal/provider/declarative"
)

func New(conf *config.ProviderConfig, f *flow.Flow) (provider.Interface, error) {
	if conf == nil || conf.Name == "" {
		return nil, fmt.Errorf("provider name must be set")
	}
	if conf.Spec == nil {
		return nil, fmt.Errorf("provider '%s' has no declarative specification", conf.Name)
	}
	return declarative.New(conf, f), nil
}

// NewAll builds every configured provider, indexed by name.
func NewAll(conf *config.Config, f *flow.Flow) (map[string]provider.Interface, error) {
	providers := make(map[string]provider.Interface, len(conf.Providers))
	for _, pc := range conf.Providers {
		p, err := New(pc, f)
		if err != nil {
			return nil, err
		}
		providers[p.Name()] = p
	}
	return providers, nil
}
