package config

import "regexp"

const (
	defaultServerAddr = ":8080"
)

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// AllowedHosts are regular expressions matched against the full Host of
	// incoming requests. Empty accepts any host.
	AllowedHosts []string `yaml:"allowedHosts" json:"allowedHosts"`

	regexAllowedHosts []*regexp.Regexp
}

func (s *ServerConfig) AcceptsHost(host string) bool {
	if host == "" {
		return false
	}
	if len(s.regexAllowedHosts) == 0 {
		return true
	}
	for _, r := range s.regexAllowedHosts {
		if r.MatchString(host) {
			return true
		}
	}
	return false
}
