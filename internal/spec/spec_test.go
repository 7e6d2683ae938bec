package spec

import (
	"encoding/json"
	"testing"

	. "github.com/onsi/gomega"
)

func TestParseParamConfig(t *testing.T) {
	g := NewWithT(t)

	p, err := ParseParamConfig(map[string]any{
		"client_id":     "id-1",
		"client_secret": "secret-1",
		"app_key":       "k",
	})

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(p.ClientID).To(Equal("id-1"))
	g.Expect(p.ClientSecret).To(Equal("secret-1"))
	g.Expect(p.Extra).To(Equal(map[string]any{"app_key": "k"}))
	g.Expect(p.Has("client_id")).To(BeTrue())
	g.Expect(p.Has("client_secret")).To(BeTrue())
	g.Expect(p.Has("app_key")).To(BeTrue())
	g.Expect(p.Has("other")).To(BeFalse())
}

func TestParseParamConfig_Nil(t *testing.T) {
	g := NewWithT(t)

	p, err := ParseParamConfig(nil)

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(p).To(BeNil())
}

func TestParseParamConfig_Invalid(t *testing.T) {
	g := NewWithT(t)

	_, err := ParseParamConfig(map[string]any{"client_id": map[string]any{}})

	g.Expect(err).To(MatchError(ErrInvalidConfig))
	g.Expect(err.Error()).To(ContainSubstring("client_id"))
}

func TestParamConfig_JSON(t *testing.T) {
	g := NewWithT(t)

	var p ParamConfig
	g.Expect(json.Unmarshal([]byte(`{"client_id":"a","client_secret":"b","tenant":"t"}`), &p)).To(Succeed())
	g.Expect(p).To(Equal(ParamConfig{ClientID: "a", ClientSecret: "b", Extra: map[string]any{"tenant": "t"}}))

	b, err := json.Marshal(p)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(b).To(MatchJSON(`{"client_id":"a","client_secret":"b","tenant":"t"}`))
}

func TestOutputProperties(t *testing.T) {
	g := NewWithT(t)

	g.Expect(OutputProperties(nil)).To(BeEmpty())
	g.Expect(OutputProperties(map[string]any{"type": "object"})).To(BeEmpty())
	g.Expect(OutputProperties(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"refresh_token":     map[string]any{"type": "string"},
			"token_expiry_date": map[string]any{"type": "string"},
		},
	})).To(ConsistOf("refresh_token", "token_expiry_date"))
}

func TestOAuthConfigSpecification_JSON(t *testing.T) {
	g := NewWithT(t)

	var s OAuthConfigSpecification
	err := json.Unmarshal([]byte(`{
		"oauth_user_input_from_connector_config_specification": {"type": "object"},
		"complete_oauth_output_specification": {"properties": {"refresh_token": {}}},
		"complete_oauth_server_output_specification": {"properties": {"client_id": {}}},
		"oauth_connector_input_specification": {"consent_url": "https://example.com"}
	}`), &s)

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(s.OAuthUserInputFromConnectorConfigSpecification).To(HaveKeyWithValue("type", "object"))
	g.Expect(OutputProperties(s.CompleteOAuthOutputSpecification)).To(ConsistOf("refresh_token"))
	g.Expect(OutputProperties(s.CompleteOAuthServerOutputSpecification)).To(ConsistOf("client_id"))
	g.Expect(s.OAuthConnectorInputSpecification).To(HaveKeyWithValue("consent_url", "https://example.com"))
	g.Expect(s.CompleteOAuthServerInputSpecification).To(BeNil())
}
