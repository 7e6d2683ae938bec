package flow

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/matheuscscp/declarative-oauth2/internal/constants"
	"github.com/matheuscscp/declarative-oauth2/internal/spec"
)

// ContentType is the encoding of a token request body.
type ContentType struct {
	mediaType string
	encode    func(params map[string]string) ([]byte, error)
}

var (
	ContentTypeURLEncoded = ContentType{
		mediaType: constants.ContentTypeURLEncoded,
		encode:    encodeForm,
	}
	ContentTypeJSON = ContentType{
		mediaType: constants.ContentTypeJSON,
		encode:    encodeJSON,
	}
)

func (c ContentType) String() string {
	return c.mediaType
}

// Encode encodes the request body parameters.
func (c ContentType) Encode(params map[string]string) ([]byte, error) {
	b, err := c.encode(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request body as %s: %w", c.mediaType, err)
	}
	return b, nil
}

func encodeForm(params map[string]string) ([]byte, error) {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return []byte(values.Encode()), nil
}

func encodeJSON(params map[string]string) ([]byte, error) {
	if params == nil {
		params = map[string]string{}
	}
	return json.Marshal(params)
}

// selectContentType picks the token request encoding. Without
// access_token_params the body is form encoded. With them it is JSON unless
// access_token_headers explicitly declares a form or JSON Content-Type.
func selectContentType(c *spec.Config) ContentType {
	if c.AccessTokenParams == nil {
		return ContentTypeURLEncoded
	}
	for k, v := range c.AccessTokenHeaders {
		if !strings.EqualFold(k, constants.HeaderContentType) {
			continue
		}
		switch v {
		case constants.ContentTypeURLEncoded:
			return ContentTypeURLEncoded
		case constants.ContentTypeJSON:
			return ContentTypeJSON
		}
	}
	return ContentTypeJSON
}
