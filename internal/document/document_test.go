package document

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected Object
		err      string
	}{
		{
			name:     "object",
			data:     `{"refresh_token":"rt-1","expires_in":3600,"nested":{"a":true}}`,
			expected: Object{"refresh_token": "rt-1", "expires_in": float64(3600), "nested": map[string]any{"a": true}},
		},
		{
			name:     "empty object",
			data:     `{}`,
			expected: Object{},
		},
		{
			name: "array",
			data: `[1,2]`,
			err:  "expected an object",
		},
		{
			name: "not json",
			data: `access_token=abc&expires_in=3600`,
			err:  "malformed JSON of 32 bytes",
		},
		{
			name: "empty body",
			data: ``,
			err:  "malformed JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			obj, err := Parse([]byte(tt.data))

			if tt.err != "" {
				g.Expect(err).To(MatchError(ErrInvalidDocument))
				g.Expect(err.Error()).To(ContainSubstring(tt.err))
				g.Expect(obj).To(BeNil())
				return
			}
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(obj).To(Equal(tt.expected))
		})
	}
}

func TestGet(t *testing.T) {
	raw := []byte(`{"refresh_token":"rt-1","data":{"access_token":"at-1","empty":null},"n":0,` +
		`"items":[{"refresh_token":"rt-2"}],"a.b":{"c*d":"x"}}`)

	tests := []struct {
		path     string
		found    bool
		expected string
	}{
		{path: "refresh_token", found: true, expected: "rt-1"},
		{path: "$.refresh_token", found: true, expected: "rt-1"},
		{path: "data.access_token", found: true, expected: "at-1"},
		{path: "$.data.access_token", found: true, expected: "at-1"},
		{path: "n", found: true, expected: "0"},
		{path: "data.empty", found: false},
		{path: "missing", found: false},
		{path: "data.missing", found: false},
		{path: "$.items[0].refresh_token", found: true, expected: "rt-2"},
		{path: "items.0.refresh_token", found: true, expected: "rt-2"},
		{path: "$['data']['access_token']", found: true, expected: "at-1"},
		{path: `$["data"]["access_token"]`, found: true, expected: "at-1"},
		{path: "$['a.b']['c*d']", found: true, expected: "x"},
		{path: "$.items[1].refresh_token", found: false},
		{path: "$.items[first]", found: false},
		{path: "$['data'", found: false},
		{path: "data.*", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			g := NewWithT(t)

			res, ok := Get(raw, tt.path)

			g.Expect(ok).To(Equal(tt.found))
			if tt.found {
				g.Expect(res.String()).To(Equal(tt.expected))
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
		wantErr  bool
	}{
		{path: "refresh_token", expected: "refresh_token"},
		{path: "$.data.expires_in", expected: "data.expires_in"},
		{path: "$.data[0].refresh_token", expected: "data.0.refresh_token"},
		{path: "$['data']['refresh_token']", expected: "data.refresh_token"},
		{path: "$['a.b'].c", expected: `a\.b.c`},
		{path: "$['#'].@this", expected: `\#.\@this`},
		{path: "$", wantErr: true},
		{path: "$.data[0", wantErr: true},
		{path: "$['data]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			g := NewWithT(t)

			p, err := NormalizePath(tt.path)

			if tt.wantErr {
				g.Expect(err).To(HaveOccurred())
				return
			}
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(p).To(Equal(tt.expected))
		})
	}
}

func TestLastSegment(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{path: "refresh_token", expected: "refresh_token"},
		{path: "$.refresh_token", expected: "refresh_token"},
		{path: "data.authed_user.access_token", expected: "access_token"},
		{path: "$.data.expires_in", expected: "expires_in"},
		{path: "$.data[0].refresh_token", expected: "refresh_token"},
		{path: "$['data']['refresh.token']", expected: "refresh.token"},
		{path: "$.items[2]", expected: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			g := NewWithT(t)

			g.Expect(LastSegment(tt.path)).To(Equal(tt.expected))
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "nil", value: nil, expected: ""},
		{name: "string", value: "abc", expected: "abc"},
		{name: "integral float", value: float64(3600), expected: "3600"},
		{name: "float", value: 1.5, expected: "1.5"},
		{name: "int", value: 42, expected: "42"},
		{name: "bool", value: true, expected: "true"},
		{name: "object", value: map[string]any{"min": 10}, expected: `{"min":10}`},
		{name: "array", value: []any{"a", "b"}, expected: `["a","b"]`},
		{name: "string slice", value: []string{"a", "b"}, expected: `["a","b"]`},
		{name: "gjson string", value: gjson.Parse(`"x"`), expected: "x"},
		{name: "gjson number", value: gjson.Parse(`3600`), expected: "3600"},
		{name: "gjson object", value: gjson.Parse(`{"a": 1}`), expected: `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			s, err := String(tt.value)

			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(s).To(Equal(tt.expected))
		})
	}
}

func TestString_Unsupported(t *testing.T) {
	g := NewWithT(t)

	_, err := String(make(chan int))

	g.Expect(err).To(MatchError(ContainSubstring("failed to stringify value of type chan int")))
}

func TestMerge(t *testing.T) {
	g := NewWithT(t)

	base := Object{
		"subdomain": "user-value",
		"scope":     "read",
	}
	overlay := Object{
		"scope":       "read write",
		"consent_url": "https://{subdomain}.example.com/oauth",
	}

	merged, err := Merge(base, overlay)

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(merged).To(Equal(Object{
		"subdomain":   "user-value",
		"scope":       "read write",
		"consent_url": "https://{subdomain}.example.com/oauth",
	}))
	g.Expect(base).To(Equal(Object{"subdomain": "user-value", "scope": "read"}))
	g.Expect(overlay).To(HaveLen(2))
}

func TestMerge_Empty(t *testing.T) {
	g := NewWithT(t)

	merged, err := Merge(nil, nil)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(merged).To(Equal(Object{}))

	merged, err = Merge(Object{"a": "1"}, nil)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(merged).To(Equal(Object{"a": "1"}))
}

func TestClone(t *testing.T) {
	g := NewWithT(t)

	obj := Object{"a": map[string]any{"b": []any{"c"}}}
	c := Clone(obj)
	c["a"].(map[string]any)["b"].([]any)[0] = "changed"

	g.Expect(obj["a"].(map[string]any)["b"].([]any)[0]).To(Equal("c"))
	g.Expect(Clone(nil)).To(BeNil())
}
