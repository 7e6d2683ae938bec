package template

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
)

func TestCodeChallengeS256Resolver(t *testing.T) {
	g := NewWithT(t)

	r := CodeChallengeS256Resolver{}
	next := func(key string) (string, error) { return "", errors.New("next called") }

	g.Expect(r.Matches("codeChallengeS256:abc")).To(BeTrue())
	g.Expect(r.Matches("codeChallengeS256")).To(BeFalse())
	g.Expect(r.Matches("abc")).To(BeFalse())

	// RFC 7636 appendix B.
	out, err := r.Resolve("codeChallengeS256:dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk", nil, next)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(out).To(Equal("E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"))

	// Deterministic for a fixed verifier and distinct across verifiers.
	seen := make(map[string]string)
	for _, verifier := range []string{"a", "b", "ab", "ba", "verifier", "verifier ", "VERIFIER"} {
		first, err := r.Resolve("codeChallengeS256:"+verifier, nil, next)
		g.Expect(err).ToNot(HaveOccurred())
		second, err := r.Resolve("codeChallengeS256:"+verifier, nil, next)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(second).To(Equal(first))
		g.Expect(first).ToNot(ContainSubstring("="))
		g.Expect(seen).ToNot(HaveKey(first))
		seen[first] = verifier
	}
}

func TestPipeResolver(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		values   Values
		matches  bool
		expected string
	}{
		{
			name:     "literal value",
			key:      "abc|fn",
			matches:  true,
			expected: "fn:abc",
		},
		{
			name:     "value from map",
			key:      "v|fn",
			values:   Values{"v": "resolved"},
			matches:  true,
			expected: "fn:resolved",
		},
		{
			name:     "spaces are trimmed",
			key:      " v | fn ",
			values:   Values{"v": "resolved"},
			matches:  true,
			expected: "fn:resolved",
		},
		{
			name: "no pipe",
			key:  "abc",
		},
		{
			name: "three parts",
			key:  "a|b|c",
		},
		{
			name: "empty function",
			key:  "a|",
		},
		{
			name: "empty value",
			key:  "|fn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			r := PipeResolver{}
			g.Expect(r.Matches(tt.key)).To(Equal(tt.matches))

			var delegated string
			next := func(key string) (string, error) {
				delegated = key
				return "ok", nil
			}
			out, err := r.Resolve(tt.key, tt.values, next)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(out).To(Equal("ok"))
			if tt.matches {
				g.Expect(delegated).To(Equal(tt.expected))
			} else {
				g.Expect(delegated).To(Equal(tt.key))
			}
		})
	}
}

func TestDefaultResolvers(t *testing.T) {
	g := NewWithT(t)

	resolvers := DefaultResolvers()

	g.Expect(resolvers).To(HaveLen(2))
	g.Expect(resolvers[0]).To(BeAssignableToTypeOf(PipeResolver{}))
	g.Expect(resolvers[1]).To(BeAssignableToTypeOf(CodeChallengeS256Resolver{}))
}

func TestDenylistPolicy(t *testing.T) {
	g := NewWithT(t)

	p := NewDenylistPolicy("custom:")

	g.Expect(p.Markers()).To(ContainElements("env:", "file:", "localhost:", "custom:"))
	g.Expect(p.Check("https://example.com/{client_id}")).To(Succeed())
	g.Expect(p.Check("{sys:user.home}")).To(MatchError(ContainSubstring("marker 'sys:'")))
	g.Expect(p.Check("{custom:x}")).To(MatchError(ErrRestrictedContext))

	markers := p.Markers()
	markers[0] = "changed"
	g.Expect(p.Markers()[0]).To(Equal("env:"))
}
