package template

import (
	"crypto"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

const (
	// FuncCodeChallengeS256 is the function name of the PKCE resolver.
	FuncCodeChallengeS256 = "codeChallengeS256"

	pipeSeparator = "|"
	funcSeparator = ":"
)

// Values is the flat lookup map a template is rendered against.
type Values map[string]string

// ResolveFunc resolves a key with the remainder of a resolver chain.
type ResolveFunc func(key string) (string, error)

// Resolver computes the value of a placeholder. A resolver only sees keys it
// Matches. Resolvers that do not produce a value themselves delegate to next.
type Resolver interface {
	Matches(key string) bool
	Resolve(key string, values Values, next ResolveFunc) (string, error)
}

// DefaultResolvers returns the resolver chain in priority order. The flat
// map lookup is always applied last by the Interpolator and is not part of
// this list.
func DefaultResolvers() []Resolver {
	return []Resolver{
		PipeResolver{},
		CodeChallengeS256Resolver{},
	}
}

// PipeResolver rewrites "value|function" into "function:value" so spec
// authors can use a filter-like syntax. When value names an entry of the
// map, the entry is used instead of the literal text.
type PipeResolver struct{}

// Matches implements Resolver.
func (PipeResolver) Matches(key string) bool {
	_, _, ok := splitPipe(key)
	return ok
}

// Resolve implements Resolver.
func (PipeResolver) Resolve(key string, values Values, next ResolveFunc) (string, error) {
	value, fn, ok := splitPipe(key)
	if !ok {
		return next(key)
	}
	if v, found := values[value]; found {
		value = v
	}
	return next(fn + funcSeparator + value)
}

func splitPipe(key string) (value, fn string, ok bool) {
	parts := strings.Split(key, pipeSeparator)
	if len(parts) != 2 {
		return "", "", false
	}
	value = strings.TrimSpace(parts[0])
	fn = strings.TrimSpace(parts[1])
	if value == "" || fn == "" {
		return "", "", false
	}
	return value, fn, true
}

// CodeChallengeS256Resolver computes a PKCE S256 code challenge. The key
// remainder after "codeChallengeS256:" is the code verifier.
type CodeChallengeS256Resolver struct{}

// Matches implements Resolver.
func (CodeChallengeS256Resolver) Matches(key string) bool {
	return strings.HasPrefix(key, FuncCodeChallengeS256+funcSeparator)
}

// Resolve implements Resolver.
func (CodeChallengeS256Resolver) Resolve(key string, _ Values, next ResolveFunc) (string, error) {
	if !crypto.SHA256.Available() {
		return next(key)
	}
	verifier := strings.TrimPrefix(key, FuncCodeChallengeS256+funcSeparator)
	if verifier == "" {
		return "", fmt.Errorf("%w: empty code verifier in '%s'", ErrUnresolved, key)
	}
	return oauth2.S256ChallengeFromVerifier(verifier), nil
}
