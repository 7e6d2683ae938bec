package template

import (
	"errors"
	"fmt"
	"strings"
)

const (
	maxDepth = 16

	openDelim  = '{'
	closeDelim = '}'
)

var (
	ErrUnresolved    = errors.New("unresolved placeholder")
	ErrCycle         = errors.New("placeholder resolution cycle")
	ErrDepthExceeded = errors.New("maximum placeholder nesting depth exceeded")
)

// Interpolator substitutes {name} placeholders. Placeholder names may
// contain placeholders themselves, and resolved values containing
// placeholders are rendered again until no placeholder is left.
type Interpolator struct {
	policy    Policy
	resolvers []Resolver
}

// Option configures an Interpolator.
type Option func(*Interpolator)

// WithPolicy replaces the default denylist policy.
func WithPolicy(p Policy) Option {
	return func(i *Interpolator) {
		i.policy = p
	}
}

// WithResolvers replaces the default resolver chain.
func WithResolvers(r ...Resolver) Option {
	return func(i *Interpolator) {
		i.resolvers = r
	}
}

func New(opts ...Option) *Interpolator {
	i := &Interpolator{
		policy:    NewDenylistPolicy(),
		resolvers: DefaultResolvers(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Render returns tmpl with every placeholder substituted. It has no side
// effects and is safe for concurrent use.
func (i *Interpolator) Render(values Values, tmpl string) (string, error) {
	r := &render{Interpolator: i, values: values, active: make(map[string]bool)}
	return r.render(tmpl, 0)
}

// render holds the state of a single Render call.
type render struct {
	*Interpolator
	values Values
	active map[string]bool
}

func (r *render) render(tmpl string, depth int) (string, error) {
	if depth > maxDepth {
		return "", fmt.Errorf("%w: template '%s'", ErrDepthExceeded, tmpl)
	}
	if err := r.policy.Check(tmpl); err != nil {
		return "", err
	}

	var b strings.Builder
	pos := 0
	for pos < len(tmpl) {
		open := strings.IndexByte(tmpl[pos:], openDelim)
		if open < 0 {
			break
		}
		open += pos
		end := matchingDelim(tmpl, open)
		if end < 0 {
			break
		}
		b.WriteString(tmpl[pos:open])

		name, err := r.render(tmpl[open+1:end], depth+1)
		if err != nil {
			return "", err
		}
		value, err := r.resolveName(name, depth)
		if err != nil {
			return "", err
		}
		b.WriteString(value)
		pos = end + 1
	}
	b.WriteString(tmpl[pos:])
	return b.String(), nil
}

func (r *render) resolveName(name string, depth int) (string, error) {
	if r.active[name] {
		return "", fmt.Errorf("%w: '%s' references itself", ErrCycle, name)
	}

	value, err := r.resolve(name)
	if err != nil {
		return "", err
	}
	if strings.IndexByte(value, openDelim) < 0 {
		return value, nil
	}

	r.active[name] = true
	defer delete(r.active, name)
	return r.render(value, depth+1)
}

// resolve runs name through the resolver chain, ending with the flat map.
func (r *render) resolve(name string) (string, error) {
	var next func(idx int) ResolveFunc
	next = func(idx int) ResolveFunc {
		return func(key string) (string, error) {
			for j := idx; j < len(r.resolvers); j++ {
				if res := r.resolvers[j]; res.Matches(key) {
					return res.Resolve(key, r.values, next(j+1))
				}
			}
			if v, ok := r.values[key]; ok {
				return v, nil
			}
			return "", fmt.Errorf("%w: '%s'", ErrUnresolved, key)
		}
	}
	return next(0)(name)
}

// matchingDelim returns the index of the delimiter closing the one at open,
// or -1 when the braces are unbalanced.
func matchingDelim(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case openDelim:
			depth++
		case closeDelim:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
