package template

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRestrictedContext is returned when a template references an
// interpolation context that could reach local resources.
var ErrRestrictedContext = errors.New("restricted interpolation context")

// restrictedContexts are markers that must never appear in a template.
// Templates come from connector specs of a semi-trusted registry and are
// rendered with caller-influenced values, so lookups that resolve against
// the environment, the filesystem or the network are refused outright.
var restrictedContexts = []string{
	"env:",
	"sys:",
	"file:",
	"resourceBundle:",
	"properties:",
	"localhost:",
	"script:",
	"url:",
	"dns:",
	"java:",
	"xml:",
	"const:",
}

// Policy decides whether a template string may be interpolated.
type Policy interface {
	Check(tmpl string) error
}

// DenylistPolicy rejects templates containing any of its markers.
type DenylistPolicy struct {
	markers []string
}

// NewDenylistPolicy returns the default containment policy. Extra markers
// are appended to the built-in ones.
func NewDenylistPolicy(extra ...string) *DenylistPolicy {
	markers := make([]string, 0, len(restrictedContexts)+len(extra))
	markers = append(markers, restrictedContexts...)
	markers = append(markers, extra...)
	return &DenylistPolicy{markers: markers}
}

// Check implements Policy.
func (d *DenylistPolicy) Check(tmpl string) error {
	for _, m := range d.markers {
		if strings.Contains(tmpl, m) {
			return fmt.Errorf("%w: marker '%s' found in template '%s'", ErrRestrictedContext, m, tmpl)
		}
	}
	return nil
}

// Markers returns a copy of the denylisted markers.
func (d *DenylistPolicy) Markers() []string {
	return append([]string(nil), d.markers...)
}
