// Package document is the generic JSON document API used by the flow engine:
// parse, get-by-path, stringify and merge.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

var ErrInvalidDocument = errors.New("invalid JSON document")

// Object is a decoded JSON object.
type Object = map[string]any

// Parse decodes data into a JSON object. Anything but an object is rejected.
func Parse(data []byte) (Object, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON of %d bytes", ErrInvalidDocument, len(data))
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: expected an object, got %s", ErrInvalidDocument, res.Type)
	}
	obj, _ := res.Value().(map[string]any)
	return obj, nil
}

// Get evaluates path against the raw JSON document. Paths may be plain
// dotted paths ("a.b") or JSONPath ("$.a[0].b", "$['a']['b']").
func Get(raw []byte, path string) (gjson.Result, bool) {
	p, err := NormalizePath(path)
	if err != nil {
		return gjson.Result{}, false
	}
	res := gjson.GetBytes(raw, p)
	if !res.Exists() || res.Type == gjson.Null {
		return res, false
	}
	return res, true
}

// NormalizePath translates a JSONPath or dotted path into a gjson path.
// Segments are matched literally: gjson wildcards and modifiers are escaped.
func NormalizePath(path string) (string, error) {
	segments, err := Segments(path)
	if err != nil {
		return "", err
	}
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = gjson.Escape(seg)
	}
	return strings.Join(escaped, "."), nil
}

// Segments splits a path into its keys and array indexes. A leading JSONPath
// root is optional. Bracket segments take an index ("[0]") or a quoted key
// ("['a.b']").
func Segments(path string) ([]string, error) {
	p := strings.TrimSpace(path)
	p = strings.TrimPrefix(p, "$")
	p = strings.TrimPrefix(p, ".")

	var segments []string
	for i := 0; i < len(p); {
		switch p[i] {
		case '.':
			i++
		case '[':
			seg, n, err := bracketSegment(p[i:])
			if err != nil {
				return nil, fmt.Errorf("invalid path '%s': %w", path, err)
			}
			segments = append(segments, seg)
			i += n
		default:
			j := i
			for j < len(p) && p[j] != '.' && p[j] != '[' {
				j++
			}
			segments = append(segments, p[i:j])
			i = j
		}
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("invalid path '%s': no segments", path)
	}
	return segments, nil
}

// bracketSegment parses the bracket segment s starts with and returns its
// key and the number of bytes it spans.
func bracketSegment(s string) (string, int, error) {
	if len(s) > 1 && (s[1] == '\'' || s[1] == '"') {
		quote := s[1]
		end := strings.IndexByte(s[2:], quote)
		if end < 0 || len(s) < end+4 || s[end+3] != ']' {
			return "", 0, fmt.Errorf("unterminated quoted segment")
		}
		return s[2 : end+2], end + 4, nil
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return "", 0, fmt.Errorf("unterminated index segment")
	}
	idx := s[1:end]
	if _, err := strconv.Atoi(idx); err != nil {
		return "", 0, fmt.Errorf("index '%s' is not a number", idx)
	}
	return idx, end + 1, nil
}

// LastSegment returns the last key of a path, which is the key an extracted
// value is stored under.
func LastSegment(path string) string {
	segments, err := Segments(path)
	if err != nil {
		return strings.TrimSpace(path)
	}
	return segments[len(segments)-1]
}

// String stringifies a JSON value. Scalars use their natural text form and
// anything else its JSON encoding.
func String(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal value: %w", err)
		}
		return string(b), nil
	case gjson.Result:
		if t.IsObject() || t.IsArray() {
			return t.Raw, nil
		}
		return t.String(), nil
	}
	s, err := cast.ToStringE(v)
	if err == nil {
		return s, nil
	}
	b, jerr := json.Marshal(v)
	if jerr != nil {
		return "", fmt.Errorf("failed to stringify value of type %T: %w", v, err)
	}
	return string(b), nil
}

// Merge returns a new object with the fields of overlay merged on top of
// base. Non-empty overlay values win. Neither argument is modified.
func Merge(base, overlay Object) (Object, error) {
	out := Clone(base)
	if out == nil {
		out = Object{}
	}
	if len(overlay) == 0 {
		return out, nil
	}
	if err := mergo.Merge(&out, Clone(overlay), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge documents: %w", err)
	}
	return out, nil
}

// Clone deep copies obj.
func Clone(obj Object) Object {
	if obj == nil {
		return nil
	}
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}
