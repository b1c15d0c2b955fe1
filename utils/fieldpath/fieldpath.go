// Package fieldpath resolves group-by paths such as "device.site",
// "tags[0]" or `labels["zone"]` against rows.
package fieldpath

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/utils/reflectutil"
)

// PartKind is the kind of one path step
type PartKind int

const (
	// FieldPart selects a map key or struct field by name
	FieldPart PartKind = iota
	// IndexPart selects a slice element, negative indices count from the end
	IndexPart
	// KeyPart selects a map entry by quoted key
	KeyPart
)

// Part is one step of a parsed path
type Part struct {
	Kind  PartKind
	Name  string
	Index int
}

// Path is a parsed field path
type Path struct {
	raw   string
	parts []Part
}

// Parse splits a path into steps
func Parse(path string) (*Path, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("empty field path")
	}
	p := &Path{raw: path}
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return nil, errors.Newf("field path %q: empty segment", path)
		}
		name := segment
		rest := ""
		if i := strings.IndexByte(segment, '['); i >= 0 {
			name, rest = segment[:i], segment[i:]
		}
		if strings.ContainsAny(name, "]'\"") {
			return nil, errors.Newf("field path %q: unexpected character in %q", path, segment)
		}
		if name != "" {
			p.parts = append(p.parts, Part{Kind: FieldPart, Name: name})
		}
		for rest != "" {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return nil, errors.Newf("field path %q: malformed brackets in %q", path, segment)
			}
			part, err := parseBracket(rest[1:end])
			if err != nil {
				return nil, errors.Wrapf(err, "field path %q", path)
			}
			p.parts = append(p.parts, part)
			rest = rest[end+1:]
		}
	}
	return p, nil
}

func parseBracket(content string) (Part, error) {
	if len(content) >= 2 {
		first, last := content[0], content[len(content)-1]
		if (first == '"' || first == '\'') && first == last {
			return Part{Kind: KeyPart, Name: content[1 : len(content)-1]}, nil
		}
	}
	index, err := strconv.Atoi(content)
	if err != nil {
		return Part{}, errors.Newf("invalid index %q", content)
	}
	return Part{Kind: IndexPart, Index: index}, nil
}

// String returns the path as written
func (p *Path) String() string {
	return p.raw
}

// Parts returns the parsed steps
func (p *Path) Parts() []Part {
	return p.parts
}

// Get walks data along the path. The second result is false when a step is missing.
func (p *Path) Get(data interface{}) (interface{}, bool) {
	current := data
	for _, part := range p.parts {
		next, ok := step(current, part)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func step(data interface{}, part Part) (interface{}, bool) {
	if m, ok := data.(map[string]interface{}); ok && part.Kind != IndexPart {
		v, found := m[part.Name]
		return v, found
	}
	v, ok := reflectutil.Indirect(reflect.ValueOf(data))
	if !ok {
		return nil, false
	}
	switch part.Kind {
	case IndexPart:
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return nil, false
		}
		index := part.Index
		if index < 0 {
			index += v.Len()
		}
		if index < 0 || index >= v.Len() {
			return nil, false
		}
		return v.Index(index).Interface(), true
	default:
		switch v.Kind() {
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			entry := v.MapIndex(reflect.ValueOf(part.Name).Convert(v.Type().Key()))
			if !entry.IsValid() {
				return nil, false
			}
			return entry.Interface(), true
		case reflect.Struct:
			field, err := reflectutil.SafeFieldByName(v, part.Name)
			if err != nil || !field.CanInterface() {
				return nil, false
			}
			return field.Interface(), true
		}
	}
	return nil, false
}

// GetNestedField parses path and resolves it against data
func GetNestedField(data interface{}, path string) (interface{}, bool) {
	p, err := Parse(path)
	if err != nil {
		return nil, false
	}
	return p.Get(data)
}

// IsNestedField reports whether name goes beyond a single top-level field
func IsNestedField(name string) bool {
	return strings.ContainsAny(name, ".[")
}

// TopLevelField returns the first step name, "device" for "device.site"
func TopLevelField(path string) string {
	if i := strings.IndexAny(path, ".["); i > 0 {
		return path[:i]
	}
	return path
}
