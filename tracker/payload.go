package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Fields carries caller supplied body fields that have no dedicated
// parameter. Keys may be snake_case argument names, Go field names or wire
// names.
type Fields map[string]any

// Payload describes a request body before normalization.
type Payload struct {
	// Args are the named arguments of the call.
	Args map[string]any
	// Extra is merged over Args.
	Extra Fields
	// Exclude lists argument names that must not reach the body,
	// typically values already used in the request path.
	Exclude []string
	// Target, when set, restricts Extra to the fields the type declares and
	// renames them to the declared wire names.
	Target reflect.Type
}

// reserved argument names never forwarded to the API.
var reserved = map[string]struct{}{
	"self": {},
	"cls":  {},
}

// Normalize produces the wire-ready body: reserved and excluded keys and unset
// values are dropped, keys are renamed with WireName and nested values are
// converted to plain JSON values.
func (p Payload) Normalize() (map[string]any, error) {
	out := make(map[string]any, len(p.Args)+len(p.Extra))

	skip := func(name string) bool {
		if _, ok := reserved[name]; ok {
			return true
		}
		for _, ex := range p.Exclude {
			if name == ex {
				return true
			}
		}
		return false
	}

	put := func(key string, value any) error {
		if skip(key) || isUnset(value) {
			return nil
		}
		plain, err := plainValue(value)
		if err != nil {
			return fmt.Errorf("failed to encode field %s: %w", key, err)
		}
		// values that marshal to null, such as a zero Time, count as unset
		if plain == nil {
			return nil
		}
		out[key] = plain
		return nil
	}

	for name, value := range p.Args {
		if skip(name) {
			continue
		}
		if err := put(WireName(name), value); err != nil {
			return nil, err
		}
	}

	var fields map[string]string
	if p.Target != nil {
		fields = wireFieldsOf(p.Target)
	}
	for name, value := range p.Extra {
		if skip(name) {
			continue
		}
		key := WireName(name)
		if p.Target != nil {
			declared, ok := fields[foldName(name)]
			if !ok {
				continue
			}
			key = declared
		}
		if err := put(key, value); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// isUnset reports whether v is nil, including typed nils.
func isUnset(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// plainValue returns v as a value built only from JSON primitives, maps and
// slices. Scalars are returned as is.
func plainValue(v any) (any, error) {
	switch v.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var plain any
	if err := dec.Decode(&plain); err != nil {
		return nil, err
	}
	return plain, nil
}

var wireFieldCache sync.Map // reflect.Type -> map[string]string

// wireFieldsOf maps the folded Go and wire names of every field of t,
// embedded fields included, to the field's wire name.
func wireFieldsOf(t reflect.Type) map[string]string {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if cached, ok := wireFieldCache.Load(t); ok {
		return cached.(map[string]string)
	}

	fields := make(map[string]string)
	if t.Kind() == reflect.Struct {
		depth := make(map[string]int)
		for _, jf := range jsonFields(t) {
			for _, alias := range []string{foldName(jf.field.Name), foldName(jf.name)} {
				if d, seen := depth[alias]; seen && d <= len(jf.field.Index) {
					continue
				}
				depth[alias] = len(jf.field.Index)
				fields[alias] = jf.name
			}
		}
	}

	wireFieldCache.Store(t, fields)
	return fields
}

// jsonFieldName returns the name encoding/json uses for f, and false when
// the field is not encoded on its own.
func jsonFieldName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if f.Anonymous && name == "" {
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			return "", false
		}
	}
	if name == "" {
		name = f.Name
	}
	return name, true
}

type jsonField struct {
	name  string
	field reflect.StructField
}

// jsonFields lists the fields encoding/json maps for struct type t. When
// several fields share a wire name, the shallowest one wins.
func jsonFields(t reflect.Type) []jsonField {
	var (
		fields []jsonField
		depth  = make(map[string]int)
		index  = make(map[string]int)
	)
	for _, f := range reflect.VisibleFields(t) {
		name, ok := jsonFieldName(f)
		if !ok {
			continue
		}
		if i, seen := index[name]; seen {
			if depth[name] <= len(f.Index) {
				continue
			}
			fields[i] = jsonField{name: name, field: f}
			depth[name] = len(f.Index)
			continue
		}
		index[name] = len(fields)
		depth[name] = len(f.Index)
		fields = append(fields, jsonField{name: name, field: f})
	}
	return fields
}
