package tracker

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Base is embedded by every domain object. It holds the client the object
// was decoded by, so follow-up calls do not need the client passed again.
type Base struct {
	client *Client
}

// Tracker returns the client that decoded the object, or nil for objects
// built by hand.
func (b *Base) Tracker() *Client {
	return b.client
}

func (b *Base) bind(c *Client) {
	b.client = c
}

// bindable is satisfied by any struct embedding Base.
type bindable interface {
	bind(*Client)
}

var (
	bindableType        = reflect.TypeFor[bindable]()
	jsonUnmarshalerType = reflect.TypeFor[json.Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

type shapeKind int

const (
	shapeLeaf shapeKind = iota
	shapeStruct
	shapeList
	shapeMap
)

// shape is the precomputed validation plan of a type: which object keys
// must be present, and how to descend into nested values.
type shape struct {
	kind   shapeKind
	fields []shapeField
	elem   *shape
	// elemNullable is set when list or map elements may be null.
	elemNullable bool
	// required is set for structs with at least one required field.
	required bool
}

type shapeField struct {
	name     string
	required bool
	shape    *shape
}

// decoder decodes JSON into one concrete type.
type decoder struct {
	typ   reflect.Type
	shape *shape
}

// nullable reports whether JSON null is a valid value for t.
func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

// decoderRegistry caches one decoder per target type. Entries are never
// removed.
type decoderRegistry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*decoder
}

func newDecoderRegistry() *decoderRegistry {
	return &decoderRegistry{entries: make(map[reflect.Type]*decoder)}
}

func (r *decoderRegistry) get(t reflect.Type) *decoder {
	r.mu.RLock()
	d, ok := r.entries[t]
	r.mu.RUnlock()
	if ok {
		return d
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.entries[t]; ok {
		return d
	}
	d = &decoder{typ: t, shape: shapeOf(t, make(map[reflect.Type]*shape))}
	r.entries[t] = d
	return d
}

func (r *decoderRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Decode decodes data into T, verifies that every required field is present
// and binds c to every domain object in the result.
//
// A struct field is required when its json tag names it without omitempty.
// Custom types may relax a base requirement by redeclaring the field with
// omitempty.
func Decode[T any](c *Client, data []byte) (T, error) {
	var out T
	d := c.decoders.get(reflect.TypeFor[T]())
	if err := d.decode(c, data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (d *decoder) decode(c *Client, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		de := &DecodeError{Type: d.typ.String(), Err: err}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			de.Field = typeErr.Field
		}
		return de
	}

	if d.shape.kind != shapeLeaf {
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return &DecodeError{Type: d.typ.String(), Err: err}
		}
		if field, err := d.shape.check(raw, "", nullable(d.typ)); err != nil {
			return &DecodeError{Type: d.typ.String(), Field: field, Err: err}
		}
	}

	bindValue(reflect.ValueOf(out).Elem(), c)
	return nil
}

var errMissingField = errors.New("required field is missing")

// check walks raw alongside the shape and returns the path of the first
// required field that is absent or null. A null object is accepted only
// where nullOK is set or the struct has no required fields.
func (s *shape) check(raw any, path string, nullOK bool) (string, error) {
	if raw == nil {
		if s.kind == shapeStruct && s.required && !nullOK {
			return path, errMissingField
		}
		return "", nil
	}

	switch s.kind {
	case shapeStruct:
		obj, ok := raw.(map[string]any)
		if !ok {
			return path, nil
		}
		for _, f := range s.fields {
			value, present := lookupKey(obj, f.name)
			fieldPath := joinPath(path, f.name)
			if f.required && (!present || value == nil) {
				return fieldPath, errMissingField
			}
			if !present || f.shape.kind == shapeLeaf {
				continue
			}
			// optional fields treat null as absent
			if p, err := f.shape.check(value, fieldPath, !f.required); err != nil {
				return p, err
			}
		}
	case shapeList:
		list, ok := raw.([]any)
		if !ok || s.elem.kind == shapeLeaf {
			return "", nil
		}
		for i, item := range list {
			if p, err := s.elem.check(item, fmt.Sprintf("%s[%d]", path, i), s.elemNullable); err != nil {
				return p, err
			}
		}
	case shapeMap:
		obj, ok := raw.(map[string]any)
		if !ok || s.elem.kind == shapeLeaf {
			return "", nil
		}
		for key, item := range obj {
			if p, err := s.elem.check(item, joinPath(path, key), s.elemNullable); err != nil {
				return p, err
			}
		}
	}
	return "", nil
}

// lookupKey matches keys the way encoding/json does: exact first, then case
// insensitive.
func lookupKey(obj map[string]any, name string) (any, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// shapeOf builds the validation plan for t. seen breaks cycles in
// self-referencing types.
func shapeOf(t reflect.Type, seen map[reflect.Type]*shape) *shape {
	if s, ok := seen[t]; ok {
		return s
	}
	if t.Kind() == reflect.Pointer && !customDecoded(t) {
		s := shapeOf(t.Elem(), seen)
		seen[t] = s
		return s
	}

	s := &shape{}
	seen[t] = s
	if customDecoded(t) {
		return s
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return s
		}
		s.kind = shapeList
		s.elem = shapeOf(t.Elem(), seen)
		s.elemNullable = nullable(t.Elem())
	case reflect.Map:
		s.kind = shapeMap
		s.elem = shapeOf(t.Elem(), seen)
		s.elemNullable = nullable(t.Elem())
	case reflect.Struct:
		s.kind = shapeStruct
		for _, jf := range jsonFields(t) {
			tagName, opts, _ := strings.Cut(jf.field.Tag.Get("json"), ",")
			required := tagName != "" && !hasOption(opts, "omitempty")
			s.required = s.required || required
			s.fields = append(s.fields, shapeField{
				name:     jf.name,
				required: required,
				shape:    shapeOf(jf.field.Type, seen),
			})
		}
	}
	return s
}

func customDecoded(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return pt.Implements(jsonUnmarshalerType) || pt.Implements(textUnmarshalerType)
}

func hasOption(opts, option string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == option {
			return true
		}
	}
	return false
}

// bindValue sets the client back-reference on v and every domain object
// reachable from it.
func bindValue(v reflect.Value, c *Client) {
	switch v.Kind() {
	case reflect.Pointer:
		if !v.IsNil() {
			bindValue(v.Elem(), c)
		}
	case reflect.Struct:
		if v.CanAddr() && v.Addr().Type().Implements(bindableType) {
			v.Addr().Interface().(bindable).bind(c)
		}
		t := v.Type()
		for i := range t.NumField() {
			if t.Field(i).IsExported() {
				bindValue(v.Field(i), c)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			bindValue(v.Index(i), c)
		}
	case reflect.Map:
		if v.IsNil() {
			return
		}
		elem := v.Type().Elem()
		iter := v.MapRange()
		for iter.Next() {
			if elem.Kind() == reflect.Pointer {
				bindValue(iter.Value(), c)
				continue
			}
			if elem.Kind() != reflect.Struct {
				continue
			}
			cp := reflect.New(elem).Elem()
			cp.Set(iter.Value())
			bindValue(cp, c)
			v.SetMapIndex(iter.Key(), cp)
		}
	}
}
