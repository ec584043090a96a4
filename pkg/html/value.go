package html

import (
	"fmt"
	"reflect"
	"strconv"
)

// Visitor receives a template's output in document order.
//
// Markup is called with literal fragments, trusted markup and already
// escaped text; it never sees unescaped user input. Async is called once
// for every async value, at the position its content belongs.
type Visitor interface {
	Markup(s string) error
	Async(a *Async) error
}

// Kind classifies an interpolated value.
type Kind uint8

const (
	KindEmpty     Kind = iota // nil, nil pointer
	KindText                  // escaped before emission
	KindRaw                   // RawHTML, emitted verbatim
	KindTemplate              // nested *Template, emitted verbatim
	KindSequence              // flattened depth-first
	KindAsync                 // resolved by the renderer
	KindInvalid               // rejected with a CompositionError
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindText:
		return "Text"
	case KindRaw:
		return "Raw"
	case KindTemplate:
		return "Template"
	case KindSequence:
		return "Sequence"
	case KindAsync:
		return "Async"
	default:
		return "Invalid"
	}
}

// Classify reports how the escaping engine treats v.
func Classify(v any) Kind {
	n, err := normalize(v)
	if err != nil {
		return KindInvalid
	}
	switch x := n.(type) {
	case nil:
		return KindEmpty
	case string:
		return KindText
	case RawHTML:
		return KindRaw
	case *Template:
		if x == nil {
			return KindEmpty
		}
		return KindTemplate
	case []any:
		return KindSequence
	case *Async:
		return KindAsync
	}
	return KindInvalid
}

// Walk visits any renderable value the same way a template visits its
// interpolations. Renderers use it for the value an async slot resolved to.
func Walk(value any, v Visitor) error {
	n, err := normalize(value)
	if err != nil {
		return err
	}
	return walk(n, v)
}

// walk expects a value that went through normalize.
func walk(value any, v Visitor) error {
	switch x := value.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		return v.Markup(EscapeString(x))
	case RawHTML:
		if x == "" {
			return nil
		}
		return v.Markup(string(x))
	case *Template:
		return x.Walk(v)
	case []any:
		for _, item := range x {
			if err := walk(item, v); err != nil {
				return err
			}
		}
		return nil
	case *Async:
		return v.Async(x)
	default:
		return compositionError("E103", "unsupported template value", value)
	}
}

// normalize converts v to one of: nil, string, RawHTML, *Template,
// []any (of normalized values) or *Async. Slices are copied so later
// changes by the caller do not leak into the template.
func normalize(v any) (any, error) {
	// Typed nil pointers render empty, even when their type has String or
	// Error methods that would dereference them.
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}

	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case RawHTML:
		return x, nil
	case *Template:
		if x == nil {
			return nil, nil
		}
		return x, nil
	case *Async:
		if x == nil {
			return nil, nil
		}
		return x, nil
	case []byte:
		return string(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(x).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return strconv.FormatUint(reflect.ValueOf(x).Uint(), 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case []any:
		return normalizeSlice(reflect.ValueOf(x))
	case error:
		return x.Error(), nil
	case fmt.Stringer:
		return x.String(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return normalizeSlice(rv)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	}

	return nil, compositionError("E103", "unsupported template value", v)
}

func normalizeSlice(rv reflect.Value) (any, error) {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		n, err := normalize(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
