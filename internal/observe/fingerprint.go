package observe

import (
	"bytes"
	"fmt"
	"reflect"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// fingerprint encodes a snapshot for change detection. Structs are compared
// by their exported fields. Maps of any type are rewritten as key-sorted
// pair lists first, so equal maps encode the same.
func fingerprint(v any) ([]byte, error) {
	c, err := canonical(reflect.ValueOf(v))
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	return buf.Bytes(), nil
}

// canonical returns v with every reachable map replaced by a list of
// alternating keys and values ordered by encoded key. Values that cannot
// hold a map are returned unchanged.
func canonical(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	if !mayHoldMap(v.Type(), map[reflect.Type]bool{}) {
		return v.Interface(), nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return canonical(v.Elem())

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		out := make([]any, v.Len())
		for i := range out {
			c, err := canonical(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil

	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		type entry struct {
			key []byte
			val any
		}
		entries := make([]entry, 0, v.Len())
		it := v.MapRange()
		for it.Next() {
			k, err := canonical(it.Key())
			if err != nil {
				return nil, err
			}
			kb, err := msgpack.Marshal(k)
			if err != nil {
				return nil, err
			}
			val, err := canonical(it.Value())
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{key: kb, val: val})
		}
		slices.SortFunc(entries, func(a, b entry) int { return bytes.Compare(a.key, b.key) })

		out := make([]any, 0, 2*len(entries))
		for _, e := range entries {
			out = append(out, msgpack.RawMessage(e.key), e.val)
		}
		return out, nil

	case reflect.Struct:
		t := v.Type()
		out := make([]any, 0, 2*t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			c, err := canonical(v.Field(i))
			if err != nil {
				return nil, err
			}
			out = append(out, f.Name, c)
		}
		return out, nil
	}
	return v.Interface(), nil
}

// mayHoldMap reports whether a value of type t can reach a map through
// exported fields, elements or interfaces.
func mayHoldMap(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Map, reflect.Interface:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return mayHoldMap(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() && mayHoldMap(f.Type, seen) {
				return true
			}
		}
	}
	return false
}
