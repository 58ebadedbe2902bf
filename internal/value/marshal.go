package value

import (
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the textual form timestamps are stored in: UTC with
// millisecond precision.
const TimeLayout = "2006-01-02 15:04:05.000"

// timeLayouts are accepted when decoding text into a time.Time.
var timeLayouts = []string{
	TimeLayout,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339Nano,
}

// ErrNull is returned when NULL is decoded into a non-optional destination.
var ErrNull = errors.New("NULL value for non-optional destination")

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Bind normalises v into a driver argument. Times become TimeLayout text,
// bools become 0/1, nil pointers become NULL and non-nil pointers are
// dereferenced. driver.Valuer implementations are passed through unchanged.
func Bind(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case driver.Valuer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil
		}
		return x
	case time.Time:
		return FormatTime(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return FormatTime(*x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case int64, float64, string, []byte:
		return x
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return Bind(rv.Elem().Interface())
	}
	return v
}

// Assign decodes the driver value src into dst, which must be a non-nil
// pointer. A pointer-to-pointer destination is optional: NULL sets it to nil.
// NULL into any other destination fails with ErrNull.
func Assign(dst, src any) error {
	if s, ok := dst.(sql.Scanner); ok {
		return s.Scan(src)
	}

	switch d := dst.(type) {
	case *any:
		*d = src
		return nil
	case *string:
		return assignString(d, src)
	case *[]byte:
		return assignBytes(d, src)
	case *bool:
		n, err := asInt(src)
		if err != nil {
			return err
		}
		*d = n != 0
		return nil
	case *time.Time:
		return assignTime(d, src)
	case *float64:
		f, err := asFloat(src)
		if err != nil {
			return err
		}
		*d = f
		return nil
	case *float32:
		f, err := asFloat(src)
		if err != nil {
			return err
		}
		*d = float32(f)
		return nil
	case *int64:
		n, err := asInt(src)
		if err != nil {
			return err
		}
		*d = n
		return nil
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer, got %T", dst)
	}
	elem := rv.Elem()

	// Optional destination.
	if elem.Kind() == reflect.Pointer {
		if src == nil {
			elem.Set(reflect.Zero(elem.Type()))
			return nil
		}
		fresh := reflect.New(elem.Type().Elem())
		if err := Assign(fresh.Interface(), src); err != nil {
			return err
		}
		elem.Set(fresh)
		return nil
	}

	switch elem.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := asInt(src)
		if err != nil {
			return err
		}
		if elem.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, elem.Type())
		}
		elem.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := asInt(src)
		if err != nil {
			return err
		}
		if n < 0 || elem.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, elem.Type())
		}
		elem.SetUint(uint64(n))
		return nil
	case reflect.String:
		var s string
		if err := assignString(&s, src); err != nil {
			return err
		}
		elem.SetString(s)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := asFloat(src)
		if err != nil {
			return err
		}
		elem.SetFloat(f)
		return nil
	case reflect.Bool:
		n, err := asInt(src)
		if err != nil {
			return err
		}
		elem.SetBool(n != 0)
		return nil
	}
	return fmt.Errorf("unsupported destination type %T", dst)
}

// Decode decodes src into a fresh V.
func Decode[V any](src any) (V, error) {
	var v V
	err := Assign(&v, src)
	return v, err
}

func assignString(d *string, src any) error {
	switch s := src.(type) {
	case nil:
		return ErrNull
	case string:
		*d = s
	case []byte:
		*d = string(s)
	case int64:
		*d = strconv.FormatInt(s, 10)
	case float64:
		*d = strconv.FormatFloat(s, 'g', -1, 64)
	case bool:
		*d = strconv.FormatBool(s)
	case time.Time:
		*d = FormatTime(s)
	default:
		return fmt.Errorf("cannot decode %T into string", src)
	}
	return nil
}

func assignBytes(d *[]byte, src any) error {
	switch s := src.(type) {
	case nil:
		return ErrNull
	case []byte:
		*d = append([]byte(nil), s...)
	case string:
		*d = []byte(s)
	default:
		return fmt.Errorf("cannot decode %T into []byte", src)
	}
	return nil
}

func assignTime(d *time.Time, src any) error {
	switch s := src.(type) {
	case nil:
		return ErrNull
	case time.Time:
		*d = s.UTC()
		return nil
	case []byte:
		return assignTime(d, string(s))
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				*d = t.UTC()
				return nil
			}
		}
		return fmt.Errorf("cannot parse %q as time", s)
	case int64:
		*d = time.Unix(s, 0).UTC()
		return nil
	}
	return fmt.Errorf("cannot decode %T into time.Time", src)
}

func asInt(src any) (int64, error) {
	switch s := src.(type) {
	case nil:
		return 0, ErrNull
	case int64:
		return s, nil
	case bool:
		if s {
			return 1, nil
		}
		return 0, nil
	case float64:
		if s != math.Trunc(s) {
			return 0, fmt.Errorf("cannot decode %v into integer", s)
		}
		return int64(s), nil
	case []byte:
		return strconv.ParseInt(string(s), 10, 64)
	case string:
		return strconv.ParseInt(s, 10, 64)
	}
	return 0, fmt.Errorf("cannot decode %T into integer", src)
}

func asFloat(src any) (float64, error) {
	switch s := src.(type) {
	case nil:
		return 0, ErrNull
	case float64:
		return s, nil
	case int64:
		return float64(s), nil
	case []byte:
		return strconv.ParseFloat(string(s), 64)
	case string:
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("cannot decode %T into float", src)
}

// Literal renders v as an inline SQL literal.
func Literal(v any) (string, error) {
	switch x := Bind(v).(type) {
	case nil:
		return "NULL", nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return "", fmt.Errorf("cannot render %v as SQL literal", x)
		}
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(x)) + "'", nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return "", fmt.Errorf("literal: %w", err)
		}
		if _, again := dv.(driver.Valuer); again {
			return "", fmt.Errorf("literal: %T resolves to another Valuer", v)
		}
		return Literal(dv)
	}
	return "", fmt.Errorf("cannot render %T as SQL literal", v)
}
