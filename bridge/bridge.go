package bridge

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/sparrowcbor/cbor"
)

var timeType = reflect.TypeOf(time.Time{})

// Decode parses b as CBOR and unmarshals the result into a freshly
// allocated T.
func Decode[T any](b []byte, opts DecodeOptions) (T, error) {
	var out T
	v, _, err := cbor.DecodeValue(b, opts.readerOptions())
	if err != nil {
		return out, err
	}
	if err := Unmarshal(v, &out, opts); err != nil {
		return out, err
	}
	return out, nil
}

// Encode marshals v to a Value tree and encodes it to bytes.
func Encode(v any, opts EncodeOptions) ([]byte, error) {
	val, err := Marshal(v, opts)
	if err != nil {
		return nil, err
	}
	return cbor.EncodeValue(val, opts.encodeOptions())
}

// Marshal walks v by reflection and builds the equivalent Value tree.
func Marshal(v any, opts EncodeOptions) (cbor.Value, error) {
	return marshalValue(reflect.ValueOf(v), opts, nil)
}

// Unmarshal walks v's tree and populates target, which must be a
// non-nil pointer.
func Unmarshal(v cbor.Value, target any, opts DecodeOptions) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("bridge: Unmarshal target must be a non-nil pointer")
	}
	return unmarshalValue(v, rv.Elem(), opts, nil)
}

func marshalValue(rv reflect.Value, opts EncodeOptions, path []any) (cbor.Value, error) {
	if !rv.IsValid() {
		return cbor.NewSimple(cbor.SimpleNull), nil
	}
	if rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return cbor.NewSimple(cbor.SimpleNull), nil
		}
		return marshalValue(rv.Elem(), opts, path)
	}
	if rv.Type() == timeType {
		return marshalDate(rv.Interface().(time.Time), opts, path)
	}

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return cbor.NewSimple(cbor.SimpleTrue), nil
		}
		return cbor.NewSimple(cbor.SimpleFalse), nil
	case reflect.String:
		return cbor.NewTextString(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n >= 0 {
			return cbor.NewUnsigned(uint64(n)), nil
		}
		return cbor.NewNegative(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cbor.NewUnsigned(rv.Uint()), nil
	case reflect.Float32:
		return cbor.NewFloat32(float32(rv.Float())), nil
	case reflect.Float64:
		return cbor.NewFloat64(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return marshalData(bytesOf(rv), opts, path)
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return cbor.NewSimple(cbor.SimpleNull), nil
		}
		items := make([]cbor.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			iv, err := marshalValue(rv.Index(i), opts, append(path, i))
			if err != nil {
				return cbor.Value{}, err
			}
			items[i] = iv
		}
		return cbor.NewArray(items), nil
	case reflect.Map:
		if rv.IsNil() {
			return cbor.NewSimple(cbor.SimpleNull), nil
		}
		entries := make([]cbor.MapEntry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			keyStr, err := mapKeyString(iter.Key())
			if err != nil {
				return cbor.Value{}, failAt(append(path, "<key>"), err)
			}
			vv, err := marshalValue(iter.Value(), opts, append(path, keyStr))
			if err != nil {
				return cbor.Value{}, err
			}
			entries = append(entries, cbor.MapEntry{
				Key:   cbor.NewKey(cbor.NewTextString(keyStr)),
				Value: vv,
			})
		}
		return cbor.NewMap(entries), nil
	case reflect.Struct:
		return marshalStruct(rv, opts, path)
	default:
		return cbor.Value{}, failAt(path, fmt.Errorf("bridge: unsupported kind %s", rv.Kind()))
	}
}

func bytesOf(rv reflect.Value) []byte {
	if rv.Kind() == reflect.Slice {
		return rv.Bytes()
	}
	b := make([]byte, rv.Len())
	for i := range b {
		b[i] = byte(rv.Index(i).Uint())
	}
	return b
}

type structField struct {
	index     int
	key       string
	omitempty bool
}

func structFields(t reflect.Type, opts any) []structField {
	var key func(name string) string
	switch o := opts.(type) {
	case EncodeOptions:
		key = func(name string) string { return deriveKey(name, o.Key, o.CustomKey) }
	case DecodeOptions:
		key = func(name string) string { return deriveKey(name, o.Key, o.CustomKey) }
	}
	fields := make([]structField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		tag := f.Tag.Get("cbor")
		if tag == "-" {
			continue
		}
		name, omitempty := parseTag(tag)
		if name == "" {
			name = key(f.Name)
		}
		fields = append(fields, structField{index: i, key: name, omitempty: omitempty})
	}
	return fields
}

func parseTag(tag string) (name string, omitempty bool) {
	if tag == "" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func deriveKey(fieldName string, strategy KeyStrategy, custom func(string) string) string {
	switch strategy {
	case KeyConvertFromSnakeCase:
		return toSnakeCase(fieldName)
	case KeyCustom:
		if custom != nil {
			return custom(fieldName)
		}
		return fieldName
	default:
		return fieldName
	}
}

func toSnakeCase(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func marshalStruct(rv reflect.Value, opts EncodeOptions, path []any) (cbor.Value, error) {
	fields := structFields(rv.Type(), opts)
	entries := make([]cbor.MapEntry, 0, len(fields))
	for _, f := range fields {
		fv := rv.Field(f.index)
		if f.omitempty && fv.IsZero() {
			continue
		}
		vv, err := marshalValue(fv, opts, append(path, f.key))
		if err != nil {
			return cbor.Value{}, err
		}
		entries = append(entries, cbor.MapEntry{
			Key:   cbor.NewKey(cbor.NewTextString(f.key)),
			Value: vv,
		})
	}
	return cbor.NewMap(entries), nil
}

func marshalDate(t time.Time, opts EncodeOptions, path []any) (cbor.Value, error) {
	switch opts.Date {
	case DateTagged:
		return cbor.NewTagged(1, cbor.NewFloat64(float64(t.UnixNano())/1e9)), nil
	case DateISO8601String:
		return cbor.NewTextString(t.UTC().Format(time.RFC3339Nano)), nil
	case DateCustom:
		if opts.CustomDate == nil {
			return cbor.Value{}, failAt(path, fmt.Errorf("bridge: DateCustom strategy requires CustomDate"))
		}
		vv, err := opts.CustomDate(t.Unix())
		if err != nil {
			return cbor.Value{}, failAt(path, err)
		}
		return vv, nil
	default: // DateEpochTime
		if sec := t.Unix(); sec < 0 {
			return cbor.NewNegative(sec), nil
		}
		return cbor.NewUnsigned(uint64(t.Unix())), nil
	}
}

func marshalData(b []byte, opts EncodeOptions, path []any) (cbor.Value, error) {
	switch opts.Data {
	case DataBase64String:
		return cbor.NewTextString(base64.StdEncoding.EncodeToString(b)), nil
	case DataCustom:
		if opts.CustomData == nil {
			return cbor.Value{}, failAt(path, fmt.Errorf("bridge: DataCustom strategy requires CustomData"))
		}
		return opts.CustomData(b)
	default: // DataByteString
		return cbor.NewByteString(b), nil
	}
}

func mapKeyString(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	default:
		return "", fmt.Errorf("bridge: unsupported map key kind %s", k.Kind())
	}
}

// --- unmarshal ---

func unmarshalValue(v cbor.Value, rv reflect.Value, opts DecodeOptions, path []any) error {
	if rv.Kind() == reflect.Ptr {
		if v.IsSimple() {
			if s, _ := v.Simple(); s == cbor.SimpleNull {
				rv.Set(reflect.Zero(rv.Type()))
				return nil
			}
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return unmarshalValue(v, rv.Elem(), opts, path)
	}
	if rv.Type() == timeType {
		t, err := unmarshalDate(v, opts, path)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(t))
		return nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		s, ok := v.Simple()
		if !ok {
			return failAt(path, fmt.Errorf("bridge: expected bool, got %s", v.Kind()))
		}
		rv.SetBool(s == cbor.SimpleTrue)
		return nil
	case reflect.String:
		s, ok := v.Text()
		if !ok {
			return failAt(path, fmt.Errorf("bridge: expected text string, got %s", v.Kind()))
		}
		rv.SetString(s)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := intFromValue(v, path)
		if err != nil {
			return err
		}
		if rv.OverflowInt(n) {
			return failAt(path, fmt.Errorf("bridge: value %d out of range for %s", n, rv.Type()))
		}
		rv.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, ok := v.Unsigned()
		if !ok {
			return failAt(path, fmt.Errorf("bridge: expected unsigned integer, got %s", v.Kind()))
		}
		if rv.OverflowUint(u) {
			return failAt(path, fmt.Errorf("bridge: value %d out of range for %s", u, rv.Type()))
		}
		rv.SetUint(u)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := floatFromValue(v, opts, path)
		if err != nil {
			return err
		}
		rv.SetFloat(f)
		return nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b, err := unmarshalData(v, opts, path)
			if err != nil {
				return err
			}
			rv.SetBytes(b)
			return nil
		}
		items, ok := v.Items()
		if !ok {
			return failAt(path, fmt.Errorf("bridge: expected array, got %s", v.Kind()))
		}
		out := reflect.MakeSlice(rv.Type(), len(items), len(items))
		for i, item := range items {
			if err := unmarshalValue(item, out.Index(i), opts, append(path, i)); err != nil {
				return err
			}
		}
		rv.Set(out)
		return nil
	case reflect.Map:
		entries, ok := v.Entries()
		if !ok {
			return failAt(path, fmt.Errorf("bridge: expected map, got %s", v.Kind()))
		}
		out := reflect.MakeMapWithSize(rv.Type(), len(entries))
		for _, e := range entries {
			keyStr, ok := e.Key.Value().Text()
			if !ok {
				return failAt(path, fmt.Errorf("bridge: non-text map key unsupported"))
			}
			kv := reflect.New(rv.Type().Key()).Elem()
			if err := setMapKey(kv, keyStr); err != nil {
				return failAt(append(path, keyStr), err)
			}
			vv := reflect.New(rv.Type().Elem()).Elem()
			if err := unmarshalValue(e.Value, vv, opts, append(path, keyStr)); err != nil {
				return err
			}
			out.SetMapIndex(kv, vv)
		}
		rv.Set(out)
		return nil
	case reflect.Struct:
		return unmarshalStruct(v, rv, opts, path)
	default:
		return failAt(path, fmt.Errorf("bridge: unsupported kind %s", rv.Kind()))
	}
}

func setMapKey(kv reflect.Value, s string) error {
	switch kv.Kind() {
	case reflect.String:
		kv.SetString(s)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		kv.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		kv.SetUint(n)
		return nil
	default:
		return fmt.Errorf("bridge: unsupported map key kind %s", kv.Kind())
	}
}

func intFromValue(v cbor.Value, path []any) (int64, error) {
	if u, ok := v.Unsigned(); ok {
		if u > math.MaxInt64 {
			return 0, failAt(path, fmt.Errorf("bridge: value %d out of range for int64", u))
		}
		return int64(u), nil
	}
	if n, ok := v.Int64(); ok {
		return n, nil
	}
	return 0, failAt(path, fmt.Errorf("bridge: expected integer, got %s", v.Kind()))
}

// floatFromValue reads a float field, additionally accepting the text
// strings "NaN", "Infinity" and "-Infinity" under the
// FloatConvertFromString strategy for interop with producers that cannot
// carry non-finite numeric literals.
func floatFromValue(v cbor.Value, opts DecodeOptions, path []any) (float64, error) {
	if f, ok := v.Float64(); ok {
		return f, nil
	}
	if u, ok := v.Unsigned(); ok {
		return float64(u), nil
	}
	if n, ok := v.Int64(); ok {
		return float64(n), nil
	}
	if s, ok := v.Text(); ok && opts.NonconformingFloat == FloatConvertFromString {
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
	}
	return 0, failAt(path, fmt.Errorf("bridge: expected float, got %s", v.Kind()))
}

func unmarshalStruct(v cbor.Value, rv reflect.Value, opts DecodeOptions, path []any) error {
	fields := structFields(rv.Type(), opts)
	for _, f := range fields {
		fv, ok := v.Lookup(f.key)
		if !ok {
			continue
		}
		if err := unmarshalValue(fv, rv.Field(f.index), opts, append(path, f.key)); err != nil {
			return err
		}
	}
	return nil
}

func unmarshalDate(v cbor.Value, opts DecodeOptions, path []any) (time.Time, error) {
	switch opts.Date {
	case DateTagged:
		tag, inner, ok := v.Tag()
		if !ok || tag != 1 {
			return time.Time{}, failAt(path, fmt.Errorf("bridge: expected tag 1 date, got %s", v.Kind()))
		}
		f, ok := inner.Float64()
		if !ok {
			u, ok := inner.Unsigned()
			if !ok {
				return time.Time{}, failAt(path, fmt.Errorf("bridge: malformed tag-1 date content"))
			}
			f = float64(u)
		}
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC(), nil
	case DateISO8601String:
		s, ok := v.Text()
		if !ok {
			return time.Time{}, failAt(path, fmt.Errorf("bridge: expected ISO-8601 text string date"))
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, failAt(path, err)
		}
		return t, nil
	case DateCustom:
		if opts.CustomDate == nil {
			return time.Time{}, failAt(path, fmt.Errorf("bridge: DateCustom strategy requires CustomDate"))
		}
		sec, err := opts.CustomDate(v)
		if err != nil {
			return time.Time{}, failAt(path, err)
		}
		return time.Unix(sec, 0).UTC(), nil
	default: // DateEpochTime
		if n, ok := v.Int64(); ok {
			return time.Unix(n, 0).UTC(), nil
		}
		u, ok := v.Unsigned()
		if !ok {
			return time.Time{}, failAt(path, fmt.Errorf("bridge: expected epoch-time integer"))
		}
		return time.Unix(int64(u), 0).UTC(), nil
	}
}

func unmarshalData(v cbor.Value, opts DecodeOptions, path []any) ([]byte, error) {
	switch opts.Data {
	case DataBase64String:
		s, ok := v.Text()
		if !ok {
			return nil, failAt(path, fmt.Errorf("bridge: expected base64 text string"))
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, failAt(path, err)
		}
		return b, nil
	case DataCustom:
		if opts.CustomData == nil {
			return nil, failAt(path, fmt.Errorf("bridge: DataCustom strategy requires CustomData"))
		}
		b, err := opts.CustomData(v)
		if err != nil {
			return nil, failAt(path, err)
		}
		return b, nil
	default: // DataByteString
		b, ok := v.Bytes()
		if !ok {
			return nil, failAt(path, fmt.Errorf("bridge: expected byte string"))
		}
		return b, nil
	}
}
