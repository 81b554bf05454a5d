package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// ErrUnsupportedFieldType is returned by Hash when a `hash:"true"` tagged
// field has a type GetHash does not know how to stringify.
var ErrUnsupportedFieldType = errors.New("unsupported field type for hashing")

// HashTagName is the struct tag GetHash inspects, matching the teacher's
// core.HashmeTagName convention.
const HashTagName = "hash"

// GetHash renders a stable string out of every field tagged `hash:"true"`
// on t/v, recursing into nested structs. It is used to detect whether a
// HandlerSettings a Host reloaded (e.g. from a config file) differs from
// the settings a running handler was constructed with, mirroring the
// teacher's core.BareJob.Hash() use for detecting Docker label changes.
func GetHash(t reflect.Type, v reflect.Value, hash *string) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldv := v.Field(i)
		kind := field.Type.Kind()

		if kind == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) {
			if err := GetHash(field.Type, fieldv, hash); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get(HashTagName) != "true" {
			continue
		}

		switch kind {
		case reflect.String:
			*hash += fieldv.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			*hash += strconv.FormatInt(fieldv.Int(), 10)
		case reflect.Bool:
			*hash += strconv.FormatBool(fieldv.Bool())
		case reflect.Slice:
			if field.Type.Elem().Kind() != reflect.String {
				return ErrUnsupportedFieldType
			}
			strs, _ := fieldv.Interface().([]string)
			for _, s := range strs {
				*hash += fmt.Sprintf("%d:%s,", len(s), s)
			}
		default:
			return fmt.Errorf("%w: field %q of type %q", ErrUnsupportedFieldType, field.Name, field.Type)
		}
	}
	return nil
}
