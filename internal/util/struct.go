package util

import (
	"reflect"

	"github.com/pkg/errors"
)

// IsStructInitialized reports whether all exported nilable fields of the
// struct behind v are non-nil. It walks one level only.
func IsStructInitialized(v interface{}) error {
	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return errors.New("value is nil")
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return errors.Errorf("value is not a struct but %s", val.Kind())
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		switch val.Field(i).Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if val.Field(i).IsNil() {
				return errors.Errorf("field %s is not initialized", field.Name)
			}
		default:
		}
	}

	return nil
}
