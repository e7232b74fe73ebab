package util

import (
	"reflect"

	"github.com/pkg/errors"
)

// IsStructInitialized checks all exported fields of the given struct pointer
// and returns an error naming the first nil component. Used by the server's
// readiness probe to detect partially initialized state.
func IsStructInitialized(v interface{}) error {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return errors.New("not a struct")
	}

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)

		switch field.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if field.IsNil() {
				return errors.Errorf("field %q is not initialized", val.Type().Field(i).Name)
			}
		default:
			// value types are always considered initialized
		}
	}

	return nil
}
