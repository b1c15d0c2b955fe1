package reflectutil

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Indirect follows pointers and interfaces down to a concrete value.
// It returns false when it meets a nil.
func Indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

// SafeFieldByName returns the exported struct field name of v
func SafeFieldByName(v reflect.Value, name string) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Value{}, errors.New("invalid value")
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, errors.Newf("value is not a struct, got %v", v.Kind())
	}
	sf, ok := v.Type().FieldByName(name)
	if !ok {
		return reflect.Value{}, errors.Newf("field %s not found", name)
	}
	if !sf.IsExported() {
		return reflect.Value{}, errors.Newf("field %s is not exported", name)
	}
	field, err := v.FieldByIndexErr(sf.Index)
	if err != nil {
		return reflect.Value{}, errors.Wrapf(err, "field %s", name)
	}
	return field, nil
}
