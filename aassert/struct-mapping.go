package aassert

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// NumFields asserts that the struct object has the expected number of exported fields.
// Exported fields of nested and embedded structs are counted as well,
// so are the element types of pointers, slices, arrays, and maps.
//
// Use it next to the functions mapping a struct from one layer to another,
// e.g. a request body to a domain type. A new field fails the test,
// until the mapping is checked and expected is corrected.
func NumFields(t *testing.T, expected int, object any, msgAndArgs ...any) bool {
	t.Helper()

	typ := reflect.TypeOf(object)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if typ == nil || typ.Kind() != reflect.Struct {
		return assert.Fail(t, "invalid argument, it has to be a struct", msgAndArgs...)
	}

	if fields := countFields(typ); fields != expected {
		t.Logf("the exported fields of %s changed: check all functions mapping it and correct the count in %s",
			typ, t.Name())

		return assert.Fail(t, fmt.Sprintf("struct changed, it has: %d fields, expected: %d", fields, expected), msgAndArgs...)
	}

	return true
}

func countFields(typ reflect.Type) int {
	switch typ.Kind() { //nolint:exhaustive // all other kinds have no fields
	case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Map:
		return countFields(typ.Elem())
	case reflect.Struct:
	default:
		return 0
	}

	var fields int

	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		fields += 1 + countFields(field.Type)
	}

	return fields
}
