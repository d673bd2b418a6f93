package aassert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/productstore/aassert"
)

func TestNumFields(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		s    any
		n    int
		pass bool
	}{
		"nil":             {nil, 0, false},
		"bool":            {false, 0, false},
		"int":             {0, 0, false},
		"string":          {"", 0, false},
		"slice":           {[]int{}, 0, false},
		"ptr to int":      {new(int), 0, false},
		"simple struct":   {item{}, 2, true},
		"simple miscount": {item{}, 1337, false},
		"ptr to struct":   {&item{}, 2, true},
		"with slice":      {order{}, 5, true},
		"with map":        {catalogue{}, 4, true},
		"embedded":        {stock{}, 4, true}, // the unexported item is not counted
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pass := aassert.NumFields(new(testing.T), tt.n, tt.s)
			assert.Equal(t, tt.pass, pass)
		})
	}
}

type (
	item struct {
		Name   string
		Weight int
		note   string //nolint:unused
	}
	order struct {
		ID    int
		Items []item
		Ref   *int
	}
	catalogue struct {
		Name  string
		Items map[int]item
	}
	stock struct {
		item
		Count  int
		Parent *item
	}
)
