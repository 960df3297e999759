package config_test

import (
	"reflect"
	"sort"
	"testing"

	"github.com/go-test/deep"
	"github.com/treeverse/gitvfs/pkg/config"
)

type retry struct {
	Attempts int `mapstructure:"attempts"`
}

type Embedded struct {
	Level string `mapstructure:"level"`
}

type remote struct {
	Embedded `mapstructure:",squash"`
	Retry    *retry            `mapstructure:"retry"`
	Headers  map[string]string `mapstructure:"headers"`
	Timeout  int
	hidden   int //nolint:unused
}

func TestGetStructKeys(t *testing.T) {
	cases := []struct {
		name     string
		typ      reflect.Type
		expected []string
	}{
		{name: "scalar", typ: reflect.TypeOf(7), expected: []string{""}},
		{name: "flat", typ: reflect.TypeOf(retry{}), expected: []string{"attempts"}},
		{name: "pointer", typ: reflect.TypeOf(&retry{}), expected: []string{"attempts"}},
		{
			name:     "nested with squash",
			typ:      reflect.TypeOf(remote{}),
			expected: []string{"Timeout", "headers", "level", "retry.attempts"},
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			keys := config.GetStructKeys(tt.typ, "mapstructure", "squash")
			sort.Strings(keys)
			if diffs := deep.Equal(keys, tt.expected); diffs != nil {
				t.Error("wrong keys:", diffs)
			}
		})
	}
}
