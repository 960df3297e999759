package config

import (
	"reflect"
	"strings"
)

const keySeparator = "."

// GetStructKeys returns the dotted keys of all leaves of a nested struct type, naming each
// component by its tag or its field name.  Embedded structs tagged with the squash option
// contribute no component of their own.  Pointers are followed; maps and slices are leaves.
func GetStructKeys(typ reflect.Type, tag, squashValue string) []string {
	return appendStructKeys(typ, tag, ","+squashValue, nil, nil)
}

func appendStructKeys(typ reflect.Type, tag, squashSuffix string, prefix []string, keys []string) []string {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return append(keys, strings.Join(prefix, keySeparator))
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, ok := field.Tag.Lookup(tag)
		squash := false
		switch {
		case !ok:
			name = field.Name
		case strings.HasSuffix(name, squashSuffix):
			squash = true
			name = strings.TrimSuffix(name, squashSuffix)
		}
		key := append(append([]string(nil), prefix...), name)
		if squash {
			key = key[:len(key)-1]
		}
		keys = appendStructKeys(field.Type, tag, squashSuffix, key, keys)
	}
	return keys
}
