package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Strings is a []string that mapstructure can deserialize from a single comma separated
// string or from a list of strings.
type Strings []string

var (
	ourStringsType  = reflect.TypeOf(Strings{})
	stringType      = reflect.TypeOf("")
	stringSliceType = reflect.TypeOf([]string{})
)

// DecodeStrings is a mapstructure.HookFuncValue that decodes a single string value or a slice
// of strings into Strings.
func DecodeStrings(fromValue reflect.Value, toValue reflect.Value) (interface{}, error) {
	if toValue.Type() != ourStringsType {
		return fromValue.Interface(), nil
	}
	switch fromValue.Type() {
	case stringSliceType:
		return Strings(fromValue.Interface().([]string)), nil
	case stringType:
		return Strings(strings.Split(fromValue.String(), ",")), nil
	}
	return fromValue.Interface(), nil
}

// SecureString holds a credential such as an access token.  Formatting it never reveals the
// value.
type SecureString string

const secretPlaceholder = "[SECRET]"

// String returns an elided version.  It is safe to call for logging.
func (SecureString) String() string {
	return secretPlaceholder
}

// SecureValue returns the actual value of s as a string.
func (s SecureString) SecureValue() string {
	return string(s)
}

func (s SecureString) MarshalText() ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	return []byte(secretPlaceholder), nil
}

// OnlyString is a string that can deserialize only from a string.  GitLab project ids are
// numeric; reading them from YAML as numbers would lose leading zeros or switch to a float
// representation.
type OnlyString string

var (
	onlyStringType  = reflect.TypeOf(OnlyString(""))
	ErrMustBeString = errors.New("must be a string")
)

func (o OnlyString) String() string {
	return string(o)
}

// DecodeOnlyString is a mapstructure.HookFuncValue that decodes a string value as an
// OnlyString, but fails on all other values.
func DecodeOnlyString(fromValue reflect.Value, toValue reflect.Value) (interface{}, error) {
	if toValue.Type() != onlyStringType {
		return fromValue.Interface(), nil
	}
	if fromValue.Type() != stringType {
		return nil, fmt.Errorf("%w, not a %s", ErrMustBeString, fromValue.Type().String())
	}
	return OnlyString(fromValue.String()), nil
}
