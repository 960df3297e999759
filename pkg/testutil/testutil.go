package testutil

import (
	"testing"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const uniqueNameAlphabet = "abcdef1234567890"

func Must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("error returned for operation: %v", err)
	}
}

func MustDo(t testing.TB, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s, expected no error, got err=%s", what, err)
	}
}

// UniqueName returns a short random name usable as a table, root or branch name.
func UniqueName() string {
	return nanoid.MustGenerate(uniqueNameAlphabet, 8)
}
