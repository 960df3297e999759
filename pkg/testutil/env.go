package testutil

import (
	"os"
	"testing"
)

// WithEnvironmentVariable sets an environment variable for the duration of the test,
// restoring it to a previous value, if any, at teardown.
//
// Environment variables affect other goroutines that might be running at the same time, so
// this function is not thread safe.
func WithEnvironmentVariable(t *testing.T, k, v string) {
	t.Helper()
	originalV, hasAny := os.LookupEnv(k)
	if err := os.Setenv(k, v); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if hasAny {
			_ = os.Setenv(k, originalV)
		} else {
			_ = os.Unsetenv(k)
		}
	})
}
