package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSetOutputs(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		currentOut := defaultLogger.Out
		err := SetOutputs(nil, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if defaultLogger.Out != currentOut {
			t.Error("Logger output should not change by default")
		}
	})

	t.Run("stdout", func(t *testing.T) {
		err := SetOutputs([]string{"-"}, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if defaultLogger.Out != os.Stdout {
			t.Error("Logger output should be stdout")
		}
	})

	t.Run("stderr", func(t *testing.T) {
		err := SetOutputs([]string{"="}, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if defaultLogger.Out != os.Stderr {
			t.Error("Logger output should be stderr")
		}
	})

	t.Run("write_two_files", func(t *testing.T) {
		logDir := t.TempDir()
		log1 := filepath.Join(logDir, "file1.log")
		log2 := filepath.Join(logDir, "file2.log")
		err := SetOutputs([]string{log1, log2}, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		const content = "pulled main"
		_, err = io.WriteString(defaultLogger.Out, content)
		if err != nil {
			t.Fatal("Failed to write to log output with two outputs", err)
		}
		if err := CloseWriters(); err != nil {
			t.Fatal("Failed to close writers", err)
		}
		for _, name := range []string{log1, log2} {
			data, err := os.ReadFile(name)
			if err != nil {
				t.Fatalf("Failed to read %s: %s", name, err)
			}
			if string(data) != content {
				t.Fatalf("Log %s content '%s', is not as expected: '%s'", name, string(data), content)
			}
		}
	})
}

func TestLogCallerTrimmer(t *testing.T) {
	tests := []struct {
		name             string
		file             string
		function         string
		expectedFile     string
		expectedFunction string
	}{
		{
			name:             "project directory",
			file:             "/home/user/work/gitvfs/pkg/vfs/pull.go",
			function:         "github.com/treeverse/gitvfs/pkg/vfs.(*FS).Pull",
			expectedFile:     "pkg/vfs/pull.go",
			expectedFunction: "pkg/vfs.(*FS).Pull",
		},
		{
			name:             "suffixed project directory",
			file:             "/home/user/work/gitvfs-fork/pkg/storage/kvstore/store.go",
			function:         "github.com/someone/gitvfs-fork/pkg/storage/kvstore.(*Store).WriteBlob",
			expectedFile:     "pkg/storage/kvstore/store.go",
			expectedFunction: "pkg/storage/kvstore.(*Store).WriteBlob",
		},
		{
			name:             "uppercase in path",
			file:             "/home/user/work/GitVFS/pkg/gitadapter/client.go",
			function:         "github.com/treeverse/gitvfs/pkg/gitadapter.(*Client).Do",
			expectedFile:     "pkg/gitadapter/client.go",
			expectedFunction: "pkg/gitadapter.(*Client).Do",
		},
		{
			name:             "other project",
			file:             "/home/user/other/project/main.go",
			function:         "github.com/other/project.Main",
			expectedFile:     "home/user/other/project/main.go",
			expectedFunction: "github.com/other/project.Main",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := &runtime.Frame{
				File:     tt.file,
				Line:     42,
				Function: tt.function,
			}

			gotFunction, gotFile := logCallerTrimmer(frame)

			expectedFileWithLine := fmt.Sprintf("%s:42", tt.expectedFile)
			if gotFile != expectedFileWithLine {
				t.Errorf("file = %q, want %q", gotFile, expectedFileWithLine)
			}
			if gotFunction != tt.expectedFunction {
				t.Errorf("function = %q, want %q", gotFunction, tt.expectedFunction)
			}
		})
	}
}

// requireLoggerFields logs a single JSON line with logger and verifies every field in
// expected appears with the same value.
func requireLoggerFields(t *testing.T, logger Logger, expected Fields) {
	t.Helper()

	logFile := filepath.Join(t.TempDir(), "test.log")
	if err := SetOutputs([]string{logFile}, 0, 0); err != nil {
		t.Fatalf("SetOutputs: %s", err)
	}
	SetOutputFormat("json")

	logger.Info("test message")

	if err := CloseWriters(); err != nil {
		t.Fatalf("CloseWriters: %s", err)
	}

	contents, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile %s: %s", logFile, err)
	}

	var logEntry map[string]any
	if err := json.Unmarshal(contents, &logEntry); err != nil {
		t.Fatalf("Unmarshal log entry: %s\nContents: %s", err, string(contents))
	}

	for key, expectedValue := range expected {
		actualValue, exists := logEntry[key]
		if !exists {
			t.Errorf("Expected field %q not found in log entry. Log: %s", key, string(contents))
			continue
		}
		if fmt.Sprintf("%v", actualValue) != fmt.Sprintf("%v", expectedValue) {
			t.Errorf("Field %q: got %v, want %v", key, actualValue, expectedValue)
		}
	}
}

func TestContextLogging(t *testing.T) {
	cases := []struct {
		name     string
		ctx      func() context.Context
		fields   Fields
		expected Fields
	}{
		{
			name:     "no fields",
			ctx:      context.Background,
			expected: Fields{},
		},
		{
			name: "context fields",
			ctx: func() context.Context {
				return AddFields(context.Background(), Fields{RootFieldKey: "docs", BranchFieldKey: "main"})
			},
			expected: Fields{RootFieldKey: "docs", BranchFieldKey: "main"},
		},
		{
			name: "nested context fields",
			ctx: func() context.Context {
				ctx := AddFields(context.Background(), Fields{RootFieldKey: "docs", BranchFieldKey: "main"})
				return AddFields(ctx, Fields{BranchFieldKey: "dev", PathFieldKey: "a/b.txt"})
			},
			expected: Fields{RootFieldKey: "docs", BranchFieldKey: "dev", PathFieldKey: "a/b.txt"},
		},
		{
			name: "logger fields override context",
			ctx: func() context.Context {
				return AddFields(context.Background(), Fields{ProviderFieldKey: "github"})
			},
			fields:   Fields{ProviderFieldKey: "gitlab", CommitFieldKey: "abc"},
			expected: Fields{ProviderFieldKey: "gitlab", CommitFieldKey: "abc"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger := FromContext(tc.ctx())
			if tc.fields != nil {
				logger = logger.WithFields(tc.fields)
			}
			requireLoggerFields(t, logger, tc.expected)
		})
	}
}

func TestAddFieldsDoesNotModifyParent(t *testing.T) {
	parent := AddFields(context.Background(), Fields{RootFieldKey: "docs"})
	_ = AddFields(parent, Fields{RootFieldKey: "other", PathFieldKey: "x"})

	fields := parent.Value(LogFieldsContextKey).(Fields)
	if len(fields) != 1 || fields[RootFieldKey] != "docs" {
		t.Fatalf("parent fields modified: %v", fields)
	}
}
