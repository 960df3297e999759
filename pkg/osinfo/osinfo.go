package osinfo

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

const unknown = "unknown"

type OSInfo struct {
	Platform string
	OS       string
	Version  string
}

func (os *OSInfo) String() string {
	return fmt.Sprintf("Platform: %s, OS: %s, Version: %s", os.Platform, os.OS, os.Version)
}

var (
	once   sync.Once
	cached OSInfo
)

// GetOSInfo describes the host.  The probe runs once per process.
func GetOSInfo() OSInfo {
	once.Do(func() {
		cached = OSInfo{OS: runtime.GOOS, Version: unknown, Platform: runtime.GOARCH}
		if info, ok := probe(); ok {
			cached = info
		}
	})
	return cached
}

// field cleans a probe output token for use inside a user agent.
func field(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", ""))
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "/", "-")
	if s == "" {
		return unknown
	}
	return s
}
