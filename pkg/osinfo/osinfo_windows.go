//go:build windows

package osinfo

import (
	"os/exec"
	"runtime"
	"strings"
)

func probe() (OSInfo, bool) {
	out, err := exec.Command("cmd", "/c", "ver").Output()
	if err != nil {
		return OSInfo{}, false
	}
	s := string(out)
	verOpen := strings.Index(s, "[Version ")
	verClose := strings.Index(s, "]")
	if verOpen == -1 || verClose < verOpen {
		return OSInfo{}, false
	}
	return OSInfo{
		OS:       "windows",
		Version:  field(s[verOpen+len("[Version ") : verClose]),
		Platform: runtime.GOARCH,
	}, true
}
