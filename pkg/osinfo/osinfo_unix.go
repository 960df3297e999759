//go:build !windows

package osinfo

import (
	"os/exec"
	"strings"
)

const unameFields = 3

func probe() (OSInfo, bool) {
	out, err := exec.Command("uname", "-srm").Output()
	if err != nil {
		return OSInfo{}, false
	}
	parts := strings.Fields(string(out))
	if len(parts) != unameFields {
		return OSInfo{}, false
	}
	return OSInfo{
		OS:       strings.ToLower(field(parts[0])),
		Version:  field(parts[1]),
		Platform: field(parts[2]),
	}, true
}
