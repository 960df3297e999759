package version

import (
	"fmt"

	"github.com/treeverse/gitvfs/pkg/osinfo"
)

const ProjectName = "gitvfs"

// Version is the current git version of the code.  It is filled in by the release build
// through -ldflags.
var Version = "dev"

// UserAgent identifies this build and the host OS to provider APIs.
func UserAgent() string {
	info := osinfo.GetOSInfo()
	return fmt.Sprintf("%s/%s/%s/%s/%s", ProjectName, Version, info.OS, info.Version, info.Platform)
}
