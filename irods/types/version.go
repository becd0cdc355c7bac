package types

import (
	"fmt"
	"strconv"
	"strings"
)

// IRODSVersion contains the server version info returned at connect time
type IRODSVersion struct {
	ReleaseVersion string // e.g. "rods4.2.8"
	APIVersion     string
	ReconnectPort  int
	ReconnectAddr  string
	Cookie         int
}

// GetReleaseVersion returns the (major, minor, patch) tuple of the release version
func (version *IRODSVersion) GetReleaseVersion() (int, int, int) {
	major := 0
	minor := 0
	patch := 0

	rel := strings.TrimPrefix(version.ReleaseVersion, "rods")
	parts := strings.Split(rel, ".")
	if len(parts) >= 1 {
		major, _ = strconv.Atoi(parts[0])
	}
	if len(parts) >= 2 {
		minor, _ = strconv.Atoi(parts[1])
	}
	if len(parts) >= 3 {
		patch, _ = strconv.Atoi(parts[2])
	}

	return major, minor, patch
}

// HasHigherVersionThan returns true if the server release version is higher
// than or equal to the given version
func (version *IRODSVersion) HasHigherVersionThan(major int, minor int, patch int) bool {
	smajor, sminor, spatch := version.GetReleaseVersion()
	if smajor != major {
		return smajor > major
	}
	if sminor != minor {
		return sminor > minor
	}

	return spatch >= patch
}

func (version *IRODSVersion) String() string {
	return fmt.Sprintf("%s (api %s)", version.ReleaseVersion, version.APIVersion)
}
