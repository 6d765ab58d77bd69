// Package version exposes the build identity injected through ldflags:
//
//	-X github.com/carverauto/warehouse/pkg/version.version=v1.2.0
//	-X github.com/carverauto/warehouse/pkg/version.buildID=abc123
package version

//nolint:gochecknoglobals // set by ldflags
var (
	version = "dev"
	buildID = "dev"
)

// Info is the JSON shape reported by the query service health endpoint.
type Info struct {
	Version string `json:"version"`
	BuildID string `json:"build_id"`
}

func GetVersion() string {
	return version
}

func GetBuildID() string {
	return buildID
}

// GetInfo returns version and build id together.
func GetInfo() Info {
	return Info{Version: version, BuildID: buildID}
}

// GetFullVersion returns version with build ID
func GetFullVersion() string {
	return version + " (build: " + buildID + ")"
}
