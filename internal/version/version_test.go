package version

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2024-03-01T09:30:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	info := Info{Version: "dev"}
	fromBuildInfo(&info, bi)

	assert.Equal(t, "v0.4.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.Commit)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), info.BuildDate)
	assert.True(t, info.Modified)
	assert.Equal(t, "v0.4.0 (0123456-dirty)", info.Short())
}

func TestFromBuildInfoKeepsLinkerValues(t *testing.T) {
	bi := &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffff"}},
	}

	info := Info{Version: "v1.0.0", Commit: "abc"}
	fromBuildInfo(&info, bi)

	assert.Equal(t, "v1.0.0", info.Version)
	assert.Equal(t, "abc", info.Commit)
	assert.Equal(t, "v1.0.0 (abc)", info.Short())
}

func TestString(t *testing.T) {
	info := Info{Version: "dev", GoVersion: "go1.24.4", Platform: "linux/amd64"}
	assert.Equal(t, "Version: dev\nGo: go1.24.4\nPlatform: linux/amd64", info.String())
	assert.Equal(t, "dev", info.Short())
}
