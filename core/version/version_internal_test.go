package version

import (
	"runtime/debug"
	"testing"

	"github.com/usnistgov/avtpstream/core/testenv"
)

func TestParse(t *testing.T) {
	assert, _ := testenv.MakeAR(t)

	v := parse(&debug.BuildInfo{GoVersion: "go1.23.0"})
	assert.Equal("development", v.Version)
	assert.Equal("go1.23.0", v.Go)

	v = parse(&debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs", Value: "git"},
			{Key: "vcs.revision", Value: "0123456789abcdef0123456789abcdef01234567"},
			{Key: "vcs.time", Value: "2024-05-06T07:08:09Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})
	assert.Equal("v0.0.0-20240506070809-0123456789ab-dirty", v.Version)
	assert.True(v.Dirty)

	v = parse(&debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}})
	assert.Equal("v1.2.3", v.String())
}
