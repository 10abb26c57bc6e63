// Package version reports build information of avtpstream programs.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Version contains build information.
type Version struct {
	Version string    `json:"version"`
	Commit  string    `json:"commit"`
	Date    time.Time `json:"date"`
	Dirty   bool      `json:"dirty"`
	Go      string    `json:"go"`
}

func (v Version) String() string {
	return v.Version
}

// V contains build information of the running program.
var V = Version{
	Version: "development",
	Commit:  "unknown",
}

func init() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	V = parse(bi)
}

func parse(bi *debug.BuildInfo) (v Version) {
	v = Version{
		Version: "development",
		Commit:  "unknown",
		Go:      bi.GoVersion,
	}
	if mv := bi.Main.Version; mv != "" && mv != "(devel)" {
		v.Version = mv
	}

	bs := map[string]string{}
	for _, kv := range bi.Settings {
		bs[kv.Key] = kv.Value
	}
	dt, e := time.Parse(time.RFC3339, bs["vcs.time"])
	if bs["vcs"] != "git" || len(bs["vcs.revision"]) != 40 || e != nil {
		return v
	}

	v.Commit, v.Date = bs["vcs.revision"], dt
	v.Dirty = bs["vcs.modified"] == "true"
	if v.Version == "development" {
		suffix := ""
		if v.Dirty {
			suffix = "-dirty"
		}
		v.Version = fmt.Sprintf("v0.0.0-%s-%s%s", dt.UTC().Format("20060102150405"), v.Commit[:12], suffix)
	}
	return v
}
