/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo provides information about the library build: its version and User-Agent.
package libinfo

import (
	"debug/buildinfo"
	"maps"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	libShortName = "go-dexscreener"
	moduleName   = "github.com/dexkit/" + libShortName

	develVersion    = "(devel)"
	fallbackVersion = "v0.0.0"
)

// PrometheusLibVersionLabel is a const label name for the library version.
const PrometheusLibVersionLabel = "go_dexscreener_version"

// AddPrometheusLibVersionLabel returns a copy of labels with the library version label added.
func AddPrometheusLibVersionLabel(labels prometheus.Labels) prometheus.Labels {
	res := make(prometheus.Labels, len(labels)+1)
	maps.Copy(res, labels)
	res[PrometheusLibVersionLabel] = GetLibVersion()
	return res
}

var libVersion = sync.OnceValue(func() string {
	buildInfo, _ := debug.ReadBuildInfo()
	if v := extractLibVersion(buildInfo, moduleName); v != "" {
		return v
	}
	return fallbackVersion
})

// GetLibVersion returns the version of the library module linked into the binary.
func GetLibVersion() string {
	return libVersion()
}

// UserAgent returns the User-Agent header value sent by the API client.
func UserAgent() string {
	return libShortName + "/" + GetLibVersion()
}

// extractLibVersion finds the version of modPath (or its "/vN" major version path) in the build info.
// The CLI of this repository is the main module, any other program links the library as a dependency.
func extractLibVersion(buildInfo *buildinfo.BuildInfo, modPath string) string {
	if buildInfo == nil {
		return ""
	}
	if isModule(buildInfo.Main.Path, modPath) && buildInfo.Main.Version != develVersion {
		return buildInfo.Main.Version
	}
	for _, dep := range buildInfo.Deps {
		if isModule(dep.Path, modPath) {
			return dep.Version
		}
	}
	return ""
}

func isModule(path, modPath string) bool {
	if path == modPath {
		return true
	}
	major, ok := strings.CutPrefix(path, modPath+"/v")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(major)
	return err == nil && n >= 2
}
