// Package web holds the dashboard served by the monitor.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dist/*
var dist embed.FS

// Assets returns the dashboard files. When dir is not empty, the files are
// read from that directory at every request, so that the dashboard can be
// edited without rebuilding the binary.
func Assets(dir string) http.FileSystem {
	if dir != "" {
		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}
