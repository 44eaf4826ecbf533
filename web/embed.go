package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFS embed.FS

// GetFileSystem returns the embedded file system for the browser UI.
func GetFileSystem() (http.FileSystem, error) {
	subFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	return http.FS(subFS), nil
}
