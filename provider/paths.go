package provider

import (
	"path"
	"strings"
)

// Package file extensions, in lookup order.
var packageExtensions = []string{".uasset", ".umap"}

// trimPackageExt strips a package file extension, keeping other dots.
func trimPackageExt(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".uasset", ".umap", ".uexp", ".ubulk", ".uptnl":
		return p[:len(p)-len(path.Ext(p))]
	}
	return p
}

// packageName maps a mounted path to the engine's package name:
//
//	Bates/Content/Audio/Event        -> /Game/Audio/Event
//	Engine/Content/Audio/Event       -> /Engine/Audio/Event
//	Bates/Plugins/Wwise/Content/Foo  -> /Wwise/Foo
//
// Paths outside a Content directory have no package name.
func packageName(mounted string) (string, bool) {
	parts := strings.Split(trimPackageExt(mounted), "/")
	for i, part := range parts {
		if !strings.EqualFold(part, "Content") || i == 0 || i == len(parts)-1 {
			continue
		}
		rest := strings.Join(parts[i+1:], "/")
		switch {
		case i == 1 && strings.EqualFold(parts[0], "Engine"):
			return "/Engine/" + rest, true
		case i == 1:
			return "/Game/" + rest, true
		}
		for _, p := range parts[:i-1] {
			if strings.EqualFold(p, "Plugins") {
				return "/" + parts[i-1] + "/" + rest, true
			}
		}
		return "", false
	}
	return "", false
}

// cleanPath normalizes a path given by a user or a package reference.
func cleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") {
		return "/" + strings.TrimLeft(p, "/")
	}
	return p
}
