package main

import "strings"

// rootCrumbLabel is the display label for the filesystem root segment.
const rootCrumbLabel = "Root"

// Breadcrumb is one segment of the explorer's path bar. The last crumb
// is the directory already on screen, so it is not navigable.
type Breadcrumb struct {
	Label       string `json:"label"`
	Path        string `json:"path"`
	IsNavigable bool   `json:"isNavigable"`
}

// cleanRemotePath normalizes a remote POSIX path: collapses repeated
// slashes and strips any trailing slash except on the root itself.
// Paths that do not start with "/" are treated as unresolved and map
// to the root.
func cleanRemotePath(remotePath string) string {
	if !strings.HasPrefix(remotePath, "/") {
		return "/"
	}

	segments := strings.Split(remotePath, "/")
	cleaned := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		cleaned = append(cleaned, segment)
	}

	if len(cleaned) == 0 {
		return "/"
	}
	return "/" + strings.Join(cleaned, "/")
}

// parentPath returns the parent directory of a remote path. The root is
// its own parent, so repeated ascent terminates at "/".
func parentPath(remotePath string) string {
	cleaned := cleanRemotePath(remotePath)
	if cleaned == "/" {
		return "/"
	}

	idx := strings.LastIndex(cleaned, "/")
	if idx <= 0 {
		return "/"
	}
	return cleaned[:idx]
}

// breadcrumbsFor splits a remote path into segments, root first. Every
// crumb carries the full path up to and including its own segment, so
// clicking a navigable crumb is a plain navigation to that path. Only
// the final crumb (the current directory) is non-navigable.
func breadcrumbsFor(remotePath string) []Breadcrumb {
	cleaned := cleanRemotePath(remotePath)

	crumbs := []Breadcrumb{{Label: rootCrumbLabel, Path: "/"}}
	if cleaned != "/" {
		accumulated := ""
		for _, segment := range strings.Split(cleaned[1:], "/") {
			accumulated += "/" + segment
			crumbs = append(crumbs, Breadcrumb{Label: segment, Path: accumulated})
		}
	}

	for i := range crumbs[:len(crumbs)-1] {
		crumbs[i].IsNavigable = true
	}
	return crumbs
}
