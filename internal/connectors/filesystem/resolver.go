package filesystem

import (
	"path/filepath"
	"strings"
)

// DisplayPath returns uri relative to root for showing sources to the user.
// Paths outside root are returned unchanged.
func DisplayPath(root, uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	if root == "" {
		return uri
	}
	rel, err := filepath.Rel(root, uri)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return uri
	}
	return filepath.ToSlash(rel)
}
