package media

import (
	"errors"
	"strings"
)

const mediaMarker = "/media/"

// ErrUnsafeFilename is returned for derived names that are not a single
// path element inside the destination directory
var ErrUnsafeFilename = errors.New("unsafe media filename")

// SafeFilename reports whether name stays inside the directory it is joined to
func SafeFilename(name string) bool {
	switch name {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// DeriveFilename picks the local name for a media URL. URLs carrying the
// "/media/" path segment keep everything after its first occurrence, anything
// else becomes fallback plus the URL's final extension.
func DeriveFilename(mediaURL, fallback string) string {
	if i := strings.Index(mediaURL, mediaMarker); i >= 0 {
		return mediaURL[i+len(mediaMarker):]
	}

	// Video variants carry a "?tag=" query that is not part of the extension.
	path := mediaURL
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	i := strings.LastIndex(path, ".")
	if i < 0 {
		return fallback
	}
	ext := path[i+1:]
	if ext == "" || strings.Contains(ext, "/") {
		return fallback
	}
	return fallback + "." + ext
}
