package media

import (
	"regexp"
	"strings"
)

const (
	fileScheme = "file://"
)

var (
	driveLetterPath = regexp.MustCompile(`^[A-Za-z]:/`)
)

// ToFileURL converts a filesystem path into a file url.
// Backslashes are replaced with slashes first; drive letter paths get a triple slash prefix.
func ToFileURL(path string) string {
	if path == "" {
		return path
	}

	normalized := strings.ReplaceAll(path, `\`, "/")
	if driveLetterPath.MatchString(normalized) {
		return fileScheme + "/" + normalized
	}

	return fileScheme + normalized
}

// Label strips directories and the final extension from the path.
func Label(path string) string {
	name := path[strings.LastIndexAny(path, `/\`)+1:]

	return stripExtension(name)
}

func stripExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx == -1 || idx == len(name)-1 {
		return name
	}

	return name[:idx]
}

// lastSegment returns everything after the last slash, without extension stripping.
func lastSegment(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}
