package filepathparser

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFileNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

func ParsePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		dirname, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dirname, path[2:])
	}

	return filepath.Abs(path)
}

// SafeFileName turns an arbitrary value (an issue status, for instance) into a
// string usable as part of a file name.
func SafeFileName(value string) string {
	safe := strings.TrimSpace(unsafeFileNameChars.ReplaceAllString(value, "_"))
	if safe == "" {
		return "Unknown"
	}
	return safe
}
