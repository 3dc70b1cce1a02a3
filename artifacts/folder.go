package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ClearFolder empties folder, creating it when missing. Entries that cannot be
// removed are logged and left in place.
func ClearFolder(fs afero.Fs, folder string, logger *logrus.Logger) error {
	entries, err := afero.ReadDir(fs, folder)
	if err != nil {
		if os.IsNotExist(err) {
			return fs.MkdirAll(folder, 0755)
		}
		return fmt.Errorf("error reading folder %s: %w", folder, err)
	}

	for _, entry := range entries {
		entryPath := filepath.Join(folder, entry.Name())
		if err := fs.RemoveAll(entryPath); err != nil {
			logger.Warnf("Failed to delete %s: %v", entryPath, err)
			continue
		}
		logger.Debugf("Deleted %s", entryPath)
	}
	return nil
}
