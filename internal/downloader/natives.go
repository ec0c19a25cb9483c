package downloader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/minekit/minekit/internal/logging"
)

// CleanNatives removes archive-extraction artifacts from the natives
// directory: regular files whose extension is not the platform's native
// library extension, and every subdirectory. Anything left here ends up on
// -Djava.library.path. Runs only after a fully successful batch.
func CleanNatives(dir, nativeExt string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading natives directory: %w", err)
	}

	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			logging.Debugf("Verbose: removing natives subdirectory %s\n", p)
			if err := os.RemoveAll(p); err != nil {
				return fmt.Errorf("removing %s: %w", p, err)
			}
			continue
		}
		if filepath.Ext(e.Name()) != nativeExt {
			logging.Debugf("Verbose: removing stray natives file %s\n", p)
			if err := os.Remove(p); err != nil {
				return fmt.Errorf("removing %s: %w", p, err)
			}
		}
	}
	return nil
}
