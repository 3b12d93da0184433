package skills

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// writeFileAtomic replaces path with data by writing a temporary file in the
// same directory and renaming it over path, so readers see either the old or
// the new content. Concurrent writers of the same path are serialized by a
// lock file kept outside the skills tree.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}

	unlock, err := lockedfile.MutexAt(lockPathFor(path)).Lock()
	if err != nil {
		return errors.Wrapf(err, "failed to lock %s", path)
	}
	defer unlock()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for %s", path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to sync %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmpPath)
	}
	// CreateTemp always uses 0600
	if err := os.Chmod(tmpPath, perm); err != nil {
		return errors.Wrapf(err, "failed to set permissions on %s", tmpPath)
	}
	return errors.Wrapf(os.Rename(tmpPath, path), "failed to replace %s", path)
}

func lockPathFor(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), "skillkit-"+hex.EncodeToString(sum[:8])+".lock")
}
