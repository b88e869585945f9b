package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Publisher durably stores a rule document.
// Publish reports false when the stored content was already identical.
type Publisher interface {
	Publish(ctx context.Context, content []byte) (bool, error)
	Location() string
}

// Digest returns the hex sha256 of content
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// FilePublisher writes the document to a local file
type FilePublisher struct {
	Path string
}

// Location returns the output path
func (f *FilePublisher) Location() string {
	return f.Path
}

// Publish replaces the file atomically when its content differs
func (f *FilePublisher) Publish(_ context.Context, content []byte) (bool, error) {
	if current, err := os.ReadFile(f.Path); err == nil && bytes.Equal(current, content) {
		return false, nil
	}
	if err := writeFileAtomic(f.Path, content); err != nil {
		return false, errors.Wrapf(err, "can't write %s", f.Path)
	}
	return true, nil
}

func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
