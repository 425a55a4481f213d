// Package storage keeps uploaded application documents on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"jobtracker/internal/apperrors"
	"jobtracker/internal/config"
	"jobtracker/internal/models"
	"jobtracker/pkg/utils"
)

const timestampLayout = "20060102150405"

type LocalStore struct {
	root string
	now  func() time.Time
}

func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload folder: %w", err)
	}
	return &LocalStore{root: abs, now: time.Now}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

// Validate checks an original upload filename without touching the disk.
func Validate(originalFilename string) error {
	if originalFilename == "" {
		return apperrors.Validation("No selected file")
	}
	if _, ok := config.AllowedExtensions[utils.Extension(originalFilename)]; !ok {
		return apperrors.Validation("File type not allowed")
	}
	if utils.SecureFilename(originalFilename) == "" {
		return apperrors.Validation("Invalid file name")
	}
	return nil
}

// Save writes r under a collision-resistant name and returns the on-disk path
// and the sanitized name to show users. Nothing is left on disk on failure.
func (s *LocalStore) Save(r io.Reader, originalFilename string, applicationID uint, kind models.DocumentKind) (storagePath, displayFilename string, err error) {
	if err := Validate(originalFilename); err != nil {
		return "", "", err
	}
	displayFilename = utils.SecureFilename(originalFilename)

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", "", apperrors.Storage(err)
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", "", apperrors.Storage(err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", "", apperrors.Storage(err)
	}
	if err = tmp.Close(); err != nil {
		return "", "", apperrors.Storage(err)
	}

	name := fmt.Sprintf("%d_%s_%s_%s", applicationID, s.now().Format(timestampLayout), kind, displayFilename)
	storagePath = filepath.Join(s.root, name)
	if err = os.Rename(tmpName, storagePath); err != nil {
		return "", "", apperrors.Storage(err)
	}

	return storagePath, displayFilename, nil
}

// Exists reports whether a regular file is present at path.
func (s *LocalStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the file at path. A file that is already gone is not an error.
func (s *LocalStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
