package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"jobtracker/internal/apperrors"
	"jobtracker/internal/models"
	"jobtracker/internal/storage"

	"gorm.io/gorm"
)

// DocumentStore is where uploaded bytes live.
type DocumentStore interface {
	Save(r io.Reader, originalFilename string, applicationID uint, kind models.DocumentKind) (storagePath, displayFilename string, err error)
	Exists(path string) bool
	Remove(path string) error
}

type DocumentService struct {
	db     *gorm.DB
	store  DocumentStore
	logger *slog.Logger
	now    func() time.Time
}

func NewDocumentService(db *gorm.DB, store DocumentStore, logger *slog.Logger) *DocumentService {
	return &DocumentService{
		db:     db,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Upload stores a document for the application and points the kind's slot at
// it. A previous file in the slot is removed once the new pointer is committed.
// An unknown application is detected inside the pointer transaction and the
// saved file is removed again.
func (s *DocumentService) Upload(ctx context.Context, id uint, kind models.DocumentKind, originalFilename string, r io.Reader) (*models.JobApplication, error) {
	if !kind.Valid() {
		return nil, apperrors.NotFound("Unknown document type")
	}

	if err := storage.Validate(originalFilename); err != nil {
		return nil, err
	}

	newPath, displayName, err := s.store.Save(r, originalFilename, id, kind)
	if err != nil {
		return nil, err
	}

	var previous *string
	var updated *models.JobApplication
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findApplication(tx, id)
		if err != nil {
			return err
		}
		previous, _, _ = current.Document(kind)

		pathCol, nameCol := kind.Columns()
		res := tx.Model(&models.JobApplication{}).Where("id = ?", id).Updates(map[string]interface{}{
			pathCol:      newPath,
			nameCol:      displayName,
			"updated_at": stampNow(s.now),
		})
		if res.Error != nil {
			return res.Error
		}

		updated, err = findApplication(tx, id)
		return err
	})
	if err != nil {
		// Within one second the same name maps to the same path, and the save
		// has already replaced the committed file in place.
		if previous == nil || *previous != newPath {
			removeBestEffort(s.store, s.logger, newPath, id, kind)
		}
		return nil, wrapDBError(err)
	}

	if previous != nil && *previous != newPath {
		removeBestEffort(s.store, s.logger, *previous, id, kind)
	}
	return updated, nil
}

// Locate returns the on-disk path and download name of a stored document.
func (s *DocumentService) Locate(ctx context.Context, id uint, kind models.DocumentKind) (path, filename string, err error) {
	if !kind.Valid() {
		return "", "", apperrors.NotFound("Unknown document type")
	}

	app, err := findApplication(s.db.WithContext(ctx), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", "", apperrors.NotFound(kind.Label() + " not found")
		}
		return "", "", err
	}

	p, name, _ := app.Document(kind)
	if p == nil || name == nil {
		return "", "", apperrors.NotFound(kind.Label() + " not found")
	}
	if !s.store.Exists(*p) {
		return "", "", apperrors.NotFound("File not found on server")
	}
	return *p, *name, nil
}

// Delete removes the stored file best-effort and always clears the pointer.
func (s *DocumentService) Delete(ctx context.Context, id uint, kind models.DocumentKind) error {
	if !kind.Valid() {
		return apperrors.NotFound("Unknown document type")
	}

	var previous *string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := findApplication(tx, id)
		if err != nil {
			return err
		}
		previous, _, _ = app.Document(kind)

		pathCol, nameCol := kind.Columns()
		return tx.Model(&models.JobApplication{}).Where("id = ?", id).Updates(map[string]interface{}{
			pathCol:      nil,
			nameCol:      nil,
			"updated_at": stampNow(s.now),
		}).Error
	})
	if err != nil {
		return wrapDBError(err)
	}

	if previous != nil {
		removeBestEffort(s.store, s.logger, *previous, id, kind)
	}
	return nil
}

func removeBestEffort(store DocumentStore, logger *slog.Logger, path string, id uint, kind models.DocumentKind) {
	if err := store.Remove(path); err != nil {
		logger.Warn("Failed to remove stored document", "application_id", id, "kind", kind, "path", path, "error", err)
	}
}
