package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobtracker/internal/apperrors"
	"jobtracker/internal/models"
	"jobtracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type documentFixture struct {
	apps  *ApplicationService
	docs  *DocumentService
	store *storage.LocalStore
	app   *models.JobApplication
}

func newDocumentFixture(t *testing.T) documentFixture {
	t.Helper()
	db := setupTestDB(t)
	store := setupTestStore(t)
	apps := NewApplicationService(db, store, testLogger())
	app, err := apps.Create(context.Background(), CreateApplicationDTO{CompanyName: "Acme", PositionTitle: "Dev"})
	require.NoError(t, err)
	return documentFixture{
		apps:  apps,
		docs:  NewDocumentService(db, store, testLogger()),
		store: store,
		app:   app,
	}
}

func TestUploadDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("Resume", func(t *testing.T) {
		f := newDocumentFixture(t)

		updated, err := f.docs.Upload(ctx, f.app.ID, models.DocumentResume, "My CV.pdf", strings.NewReader("%PDF-1.4"))
		require.NoError(t, err)

		require.NotNil(t, updated.ResumeFilename)
		require.NotNil(t, updated.ResumePath)
		assert.Equal(t, "My_CV.pdf", *updated.ResumeFilename)
		assert.Nil(t, updated.CoverLetterPath)
		assert.False(t, updated.UpdatedAt.Before(f.app.UpdatedAt))

		assert.True(t, strings.HasPrefix(*updated.ResumePath, f.store.Root()))
		content, err := os.ReadFile(*updated.ResumePath)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(content))
	})

	t.Run("Rejected Extension", func(t *testing.T) {
		f := newDocumentFixture(t)

		_, err := f.docs.Upload(ctx, f.app.ID, models.DocumentResume, "payload.exe", strings.NewReader("MZ"))
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, "File type not allowed", apperrors.PublicMessage(err))

		stored, err := f.apps.Get(ctx, f.app.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.ResumePath)

		entries, _ := os.ReadDir(f.store.Root())
		assert.Empty(t, entries)
	})

	t.Run("Empty Filename", func(t *testing.T) {
		f := newDocumentFixture(t)

		_, err := f.docs.Upload(ctx, f.app.ID, models.DocumentCoverLetter, "", strings.NewReader("x"))
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, "No selected file", apperrors.PublicMessage(err))
	})

	t.Run("Unknown Application", func(t *testing.T) {
		f := newDocumentFixture(t)

		_, err := f.docs.Upload(ctx, f.app.ID+1, models.DocumentResume, "cv.pdf", strings.NewReader("x"))
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Equal(t, "Application not found", apperrors.PublicMessage(err))

		entries, _ := os.ReadDir(f.store.Root())
		assert.Empty(t, entries)
	})

	t.Run("Replace Removes Previous File", func(t *testing.T) {
		f := newDocumentFixture(t)

		first, err := f.docs.Upload(ctx, f.app.ID, models.DocumentCoverLetter, "letter-v1.docx", strings.NewReader("v1"))
		require.NoError(t, err)
		oldPath := *first.CoverLetterPath

		second, err := f.docs.Upload(ctx, f.app.ID, models.DocumentCoverLetter, "letter-v2.docx", strings.NewReader("v2"))
		require.NoError(t, err)

		assert.Equal(t, "letter-v2.docx", *second.CoverLetterFilename)
		assert.NotEqual(t, oldPath, *second.CoverLetterPath)
		assert.False(t, f.store.Exists(oldPath))
		assert.True(t, f.store.Exists(*second.CoverLetterPath))
	})

	t.Run("Slots Are Independent", func(t *testing.T) {
		f := newDocumentFixture(t)

		_, err := f.docs.Upload(ctx, f.app.ID, models.DocumentResume, "cv.pdf", strings.NewReader("cv"))
		require.NoError(t, err)
		both, err := f.docs.Upload(ctx, f.app.ID, models.DocumentCoverLetter, "letter.doc", strings.NewReader("letter"))
		require.NoError(t, err)

		assert.Equal(t, "cv.pdf", *both.ResumeFilename)
		assert.Equal(t, "letter.doc", *both.CoverLetterFilename)
	})
}

func TestLocateDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		f := newDocumentFixture(t)
		uploaded, err := f.docs.Upload(ctx, f.app.ID, models.DocumentResume, "cv.pdf", strings.NewReader("cv"))
		require.NoError(t, err)

		path, name, err := f.docs.Locate(ctx, f.app.ID, models.DocumentResume)
		require.NoError(t, err)
		assert.Equal(t, *uploaded.ResumePath, path)
		assert.Equal(t, "cv.pdf", name)
	})

	t.Run("No Document", func(t *testing.T) {
		f := newDocumentFixture(t)

		_, _, err := f.docs.Locate(ctx, f.app.ID, models.DocumentCoverLetter)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Equal(t, "Cover letter not found", apperrors.PublicMessage(err))
	})

	t.Run("Unknown Application", func(t *testing.T) {
		f := newDocumentFixture(t)

		_, _, err := f.docs.Locate(ctx, 404, models.DocumentResume)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Equal(t, "Resume not found", apperrors.PublicMessage(err))
	})

	t.Run("File Missing On Disk", func(t *testing.T) {
		f := newDocumentFixture(t)
		uploaded, err := f.docs.Upload(ctx, f.app.ID, models.DocumentResume, "cv.pdf", strings.NewReader("cv"))
		require.NoError(t, err)
		require.NoError(t, os.Remove(*uploaded.ResumePath))

		_, _, err = f.docs.Locate(ctx, f.app.ID, models.DocumentResume)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Equal(t, "File not found on server", apperrors.PublicMessage(err))
	})
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("Clears Pointer And File", func(t *testing.T) {
		f := newDocumentFixture(t)
		uploaded, err := f.docs.Upload(ctx, f.app.ID, models.DocumentResume, "cv.pdf", strings.NewReader("cv"))
		require.NoError(t, err)
		path := *uploaded.ResumePath

		require.NoError(t, f.docs.Delete(ctx, f.app.ID, models.DocumentResume))

		stored, err := f.apps.Get(ctx, f.app.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.ResumePath)
		assert.Nil(t, stored.ResumeFilename)
		assert.False(t, f.store.Exists(path))

		_, _, err = f.docs.Locate(ctx, f.app.ID, models.DocumentResume)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("File Already Gone", func(t *testing.T) {
		f := newDocumentFixture(t)
		uploaded, err := f.docs.Upload(ctx, f.app.ID, models.DocumentCoverLetter, "letter.pdf", strings.NewReader("l"))
		require.NoError(t, err)
		require.NoError(t, os.Remove(*uploaded.CoverLetterPath))

		require.NoError(t, f.docs.Delete(ctx, f.app.ID, models.DocumentCoverLetter))

		stored, err := f.apps.Get(ctx, f.app.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.CoverLetterFilename)
	})

	t.Run("Nothing Stored", func(t *testing.T) {
		f := newDocumentFixture(t)
		assert.NoError(t, f.docs.Delete(ctx, f.app.ID, models.DocumentResume))
	})

	t.Run("Unknown Application", func(t *testing.T) {
		f := newDocumentFixture(t)
		assert.ErrorIs(t, f.docs.Delete(ctx, 77, models.DocumentResume), apperrors.ErrNotFound)
	})
}

func TestUploadDocument_UnknownKind(t *testing.T) {
	f := newDocumentFixture(t)

	_, err := f.docs.Upload(context.Background(), f.app.ID, models.DocumentKind("portfolio"), "x.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	entries, _ := os.ReadDir(filepath.Clean(f.store.Root()))
	assert.Empty(t, entries)
}

// fixedPathStore writes every upload to one path, the way two uploads of the
// same name within a second collide in LocalStore.
type fixedPathStore struct {
	*flakyStore
	path      string
	afterSave func()
}

func (s *fixedPathStore) Save(r io.Reader, originalFilename string, _ uint, _ models.DocumentKind) (string, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return "", "", err
	}
	if s.afterSave != nil {
		s.afterSave()
	}
	return s.path, originalFilename, nil
}

func TestUploadDocument_SamePathFailureKeepsCommittedFile(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	local := setupTestStore(t)
	store := &fixedPathStore{
		flakyStore: &flakyStore{DocumentStore: local},
		path:       filepath.Join(local.Root(), "1_resume_cv.pdf"),
	}
	apps := NewApplicationService(db, store, testLogger())
	docs := NewDocumentService(db, store, testLogger())

	app, err := apps.Create(ctx, CreateApplicationDTO{CompanyName: "Acme", PositionTitle: "Dev"})
	require.NoError(t, err)
	first, err := docs.Upload(ctx, app.ID, models.DocumentResume, "cv.pdf", strings.NewReader("v1"))
	require.NoError(t, err)
	require.Equal(t, store.path, *first.ResumePath)

	store.afterSave = func() {
		require.NoError(t, db.Exec(`CREATE TRIGGER reject_update BEFORE UPDATE ON job_applications
			BEGIN SELECT RAISE(ABORT, 'read-only'); END`).Error)
	}
	_, err = docs.Upload(ctx, app.ID, models.DocumentResume, "cv.pdf", strings.NewReader("v2"))
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	assert.Zero(t, store.removeCalls)
	assert.True(t, local.Exists(store.path))

	stored, err := apps.Get(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResumePath)
	assert.Equal(t, store.path, *stored.ResumePath)
}
