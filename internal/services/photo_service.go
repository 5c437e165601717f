package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/database"
	"github.com/isdelr/datingapp-be/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	ErrPhotoNotFound     = errors.New("photo not found")
	ErrAlreadyMainPhoto  = errors.New("this is already the main photo")
	ErrCannotDeleteMain  = errors.New("you cannot delete your main photo")
	ErrStorageNotEnabled = fmt.Errorf("%w: photo storage is not configured", auth.ErrUpstreamUnavailable)
)

// PhotoStorage is the external image host. Implementations must be safe for concurrent use.
type PhotoStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (url, publicID string, err error)
	Delete(ctx context.Context, publicID string) error
}

// PhotoServiceProvider defines the interface for photo services.
type PhotoServiceProvider interface {
	GetPhoto(ctx context.Context, userID, photoID string) (models.Photo, error)
	ListPhotos(ctx context.Context, userID string) ([]models.Photo, error)
	MainPhotoURL(ctx context.Context, userID string) (string, error)
	AddPhoto(ctx context.Context, userID, filename string, body io.Reader, size int64, contentType string) (models.Photo, error)
	SetMain(ctx context.Context, userID, photoID string) error
	DeletePhoto(ctx context.Context, userID, photoID string) error
}

// PhotoService manages member photos. storage may be nil, in which case
// uploads fail with auth.ErrUpstreamUnavailable.
type PhotoService struct {
	db      *database.DB
	storage PhotoStorage
	events  EventServiceProvider
	now     func() time.Time
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(db *database.DB, storage PhotoStorage, events EventServiceProvider) *PhotoService {
	return &PhotoService{db: db, storage: storage, events: events, now: time.Now}
}

const selectPhoto = "SELECT id, user_id, url, public_id, is_main, created_at FROM photos"

func scanPhoto(scan func(dest ...any) error) (models.Photo, error) {
	var p models.Photo
	err := scan(&p.ID, &p.UserID, &p.URL, &p.PublicID, &p.IsMain, &p.CreatedAt)
	return p, err
}

// GetPhoto returns photoID if it belongs to userID.
func (s *PhotoService) GetPhoto(ctx context.Context, userID, photoID string) (models.Photo, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(selectPhoto+" WHERE id = ? AND user_id = ?"), photoID, userID)
	p, err := scanPhoto(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Photo{}, ErrPhotoNotFound
	}
	if err != nil {
		return models.Photo{}, unavailable(err)
	}
	return p, nil
}

// ListPhotos returns every photo of userID, main photo first.
func (s *PhotoService) ListPhotos(ctx context.Context, userID string) ([]models.Photo, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(selectPhoto+" WHERE user_id = ? ORDER BY is_main DESC, created_at ASC"), userID)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	photos := []models.Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows.Scan)
		if err != nil {
			return nil, unavailable(err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// MainPhotoURL returns "" when the user has no main photo.
func (s *PhotoService) MainPhotoURL(ctx context.Context, userID string) (string, error) {
	var url string
	err := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT url FROM photos WHERE user_id = ? AND is_main = ?"), userID, true).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", unavailable(err)
	}
	return url, nil
}

// AddPhoto uploads body and records it. The first photo of a user becomes main.
func (s *PhotoService) AddPhoto(ctx context.Context, userID, filename string, body io.Reader, size int64, contentType string) (models.Photo, error) {
	if s.storage == nil {
		return models.Photo{}, ErrStorageNotEnabled
	}

	id := uuid.New().String()
	url, publicID, err := s.storage.Upload(ctx, fmt.Sprintf("users/%s/%s", userID, id), body, size, contentType)
	if err != nil {
		return models.Photo{}, fmt.Errorf("%w: upload %s: %v", auth.ErrUpstreamUnavailable, filename, err)
	}

	mainURL, err := s.MainPhotoURL(ctx, userID)
	if err != nil {
		s.discardUpload(ctx, publicID)
		return models.Photo{}, err
	}

	photo := models.Photo{
		ID:        id,
		UserID:    userID,
		URL:       url,
		PublicID:  publicID,
		IsMain:    mainURL == "",
		CreatedAt: s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind("INSERT INTO photos (id, user_id, url, public_id, is_main, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		photo.ID, photo.UserID, photo.URL, photo.PublicID, photo.IsMain, photo.CreatedAt)
	if err != nil {
		s.discardUpload(ctx, publicID)
		return models.Photo{}, unavailable(err)
	}
	return photo, nil
}

// discardUpload removes an object whose row could not be written.
func (s *PhotoService) discardUpload(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.storage.Delete(ctx, publicID); err != nil {
		log.Error().Err(err).Str("public_id", publicID).Msg("Failed to remove orphaned photo upload")
	}
}

// SetMain makes photoID the only main photo of userID.
func (s *PhotoService) SetMain(ctx context.Context, userID, photoID string) error {
	photo, err := s.GetPhoto(ctx, userID, photoID)
	if err != nil {
		return err
	}
	if photo.IsMain {
		return ErrAlreadyMainPhoto
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, s.db.Rebind("UPDATE photos SET is_main = ? WHERE user_id = ? AND is_main = ?"), false, userID, true); err != nil {
		return unavailable(err)
	}
	if _, err := tx.ExecContext(ctx, s.db.Rebind("UPDATE photos SET is_main = ? WHERE id = ?"), true, photoID); err != nil {
		return unavailable(err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable(err)
	}
	return nil
}

// DeletePhoto removes a non-main photo. Photos with a public id are removed
// from storage first; photos without one only exist locally.
func (s *PhotoService) DeletePhoto(ctx context.Context, userID, photoID string) error {
	photo, err := s.GetPhoto(ctx, userID, photoID)
	if err != nil {
		return err
	}
	if photo.IsMain {
		return ErrCannotDeleteMain
	}

	if photo.PublicID != "" {
		if s.storage == nil {
			return ErrStorageNotEnabled
		}
		if err := s.storage.Delete(ctx, photo.PublicID); err != nil {
			return fmt.Errorf("%w: delete %s: %v", auth.ErrUpstreamUnavailable, photo.PublicID, err)
		}
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM photos WHERE id = ?"), photoID); err != nil {
		return unavailable(err)
	}
	if s.events != nil {
		if err := s.events.CreateEvent(ctx, "photo.delete", "info", fmt.Sprintf("Photo %s deleted.", photoID), &userID); err != nil {
			log.Error().Err(err).Str("photo_id", photoID).Msg("Failed to record event")
		}
	}
	return nil
}
