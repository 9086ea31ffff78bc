package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/multimap/internal/core/domain"
)

// MediaRepo implements ports.MediaRepository with pgx.
type MediaRepo struct {
	db *DB
}

// NewMediaRepo creates a new MediaRepo.
func NewMediaRepo(db *DB) *MediaRepo {
	return &MediaRepo{db: db}
}

// Rendition returns one size of an attachment.
func (r *MediaRepo) Rendition(ctx context.Context, attachmentID int64, size string) (*domain.Rendition, error) {
	var rd domain.Rendition
	err := r.db.Pool.QueryRow(ctx, `
		SELECT attachment_id, size, COALESCE(url, ''), COALESCE(object_key, ''), width, height
		FROM media_renditions
		WHERE attachment_id = $1 AND size = $2
	`, attachmentID, size).Scan(
		&rd.AttachmentID, &rd.Size, &rd.URL, &rd.ObjectKey, &rd.Width, &rd.Height,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("rendition %d/%s: %w", attachmentID, size, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("rendition %d/%s: %w", attachmentID, size, err)
	}
	return &rd, nil
}

// UpsertRendition inserts or replaces one size of an attachment.
func (r *MediaRepo) UpsertRendition(ctx context.Context, rd *domain.Rendition) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO media_renditions (attachment_id, size, url, object_key, width, height)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		ON CONFLICT (attachment_id, size) DO UPDATE
		SET url = EXCLUDED.url, object_key = EXCLUDED.object_key,
		    width = EXCLUDED.width, height = EXCLUDED.height
	`, rd.AttachmentID, rd.Size, rd.URL, rd.ObjectKey, rd.Width, rd.Height)
	return err
}
