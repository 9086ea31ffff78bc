package ports

import (
	"context"

	"github.com/samirrijal/multimap/internal/core/domain"
)

// MediaRepository reads attachment renditions from the media library.
type MediaRepository interface {
	// Rendition returns the named size of an attachment, or domain.ErrNotFound.
	Rendition(ctx context.Context, attachmentID int64, size string) (*domain.Rendition, error)
}
