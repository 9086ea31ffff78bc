package usecases_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/core/usecases"
	"github.com/samirrijal/multimap/internal/pkg/logging"
)

func TestMediaService_ResolveMedium(t *testing.T) {
	repo := &mockMediaRepo{
		renditionFn: func(ctx context.Context, id int64, size string) (*domain.Rendition, error) {
			if size != domain.RenditionMedium {
				t.Errorf("expected medium rendition, got %s", size)
			}
			return &domain.Rendition{AttachmentID: id, Size: size, URL: "https://cdn.example.com/1.jpg"}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewMediaService(repo, nil, cache, usecases.WithCacheTTL(60))

	for i := 0; i < 2; i++ {
		url, err := svc.ResolveMedium(context.Background(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if url != "https://cdn.example.com/1.jpg" {
			t.Errorf("unexpected url %s", url)
		}
	}
	if repo.calls != 1 {
		t.Errorf("second lookup should hit the cache, repository called %d times", repo.calls)
	}
	if ttl := cache.ttls["media:1:medium"]; ttl != 60 {
		t.Errorf("expected ttl 60, got %d", ttl)
	}
}

func TestMediaService_ObjectKey(t *testing.T) {
	repo := &mockMediaRepo{
		renditionFn: func(ctx context.Context, id int64, size string) (*domain.Rendition, error) {
			return &domain.Rendition{AttachmentID: id, Size: size, ObjectKey: "media/2/medium.jpg"}, nil
		},
	}
	var gotKey string
	var gotExpiry time.Duration
	objects := &mockObjects{
		objectURLFn: func(ctx context.Context, key string, expiry time.Duration) (string, error) {
			gotKey, gotExpiry = key, expiry
			return "https://s3.example.com/" + key + "?sig=1", nil
		},
	}
	svc := usecases.NewMediaService(repo, objects, nil, usecases.WithRendition("thumbnail"), usecases.WithCacheTTL(60))

	url, err := svc.ResolveMedium(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://s3.example.com/media/2/medium.jpg?sig=1" || gotKey != "media/2/medium.jpg" {
		t.Errorf("unexpected url %s for key %s", url, gotKey)
	}
	if gotExpiry <= 60*time.Second {
		t.Errorf("presign expiry %s must outlive the cache entry", gotExpiry)
	}
}

func TestMediaService_Errors(t *testing.T) {
	notFound := &mockMediaRepo{}
	svc := usecases.NewMediaService(notFound, nil, nil)

	if _, err := svc.ResolveMedium(context.Background(), 0); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("id 0: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.ResolveMedium(context.Background(), 3); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing row: expected ErrNotFound, got %v", err)
	}

	keyOnly := &mockMediaRepo{
		renditionFn: func(ctx context.Context, id int64, size string) (*domain.Rendition, error) {
			return &domain.Rendition{ObjectKey: "k"}, nil
		},
	}
	svc = usecases.NewMediaService(keyOnly, nil, nil)
	if _, err := svc.ResolveMedium(context.Background(), 4); err == nil {
		t.Error("object key without storage should fail")
	}

	svc = usecases.NewMediaService(nil, nil, nil)
	if _, err := svc.ResolveMedium(context.Background(), 5); err == nil {
		t.Error("missing repository should fail")
	}
}

func TestMediaService_CacheWriteFailureIsLogged(t *testing.T) {
	repo := &mockMediaRepo{
		renditionFn: func(ctx context.Context, id int64, size string) (*domain.Rendition, error) {
			return &domain.Rendition{AttachmentID: id, Size: size, URL: "https://cdn.example.com/8.jpg"}, nil
		},
	}
	cache := newMockCache()
	cache.setErr = errors.New("READONLY replica")
	svc := usecases.NewMediaService(repo, nil, cache)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := logging.WithLogger(context.Background(), logger)

	url, err := svc.ResolveMedium(ctx, 8)
	if err != nil {
		t.Fatalf("a failed cache write must not fail the lookup: %v", err)
	}
	if url != "https://cdn.example.com/8.jpg" {
		t.Errorf("unexpected url %s", url)
	}
	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "media url not cached") || !strings.Contains(out, "READONLY replica") {
		t.Errorf("expected a debug line for the cache write, got %q", out)
	}
}
