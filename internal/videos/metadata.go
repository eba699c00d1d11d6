package videos

import (
	"context"

	"github.com/vidfriends/ratingclient/internal/models"
)

// Metadata captures the video details used to enrich a content record.
type Metadata struct {
	Title       string
	Uploader    string
	UploaderURL string
	Thumbnail   string
}

// Provider returns metadata for the supplied video URL.
type Provider interface {
	Lookup(ctx context.Context, url string) (Metadata, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, url string) (Metadata, error)

// Lookup implements Provider.
func (f ProviderFunc) Lookup(ctx context.Context, url string) (Metadata, error) {
	return f(ctx, url)
}

// Enrich fills the empty descriptive fields of record from meta. Fields the
// backend already populated are left alone.
func Enrich(record models.ContentRecord, meta Metadata) models.ContentRecord {
	if record.VideoTitle == "" {
		record.VideoTitle = meta.Title
	}
	if record.CreatorName == "" {
		record.CreatorName = meta.Uploader
	}
	if record.CreatorURL == "" {
		record.CreatorURL = meta.UploaderURL
	}
	if record.ThumbnailURL == "" {
		record.ThumbnailURL = meta.Thumbnail
	}
	return record
}
