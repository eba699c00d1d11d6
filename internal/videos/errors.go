package videos

import "errors"

var (
	// ErrProviderUnavailable indicates the metadata provider is not configured.
	ErrProviderUnavailable = errors.New("video metadata provider unavailable")
	// ErrEmptyMetadata is returned when yt-dlp succeeds but reports nothing useful.
	ErrEmptyMetadata = errors.New("yt-dlp returned empty metadata")
)
