// Package storage writes collection snapshots to disk or an S3 bucket.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/vidfriends/ratingclient/internal/models"
)

// Sink persists a named blob and returns where it ended up.
type Sink interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Snapshot is the document written by Export.
type Snapshot struct {
	ExportedAt time.Time              `json:"exportedAt"`
	Source     string                 `json:"source"`
	Count      int                    `json:"count"`
	Data       []models.ContentRecord `json:"data"`
}

// ExportName returns the object name used for a snapshot taken at t.
func ExportName(t time.Time) string {
	return "vidrate-export-" + t.UTC().Format("20060102T150405Z") + ".json"
}

// Export writes records as an indented JSON snapshot to sink.
func Export(ctx context.Context, sink Sink, source string, records []models.ContentRecord, now time.Time) (string, error) {
	if records == nil {
		records = []models.ContentRecord{}
	}
	snapshot := Snapshot{
		ExportedAt: now.UTC(),
		Source:     source,
		Count:      len(records),
		Data:       records,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	location, err := sink.Save(ctx, ExportName(now), &buf)
	if err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}
	return location, nil
}
