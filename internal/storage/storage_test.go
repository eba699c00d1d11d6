package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vidfriends/ratingclient/internal/config"
	"github.com/vidfriends/ratingclient/internal/models"
)

type stubUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (s *stubUploader) Upload(ctx context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	s.input = input
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	s.body = data
	if s.err != nil {
		return nil, s.err
	}
	return &manager.UploadOutput{}, nil
}

func TestLocalStorageSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	local, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}

	location, err := local.Save(context.Background(), "../escape.json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if location != filepath.Join(dir, "escape.json") {
		t.Fatalf("unexpected location %q", location)
	}

	data, err := os.ReadFile(location)
	if err != nil || string(data) != "{}" {
		t.Fatalf("unexpected file contents %q err=%v", data, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleaned up, found %d entries", len(entries))
	}
}

func TestS3StorageSave(t *testing.T) {
	uploader := &stubUploader{}
	s3Storage := NewS3StorageWithUploader(uploader, "exports", "https://cdn.example.com/")

	location, err := s3Storage.Save(context.Background(), "/snap.json", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if location != "https://cdn.example.com/snap.json" {
		t.Fatalf("unexpected location %q", location)
	}
	if aws.ToString(uploader.input.Bucket) != "exports" || aws.ToString(uploader.input.Key) != "snap.json" {
		t.Fatalf("unexpected input %+v", uploader.input)
	}
	if aws.ToString(uploader.input.ContentType) != "application/json" {
		t.Fatalf("unexpected content type %q", aws.ToString(uploader.input.ContentType))
	}
	if string(uploader.body) != "payload" {
		t.Fatalf("unexpected body %q", uploader.body)
	}

	withoutBase := NewS3StorageWithUploader(uploader, "exports", "")
	location, err = withoutBase.Save(context.Background(), "snap.json", strings.NewReader("x"))
	if err != nil || location != "s3://exports/snap.json" {
		t.Fatalf("unexpected location %q err=%v", location, err)
	}
}

func TestS3StorageSaveErrors(t *testing.T) {
	uploader := &stubUploader{err: errors.New("boom")}
	s3Storage := NewS3StorageWithUploader(uploader, "exports", "")

	if _, err := s3Storage.Save(context.Background(), "", strings.NewReader("x")); err == nil {
		t.Fatal("expected empty key error")
	}
	if _, err := s3Storage.Save(context.Background(), "a.json", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), configWithoutBucket()); err == nil {
		t.Fatal("expected bucket error")
	}
}

func TestExport(t *testing.T) {
	uploader := &stubUploader{}
	sink := NewS3StorageWithUploader(uploader, "exports", "")
	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

	records := []models.ContentRecord{{ID: "1", Rating: 4}, {ID: "2", Rating: 5}}
	location, err := Export(context.Background(), sink, "http://backend", records, now)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if location != "s3://exports/vidrate-export-20261018T093000Z.json" {
		t.Fatalf("unexpected location %q", location)
	}

	var snap Snapshot
	if err := json.Unmarshal(uploader.body, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Count != 2 || len(snap.Data) != 2 || snap.Source != "http://backend" || !snap.ExportedAt.Equal(now) {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestExportEmptyCollection(t *testing.T) {
	uploader := &stubUploader{}
	sink := NewS3StorageWithUploader(uploader, "exports", "")

	if _, err := Export(context.Background(), sink, "src", nil, time.Now()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(uploader.body), `"data": []`) {
		t.Fatalf("expected empty data array, got %s", uploader.body)
	}
}

func configWithoutBucket() config.ObjectStoreConfig {
	return config.ObjectStoreConfig{Region: "us-east-1"}
}
