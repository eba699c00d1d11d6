package videos

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/vidfriends/ratingclient/internal/logging"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// YTDLPProvider fetches metadata using the yt-dlp CLI tool.
type YTDLPProvider struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewYTDLPProvider constructs a Provider that shells out to yt-dlp.
func NewYTDLPProvider(binary string, timeout time.Duration) *YTDLPProvider {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YTDLPProvider{
		Binary:  binary,
		Args:    []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--skip-download"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

type ytdlpPayload struct {
	Title       string `json:"title"`
	Uploader    string `json:"uploader"`
	Channel     string `json:"channel"`
	UploaderURL string `json:"uploader_url"`
	ChannelURL  string `json:"channel_url"`
	Thumbnail   string `json:"thumbnail"`
}

// Lookup executes yt-dlp for the provided URL and parses the JSON response.
// Channel fields stand in for uploader fields the extractor left empty.
func (p *YTDLPProvider) Lookup(ctx context.Context, url string) (Metadata, error) {
	if p == nil {
		return Metadata{}, ErrProviderUnavailable
	}
	run := p.Run
	if run == nil {
		run = defaultCommandRunner
	}

	ctx, span := logging.StartSpan(ctx, "ytdlp.lookup")
	defer span.End()

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, url)

	out, err := run(execCtx, p.Binary, args...)
	if err != nil {
		err = fmt.Errorf("yt-dlp fetch: %w", err)
		span.Fail(err)
		return Metadata{}, err
	}

	var payload ytdlpPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		err = fmt.Errorf("parse yt-dlp response: %w", err)
		span.Fail(err)
		return Metadata{}, err
	}

	meta := Metadata{
		Title:       payload.Title,
		Uploader:    firstNonEmpty(payload.Uploader, payload.Channel),
		UploaderURL: firstNonEmpty(payload.UploaderURL, payload.ChannelURL),
		Thumbnail:   payload.Thumbnail,
	}
	if meta == (Metadata{}) {
		span.Fail(ErrEmptyMetadata)
		return Metadata{}, ErrEmptyMetadata
	}
	return meta, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
