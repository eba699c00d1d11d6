package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidfriends/ratingclient/internal/auth"
	"github.com/vidfriends/ratingclient/internal/content"
	"github.com/vidfriends/ratingclient/internal/db"
	"github.com/vidfriends/ratingclient/internal/handlers"
	"github.com/vidfriends/ratingclient/internal/models"
	"github.com/vidfriends/ratingclient/internal/repositories"
)

type cli struct {
	t           *testing.T
	backend     *httptest.Server
	exportDir   string
	sessionPath string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	deps := handlers.NewMemoryDependencies()
	deps.PasswordCost = bcrypt.MinCost
	backend := httptest.NewServer(handlers.NewRouter(deps, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(backend.Close)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("VIDRATE_CONFIG", "")
	t.Setenv("VIDRATE_GATEWAY_BASE_URL", backend.URL)
	t.Setenv("VIDRATE_SESSION_DRIVER", "sqlite")
	sessionPath := filepath.Join(dir, "state", "session.db")
	t.Setenv("VIDRATE_SESSION_PATH", sessionPath)
	t.Setenv("VIDRATE_LOG_LEVEL", "error")
	t.Setenv("VIDRATE_PASSWORD", "")

	exportDir := filepath.Join(dir, "exports")
	t.Setenv("VIDRATE_EXPORT_DIR", exportDir)

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	return &cli{t: t, backend: backend, exportDir: exportDir, sessionPath: sessionPath}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("vidrate %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestRunRequiresKnownCommand(t *testing.T) {
	if err := run(context.Background(), nil, io.Discard, io.Discard); err == nil {
		t.Fatal("expected usage error")
	}
	if err := run(context.Background(), []string{"serve"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestSessionLifecycle(t *testing.T) {
	c := newCLI(t)

	if out := c.mustRun("status"); strings.TrimSpace(out) != "anonymous" {
		t.Fatalf("expected anonymous, got %q", out)
	}

	if out := c.mustRun("register", "-u", "alice", "-p", "pw", "--name", "Alice"); strings.TrimSpace(out) != "registered Alice" {
		t.Fatalf("unexpected register output %q", out)
	}

	_, err := c.run("login", "-u", "alice", "-p", "wrong")
	if ExitCode(err) != 3 {
		t.Fatalf("expected authentication exit code, got %d (%v)", ExitCode(err), err)
	}

	if out := c.mustRun("login", "-u", "alice", "-p", "pw"); strings.TrimSpace(out) != "logged in as alice" {
		t.Fatalf("unexpected login output %q", out)
	}

	if out := c.mustRun("status"); strings.TrimSpace(out) != "authenticated as alice" {
		t.Fatalf("expected persisted session, got %q", out)
	}

	_, err = c.run("status", "--base-url", "http://127.0.0.1:1")
	if ExitCode(err) != 4 {
		t.Fatalf("expected infrastructure exit code, got %d (%v)", ExitCode(err), err)
	}

	if out := c.mustRun("logout"); strings.TrimSpace(out) != "logged out" {
		t.Fatalf("unexpected logout output %q", out)
	}
	if out := c.mustRun("status"); strings.TrimSpace(out) != "anonymous" {
		t.Fatalf("expected anonymous after logout, got %q", out)
	}
}

func TestLogoutClearsSessionWhenBackendIsDown(t *testing.T) {
	c := newCLI(t)
	c.mustRun("register", "-u", "alice", "-p", "pw", "--name", "Alice")
	c.mustRun("login", "-u", "alice", "-p", "pw")

	c.backend.Close()

	_, err := c.run("logout")
	var sessionErr *auth.SessionError
	if !errors.As(err, &sessionErr) {
		t.Fatalf("expected session error, got %v", err)
	}

	handle, err := db.OpenSQLite(c.sessionPath)
	if err != nil {
		t.Fatalf("open session db: %v", err)
	}
	store, err := repositories.NewSQLiteSessionStore(handle)
	if err != nil {
		t.Fatalf("open session store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for _, key := range []string{auth.KeyToken, auth.KeyUsername} {
		if value, ok, err := store.Get(ctx, key); err != nil || ok {
			t.Fatalf("expected %s cleared, got %q ok=%v err=%v", key, value, ok, err)
		}
	}
}

func TestContentCommands(t *testing.T) {
	c := newCLI(t)

	var records []models.ContentRecord
	if err := json.Unmarshal([]byte(c.mustRun("list")), &records); err != nil || len(records) != 0 {
		t.Fatalf("expected empty list, got %+v %v", records, err)
	}

	_, err := c.run("create", "--url", "https://videos.example/v/1", "--comment", "great", "-r", "4")
	if !errors.Is(err, content.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	c.mustRun("register", "-u", "alice", "-p", "pw")
	c.mustRun("login", "-u", "alice", "-p", "pw")

	out := c.mustRun("create", "--url", "https://videos.example/v/1", "--comment", "great", "-r", "4")
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode create output: %v", err)
	}
	if len(records) != 1 || records[0].Comment != "great" {
		t.Fatalf("expected created record in collection, got %+v", records)
	}
	id := records[0].ID

	var record models.ContentRecord
	if err := json.Unmarshal([]byte(c.mustRun("edit", id, "-r", "5")), &record); err != nil {
		t.Fatalf("decode edit output: %v", err)
	}
	if record.Rating != 5 || record.Comment != "great" {
		t.Fatalf("expected rating changed and comment kept, got %+v", record)
	}

	if err := json.Unmarshal([]byte(c.mustRun("show", id)), &record); err != nil {
		t.Fatalf("decode show output: %v", err)
	}
	if record.Rating != 5 || record.PostedBy == nil || record.PostedBy.Username != "alice" {
		t.Fatalf("unexpected record %+v", record)
	}

	out = c.mustRun("export")
	if !strings.HasPrefix(out, "exported 1 records to "+c.exportDir) {
		t.Fatalf("unexpected export output %q", out)
	}
	entries, err := os.ReadDir(c.exportDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one export file, got %v %v", entries, err)
	}

	if out := c.mustRun("delete", id); strings.TrimSpace(out) != "deleted "+id {
		t.Fatalf("unexpected delete output %q", out)
	}
	if _, err := c.run("show", id); err == nil {
		t.Fatal("expected show of deleted record to fail")
	}

	if _, err := c.run("show"); err == nil {
		t.Fatal("expected missing id error")
	}
}
