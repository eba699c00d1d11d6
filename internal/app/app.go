package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/vidfriends/ratingclient/internal/auth"
	"github.com/vidfriends/ratingclient/internal/config"
	"github.com/vidfriends/ratingclient/internal/handlers"
	"github.com/vidfriends/ratingclient/internal/httpserver"
	"github.com/vidfriends/ratingclient/internal/logging"
	"github.com/vidfriends/ratingclient/internal/middleware"
	"github.com/vidfriends/ratingclient/internal/storage"
	"github.com/vidfriends/ratingclient/internal/videos"
)

const usage = "expected command: status, login, logout, register, list, show, create, edit, delete, export, or mock-backend"

// Run executes one vidrate command.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

type command struct {
	out    io.Writer
	errOut io.Writer
	cfg    config.Config
	logger *slog.Logger
}

type handlerFunc func(ctx context.Context, c *command, args []string) error

var commands = map[string]handlerFunc{
	"status":       runStatus,
	"login":        runLogin,
	"logout":       runLogout,
	"register":     runRegister,
	"list":         runList,
	"show":         runShow,
	"create":       runCreate,
	"edit":         runEdit,
	"delete":       runDelete,
	"export":       runExport,
	"mock-backend": runMockBackend,
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	handler, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(stderr, cfg.Log.Level, cfg.Log.Format).With(slog.String("command", args[0]))
	ctx = logging.WithLogger(ctx, logger)

	c := &command{out: stdout, errOut: stderr, cfg: cfg, logger: logger}
	return handler(ctx, c, args[1:])
}

func (c *command) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.errOut)
	fs.StringVar(&c.cfg.Gateway.BaseURL, "base-url", c.cfg.Gateway.BaseURL, "rating backend origin")
	return fs
}

// connect builds the client dependencies. With check set it also runs the
// startup session check.
func (c *command) connect(ctx context.Context, check bool) (*dependencies, error) {
	deps, err := buildDependencies(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	if !check {
		return deps, nil
	}
	if err := deps.sessions.Start(ctx); err != nil {
		deps.close()
		return nil, fmt.Errorf("check session: %w", err)
	}
	return deps, nil
}

func (c *command) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *command) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func requireArg(fs *pflag.FlagSet, what string) (string, error) {
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return "", fmt.Errorf("expected exactly one %s argument", what)
	}
	return fs.Arg(0), nil
}

func runStatus(ctx context.Context, c *command, args []string) error {
	fs := c.flags("status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, err := c.connect(ctx, true)
	if err != nil {
		return err
	}
	defer deps.close()

	if deps.sessions.IsLoggedIn() {
		c.printf("authenticated as %s", deps.sessions.Username())
		return nil
	}
	c.printf("anonymous")
	return nil
}

func runLogin(ctx context.Context, c *command, args []string) error {
	fs := c.flags("login")
	username := fs.StringP("username", "u", "", "account username")
	password := fs.StringP("password", "p", os.Getenv("VIDRATE_PASSWORD"), "account password (default $VIDRATE_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("login requires --username and --password")
	}

	deps, err := c.connect(ctx, false)
	if err != nil {
		return err
	}
	defer deps.close()

	if err := deps.sessions.Login(ctx, *username, *password); err != nil {
		return err
	}
	c.printf("logged in as %s", deps.sessions.Username())
	return nil
}

func runLogout(ctx context.Context, c *command, args []string) error {
	fs := c.flags("logout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, err := c.connect(ctx, false)
	if err != nil {
		return err
	}
	defer deps.close()

	if err := deps.sessions.Logout(ctx); err != nil {
		return err
	}
	c.printf("logged out")
	return nil
}

func runRegister(ctx context.Context, c *command, args []string) error {
	fs := c.flags("register")
	username := fs.StringP("username", "u", "", "account username")
	password := fs.StringP("password", "p", os.Getenv("VIDRATE_PASSWORD"), "account password (default $VIDRATE_PASSWORD)")
	name := fs.StringP("name", "n", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("register requires --username and --password")
	}

	deps, err := c.connect(ctx, false)
	if err != nil {
		return err
	}
	defer deps.close()

	registered, err := deps.sessions.Register(ctx, *username, *password, *name)
	if err != nil {
		return err
	}
	c.printf("registered %s", registered)
	return nil
}

func runList(ctx context.Context, c *command, args []string) error {
	fs := c.flags("list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, err := c.connect(ctx, true)
	if err != nil {
		return err
	}
	defer deps.close()

	coll := deps.collection()
	if err := coll.Load(ctx); err != nil {
		return err
	}
	records, _ := coll.Records()
	return c.printJSON(records)
}

func runShow(ctx context.Context, c *command, args []string) error {
	fs := c.flags("show")
	withMetadata := fs.BoolP("metadata", "m", false, "fill missing video details with yt-dlp")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireArg(fs, "content id")
	if err != nil {
		return err
	}

	deps, err := c.connect(ctx, true)
	if err != nil {
		return err
	}
	defer deps.close()

	item := deps.item(id)
	if err := item.Load(ctx); err != nil {
		return err
	}
	record, _ := item.Record()

	if *withMetadata {
		meta, err := deps.metadata.Lookup(ctx, record.VideoURL)
		if err != nil {
			logging.FromContext(ctx).Warn("video metadata lookup failed", "url", record.VideoURL, "error", err)
		} else {
			record = videos.Enrich(record, meta)
		}
	}
	return c.printJSON(record)
}

func runCreate(ctx context.Context, c *command, args []string) error {
	fs := c.flags("create")
	videoURL := fs.String("url", "", "video url")
	comment := fs.String("comment", "", "comment")
	rating := fs.IntP("rating", "r", 0, "rating")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, err := c.connect(ctx, true)
	if err != nil {
		return err
	}
	defer deps.close()

	coll := deps.collection()
	if err := coll.Create(ctx, *videoURL, *comment, *rating); err != nil {
		return err
	}
	records, _ := coll.Records()
	return c.printJSON(records)
}

func runEdit(ctx context.Context, c *command, args []string) error {
	fs := c.flags("edit")
	comment := fs.String("comment", "", "new comment (default keeps the current one)")
	rating := fs.IntP("rating", "r", 0, "new rating (default keeps the current one)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireArg(fs, "content id")
	if err != nil {
		return err
	}

	deps, err := c.connect(ctx, true)
	if err != nil {
		return err
	}
	defer deps.close()

	item := deps.item(id)
	if err := item.Load(ctx); err != nil {
		return err
	}
	current, _ := item.Record()
	if !fs.Changed("comment") {
		*comment = current.Comment
	}
	if !fs.Changed("rating") {
		*rating = current.Rating
	}

	if err := item.Edit(ctx, *comment, *rating); err != nil {
		return err
	}
	record, _ := item.Record()
	return c.printJSON(record)
}

func runDelete(ctx context.Context, c *command, args []string) error {
	fs := c.flags("delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireArg(fs, "content id")
	if err != nil {
		return err
	}

	deps, err := c.connect(ctx, true)
	if err != nil {
		return err
	}
	defer deps.close()

	if err := deps.item(id).Delete(ctx); err != nil {
		return err
	}
	c.printf("deleted %s", id)
	return nil
}

func runExport(ctx context.Context, c *command, args []string) error {
	fs := c.flags("export")
	dir := fs.String("dir", "", "local export directory (ignored when object_store.bucket is set)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, err := c.connect(ctx, true)
	if err != nil {
		return err
	}
	defer deps.close()

	coll := deps.collection()
	if err := coll.Load(ctx); err != nil {
		return err
	}
	records, _ := coll.Records()

	sink, err := deps.exportSink(ctx, *dir)
	if err != nil {
		return err
	}
	location, err := storage.Export(ctx, sink, deps.gateway.BaseURL(), records, time.Now())
	if err != nil {
		return err
	}
	c.printf("exported %d records to %s", len(records), location)
	return nil
}

func runMockBackend(ctx context.Context, c *command, args []string) error {
	fs := pflag.NewFlagSet("mock-backend", pflag.ContinueOnError)
	fs.SetOutput(c.errOut)
	port := fs.Int("port", c.cfg.MockBackend.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps := handlers.NewMemoryDependencies()
	if perMinute := c.cfg.MockBackend.LoginPerMinute; perMinute > 0 {
		deps.LoginLimiter = middleware.NewIPRateLimiter(perMinute, time.Minute, perMinute, 10*time.Minute)
	}

	srv := httpserver.New(*port, handlers.NewRouter(deps, c.logger))
	c.logger.Info("starting mock backend", "port", *port)
	return srv.Run(ctx, nil)
}

// ExitCode maps command errors onto process exit statuses.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, auth.ErrAuthentication), errors.Is(err, auth.ErrRegistration):
		return 3
	case auth.IsInfrastructureError(err):
		return 4
	default:
		return 1
	}
}
