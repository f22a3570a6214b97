package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/minato/gyotaku/internal/mcpserver"
	"github.com/minato/gyotaku/internal/migrate"
	"github.com/minato/gyotaku/internal/recordservice"
	"github.com/minato/gyotaku/internal/storage"
	"github.com/minato/gyotaku/internal/store"
	"github.com/minato/gyotaku/internal/validate"
)

// components holds the wired application core shared by the server and the
// one-shot administrative commands.
type components struct {
	db        *store.DB
	blobs     storage.Provider
	validator *validate.Validator
	mgr       *migrate.Manager
	svc       *recordservice.Service
}

func initComponents(cfg *Config, logger *slog.Logger) (*components, error) {
	if err := os.MkdirAll(cfg.Data.PhotosPath, 0o755); err != nil {
		return nil, fmt.Errorf("create photos dir: %w", err)
	}

	blobs, err := storage.NewFS(cfg.Data.PhotosPath)
	if err != nil {
		return nil, fmt.Errorf("init photo storage: %w", err)
	}

	db, err := store.Open(cfg.Data.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	validator := validate.New(db, cfg.Validation.Region.Region())

	registry, err := migrate.NewRegistry(migrate.Builtin()...)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration registry: %w", err)
	}
	mgr := migrate.NewManager(db, registry, validator, blobs, Version, logger)

	return &components{
		db:        db,
		blobs:     blobs,
		validator: validator,
		mgr:       mgr,
		svc:       recordservice.NewService(db, blobs, validator, cfg.Validation.Strict),
	}, nil
}

func (c *components) Close() error {
	return c.db.Close()
}

// cliLogger writes to stderr so command output on stdout stays parseable.
// The MCP command additionally relies on stdout being protocol-only.
func cliLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// RunMigrate applies pending migrations, or reports what would be applied
// when dryRun is set.
func RunMigrate(ctx context.Context, cfg *Config, dryRun bool) error {
	c, err := initComponents(cfg, cliLogger(cfg))
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.mgr.CheckCompatibility(); err != nil {
		return err
	}
	res, err := c.mgr.Run(ctx, migrate.RunOptions{DryRun: dryRun})
	if err != nil {
		return err
	}
	return printJSON(res)
}

// RunRollback rolls back a single applied migration by id.
func RunRollback(ctx context.Context, cfg *Config, id string) error {
	c, err := initComponents(cfg, cliLogger(cfg))
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.mgr.Rollback(ctx, id); err != nil {
		return err
	}
	ver, err := c.mgr.Version()
	if err != nil {
		return err
	}
	return printJSON(ver)
}

// RunIntegrity validates every stored record and reports orphaned photos.
func RunIntegrity(ctx context.Context, cfg *Config) error {
	c, err := initComponents(cfg, cliLogger(cfg))
	if err != nil {
		return err
	}
	defer c.Close()

	report, err := c.mgr.CheckIntegrity(ctx)
	if err != nil {
		return err
	}
	return printJSON(report)
}

// RunCleanupPhotos removes orphaned photos, or lists them when dryRun is set.
func RunCleanupPhotos(ctx context.Context, cfg *Config, dryRun bool) error {
	c, err := initComponents(cfg, cliLogger(cfg))
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.mgr.CleanupOrphanedPhotos(ctx, dryRun)
	if err != nil {
		return err
	}
	return printJSON(res)
}

// RunMCP migrates the store and serves the MCP server on stdin/stdout.
func RunMCP(ctx context.Context, cfg *Config) error {
	logger := cliLogger(cfg)
	c, err := initComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.mgr.CheckCompatibility(); err != nil {
		return err
	}
	if _, err := c.mgr.Run(ctx, migrate.RunOptions{}); err != nil {
		return err
	}

	logger.Info("Starting MCP server on stdio")
	return mcpserver.New(c.svc, c.mgr, Version).ServeStdio()
}
