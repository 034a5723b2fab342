package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/qinolabs/qino/internal"
	"github.com/qinolabs/qino/internal/index"
	"github.com/qinolabs/qino/internal/mcpserver"
	"github.com/qinolabs/qino/internal/ops"
	"github.com/qinolabs/qino/internal/remote"
	"github.com/qinolabs/qino/internal/storage"
	"github.com/qinolabs/qino/internal/store"
	pkgconfig "github.com/qinolabs/qino/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// runMCP serves workspace tools over stdio. With --server it proxies a
// running API server; otherwise it opens the workspace directly.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	var boundary ops.Ops
	var cache index.Cache

	if serverURL := cmd.String("server"); serverURL != "" {
		boundary = remote.NewClient(serverURL+"/api", cmd.String("token"))
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fsp, err := storage.NewFS(cfg.Workspace.Path)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		st := store.New(fsp)
		boundary = st

		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			return fmt.Errorf("init index: %w", err)
		}
		defer db.Close()
		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		if err := index.Sync(ctx, db, st, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
		cache = db
	}

	return mcpserver.New(boundary, cache).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "qino",
		Usage:  "Filesystem-backed research workspace with a graph API, change notifications, and agent tools",
		Action: runServe,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server and file watcher",
				Action: runServe,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Serve workspace tools over MCP stdio",
				Action: runMCP,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:    "server",
						Usage:   "Base URL of a running API server (direct workspace access when empty)",
						Sources: cli.EnvVars("QINO_SERVER"),
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "Bearer token for the remote server",
						Sources: cli.EnvVars("QINO_TOKEN"),
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
