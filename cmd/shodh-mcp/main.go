// Package main provides the shodh-mcp binary: the listing wizard as MCP tools.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/propertyshodh/shodh/pkg/config"
	"github.com/propertyshodh/shodh/pkg/draft"
	"github.com/propertyshodh/shodh/pkg/logger"
	smcp "github.com/propertyshodh/shodh/pkg/mcp"
)

var version = "dev"

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	drafts, closeDrafts, err := draft.Open(ctx, cfg.Drafts)
	if err != nil {
		return fmt.Errorf("open draft store: %w", err)
	}
	defer func() {
		if err := closeDrafts(); err != nil {
			log.Warn("closing draft store", "error", err)
		}
	}()

	h := smcp.NewHandlers(drafts, log)
	defer h.Close()

	log.Info("serving mcp on stdio", "version", version, "draft_backend", cfg.Drafts.Backend)
	return server.ServeStdio(smcp.NewServer(version, h))
}
