package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/codesim/internal/mcpserver"
	"github.com/panbanda/codesim/internal/observability"
	"github.com/panbanda/codesim/internal/service/comparison"
	"github.com/panbanda/codesim/pkg/engine"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes codesim's
comparisons as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "codesim": {
        "command": "codesim",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - compare_code      Compare two inline code samples
  - compare_files     Compare two files, optionally at git revisions
  - compare_matrix    Compare every same-language file pair under paths
  - list_languages    Supported languages and AST strategies`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve prometheus metrics on this address (e.g. :9090)",
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	e := engine.New(
		engine.WithConfig(cfg),
		engine.WithLogger(slog.Default()),
		engine.WithObserver(metrics),
	)
	svc, err := newService(cfg, comparison.WithEngine(e), comparison.WithCacheObserver(metrics))
	if err != nil {
		return err
	}

	if addr := c.String("metrics-addr"); addr != "" {
		srv := observability.NewServer(addr, metrics)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		slog.Info("serving metrics", "addr", srv.Addr())
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcpserver.NewServer(version, svc).Run(ctx)
}
