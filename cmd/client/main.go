package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/cryptnotes/internal/buildinfo"
	"github.com/dmitrijs2005/cryptnotes/internal/client/cli"
	"github.com/dmitrijs2005/cryptnotes/internal/client/client"
	"github.com/dmitrijs2005/cryptnotes/internal/client/config"
	"github.com/dmitrijs2005/cryptnotes/internal/client/session"
	"github.com/dmitrijs2005/cryptnotes/internal/client/vault"
	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewTextLogger(os.Stderr, level)

	ctx := context.Background()

	api, err := client.NewGRPCClient(cfg.ServerEndpointAddr, cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer api.Close()

	if err := api.Ping(ctx); err != nil {
		if errors.Is(err, common.ErrUnavailable) {
			logger.Warn(ctx, "server is not reachable yet", "addr", cfg.ServerEndpointAddr)
		} else {
			logger.Error(ctx, "ping failed", "error", err)
		}
	}

	s := session.New(api, logger)
	v := vault.New(api, s)

	cli.NewApp(v, api, logger, os.Stdin, os.Stdout).Run(ctx)
}
