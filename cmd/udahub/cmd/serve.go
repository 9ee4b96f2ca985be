package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/udahub/udahub/internal/memory"
	"github.com/udahub/udahub/internal/tools"
	"github.com/udahub/udahub/pkg/observability"
	"github.com/udahub/udahub/pkg/toolserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tool server and metrics endpoint",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	defer a.close()

	registry := toolserver.NewRegistry()
	if err := tools.RegisterAccountTools(registry, a.accounts); err != nil {
		fatal(err)
	}
	if err := tools.RegisterMemoryTools(registry, a.memories); err != nil {
		fatal(err)
	}

	toolSrv := toolserver.NewServer(registry, cfg.ToolServerAddr)
	obsSrv := observability.NewServer(cfg.MetricsAddr)

	sweeper := memory.NewSweeper(a.checkpoints, cfg.CheckpointTTL, cfg.CheckpointSweep)
	if err := sweeper.Start(); err != nil {
		fatal(err)
	}
	defer sweeper.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(toolSrv.Start)
	g.Go(obsSrv.Start)
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := toolSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("tool server shutdown: %v", err)
		}
		if err := obsSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics server shutdown: %v", err)
		}
		return nil
	})

	log.Printf("serving tools=%s metrics=%s", cfg.ToolServerAddr, cfg.MetricsAddr)
	if err := g.Wait(); err != nil {
		fatal(err)
	}
	log.Println("servers stopped")
}
