package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-drift/keel/internal/devserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Deploy the dist directory and serve it",
	Long: `Serve packs the dist directory into a content-addressed deployment
and serves it under the configured base path. With deploy.watch enabled,
changes to dist trigger a redeploy with a patch-bumped version — and, as in
production, remove the previous deployment's chunk files.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogging(cfg)

	metrics := devserver.NewMetrics()
	deployer := devserver.NewDeployer(cfg.Deploy, cfg.Server.BasePath, log)

	if _, err := deployer.Deploy(cfg.Deploy.Version); err != nil {
		return err
	}
	metrics.Deploys.Inc()

	server := devserver.NewServer(cfg.Server, deployer, metrics, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	if cfg.Deploy.Watch {
		watcher := devserver.NewWatcher(cfg.Deploy.Dist, deployer, metrics, log)
		g.Go(func() error { return watcher.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		log.Error("serve failed", "error", err)
		return err
	}
	log.Info("shut down cleanly")
	return nil
}
