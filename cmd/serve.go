package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/distributed-ai/query-router/internal/router"
	"github.com/distributed-ai/query-router/internal/web"
	"github.com/distributed-ai/query-router/library/auth"
	rconfig "github.com/distributed-ai/query-router/library/config"
	libredis "github.com/distributed-ai/query-router/library/db/redis"
	"github.com/distributed-ai/query-router/library/log"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the coordination server",
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		setupSettings()
		setupLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	if err := auth.Initialize([]byte(gconfig.S.GetString("admin-secret"))); err != nil {
		return errors.Wrap(err, "initialize admin auth")
	}

	notifier := buildNotifier()
	policy := rconfig.LoadPolicy()
	coordinator := router.NewCoordinator(policy, router.SystemClock, notifier)

	server := web.NewServer(coordinator)
	reaper := coordinator.NewReaperFor()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		reaper.Run(egCtx)
		return nil
	})

	eg.Go(func() error {
		addr := gconfig.S.GetString("listen")
		if addr == "" {
			addr = rconfig.DefaultListen
		}
		if err := server.Run(addr); err != nil {
			return errors.Wrap(err, "run http server")
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown http server")
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		log.Logger.Error("server exited with error", zap.Error(err))
		return err
	}

	log.Logger.Info("shutdown complete")
	return nil
}

// buildNotifier wires a best-effort Redis lifecycle notifier when configured,
// falling back to a no-op otherwise.
func buildNotifier() router.Notifier {
	addr := gconfig.S.GetString("redis-addr")
	if addr == "" {
		return router.NoopNotifier{}
	}

	pub := libredis.NewPublisher(&redis.Options{Addr: addr})
	log.Logger.Info("lifecycle events will be published to redis", zap.String("addr", addr))
	return router.NewRedisNotifier(pub)
}
