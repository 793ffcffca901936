package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dengue-atlas/internal/boundary"
	"github.com/sells-group/dengue-atlas/internal/config"
	"github.com/sells-group/dengue-atlas/internal/metrics"
	"github.com/sells-group/dengue-atlas/internal/server"
)

var (
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		// The API still serves records when the boundary cannot be loaded.
		doc, err := env.Loader.Load(ctx, cfg.Boundary.Source)
		if err != nil {
			zap.L().Error("boundary load failed, map endpoint disabled",
				zap.String("source", cfg.Boundary.Source),
				zap.Error(err),
			)
		} else {
			metrics.ObserveBoundary(doc.Len(), false)
		}

		srv := server.New(env.Client, doc, serverOptions(cfg, env))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		httpSrv := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      srv.Handler(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		g, gctx := errgroup.WithContext(ctx)

		if (serveWatch || cfg.Boundary.Watch) && !isRemoteSource(cfg.Boundary.Source) {
			g.Go(func() error {
				return env.Loader.Watch(gctx, cfg.Boundary.Source, func(d *boundary.Document) {
					srv.SetBoundary(d)
					metrics.ObserveBoundary(d.Len(), true)
				})
			})
		}

		// Graceful shutdown
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(sctx)
		})

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		return g.Wait()
	},
}

// isRemoteSource reports whether source is fetched over the network and so
// cannot be watched.
func isRemoteSource(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// serverOptions maps the dashboard and server sections onto API options.
func serverOptions(c *config.Config, env *appEnv) server.Options {
	return server.Options{
		Years:          c.Dashboard.Years,
		DefaultYear:    c.Dashboard.DefaultYear,
		Params:         defaultParams(c),
		ForecastMonths: c.Dashboard.ForecastMonths,
		Dashboard:      env.Options,
		CORSOrigins:    c.Server.CORSOrigins,
		Breaker:        env.Breaker,
		Cache:          env.Cache,
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the boundary file when it changes")
	rootCmd.AddCommand(serveCmd)
}
