package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cartclash/internal/api"
	"github.com/sells-group/cartclash/internal/catalog"
	"github.com/sells-group/cartclash/internal/config"
	"github.com/sells-group/cartclash/internal/pricing"
	"github.com/sells-group/cartclash/internal/session"
	"github.com/sells-group/cartclash/internal/store"
	"github.com/sells-group/cartclash/internal/watchlist"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the price and watchlist HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "serve: init store")
		}
		defer st.Close() //nolint:errcheck

		if serveMigrate || cfg.Store.Driver == "memory" {
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "serve: migrate")
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(st, cfg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the services over st.
func buildRouter(st store.Store, c *config.Config) http.Handler {
	return api.NewRouter(api.Deps{
		Catalog:   catalog.NewService(st, c.Catalog.DefaultLimit),
		Prices:    pricing.NewAggregator(st, c.Catalog.SourceOrder),
		Watchlist: watchlist.NewService(st),
		Sessions:  session.NewStoreResolver(st, c.Server.SessionCookie),
		Health:    st,
	}, api.Options{CORSOrigins: c.Server.CORSOrigins})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply the schema before serving")
	rootCmd.AddCommand(serveCmd)
}
