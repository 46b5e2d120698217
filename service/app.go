package service

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"postsapi/app/config"
	"postsapi/app/controllers"
	"postsapi/app/repositories"
	"postsapi/app/routes"

	"golang.org/x/sync/errgroup"
)

// RunAppServer serves the posts API until ctx is cancelled, then shuts the
// server down gracefully within cfg.Server.ShutdownTimeout.
func RunAppServer(ctx context.Context, cfg *config.Config, store repositories.PostStore, l *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}
	return serve(ctx, newServer(store, l), ln, cfg.Server.ShutdownTimeout, l)
}

func newServer(store repositories.PostStore, l *slog.Logger) *http.Server {
	router := routes.SetupRoutes(controllers.NewPostController(store, l), l)
	return &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, l *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info("HTTP server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		l.Info("HTTP server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error("HTTP server shutdown failed", "err", err)
			return err
		}
		return nil
	})

	return g.Wait()
}
