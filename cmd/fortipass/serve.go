package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fortipass/fortipass-go/internal/crypto"
	"github.com/fortipass/fortipass-go/internal/handler"
	"github.com/fortipass/fortipass-go/internal/instance"
	"github.com/fortipass/fortipass-go/internal/repository"
	"github.com/fortipass/fortipass-go/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP front end (one instance at a time)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) serve(ctx context.Context, out io.Writer) (err error) {
	lock, err := instance.Acquire(a.cfg.LockFile)
	if err != nil {
		slog.Error("multiple instances are not allowed", "error", err)
		return err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			slog.Error("error during unlocking", "error", rerr)
			err = errors.Join(err, rerr)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	salt, err := crypto.NewSalt()
	if err != nil {
		return err
	}
	key, err := crypto.DeriveSigningKey(a.cfg.TokenSecret, salt)
	if err != nil {
		return err
	}
	sessionID := uuid.NewString()
	token, err := crypto.GenerateToken(sessionID, key, a.cfg.TokenExpiry)
	if err != nil {
		return fmt.Errorf("issuing session token: %w", err)
	}

	var recorder service.HistoryRecorder
	var historyHandler *handler.HistoryHandler
	if a.cfg.HistoryEnabled() {
		if repo, closeDB, err := openHistory(ctx, a.cfg.DatabaseDSN); err != nil {
			slog.Warn("database unavailable, history disabled", "error", err)
		} else {
			defer closeDB()
			recorder = repo
			historyHandler = handler.NewHistoryHandler(service.NewHistoryService(repo))
		}
	}

	genHandler := handler.NewGeneratorHandler(service.NewGeneratorService(a.cfg.DefaultLength, recorder))
	router := handler.NewRouter(ctx, handler.RouterConfig{
		SigningKey:     key,
		RateLimitRPS:   a.cfg.RateLimitRPS,
		RateLimitBurst: a.cfg.RateLimitBurst,
	}, genHandler, historyHandler)

	ln, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Fprintf(out, "fortipass listening on http://%s\n", ln.Addr())
	fmt.Fprintf(out, "session token (valid for %s):\n%s\n", a.cfg.TokenExpiry, token)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", ln.Addr().String(), "env", a.cfg.Env, "session", sessionID, "pid", lock.PID())
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func openHistory(ctx context.Context, dsn string) (*repository.HistoryRepository, func(), error) {
	db, err := repository.NewDB(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewHistoryRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("creating history table: %w", err)
	}

	return repo, func() { db.Close() }, nil
}
