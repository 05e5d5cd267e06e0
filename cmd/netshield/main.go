// Command netshield scores URLs for phishing risk and serves the NetShield
// API used by the browser extension.
//
// Usage:
//
//	netshield -url http://192.168.1.1/login
//	netshield -job page -url https://example.com/signin
//	netshield -job serve -addr 127.0.0.1:8787
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raysh454/netshield/internal/app"
	"github.com/raysh454/netshield/internal/cli"
	"github.com/raysh454/netshield/internal/logging"
	"github.com/raysh454/netshield/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "netshield:", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	args, err := cli.ParseArgs(argv)
	if err != nil {
		return err
	}

	var dotenv []string
	if args.EnvFile != "" {
		dotenv = append(dotenv, args.EnvFile)
	}
	cfg, err := app.LoadConfig(dotenv...)
	if err != nil {
		return err
	}
	if args.ListenAddr != "" {
		cfg.ListenAddr = args.ListenAddr
	}

	logger := logging.New(cfg.LogFormat, cfg.LogLevel, "netshield")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if args.JobType == cli.JobServe {
		return serve(ctx, cfg, logger)
	}

	svc, err := app.NewService(cfg, logger)
	if err != nil {
		return err
	}
	a := app.NewApplication(cfg, args, logger, svc)
	defer func() { _ = a.Shutdown(context.Background()) }()

	return a.Run(ctx, os.Stdout)
}

func serve(ctx context.Context, cfg *app.Config, logger logging.Logger) error {
	srv, err := server.NewServer(server.Config{AppConfig: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer srv.Close()

	httpSrv := srv.HTTPServer()
	g, gctx := errgroup.WithContext(ctx)

	logger.Info("server_start", logging.Field{Key: "addr", Value: httpSrv.Addr})
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server serve failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		logger.Info("server_shutdown")
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
