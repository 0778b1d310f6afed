package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/studyapp/internal/bot"
	"github.com/example/studyapp/internal/scheduler"
)

var (
	flagServeAddr   string
	flagNoScheduler bool
	flagNoBot       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the scheduler and the Telegram bot",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().BoolVar(&flagNoScheduler, "no-scheduler", false, "Do not run the midnight and reminder jobs")
	serveCmd.Flags().BoolVar(&flagNoBot, "no-bot", false, "Do not start the Telegram bot even if a token is set")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)
	if flagServeAddr != "" {
		a.Config.HTTP.Addr = flagServeAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// today's 0/N rows exist before the first request
	a.Services.Initializer.Run(ctx)

	var notifier scheduler.Notifier
	if a.Config.Telegram.Token != "" && !flagNoBot {
		api, err := bot.Connect(a.Config.Telegram.Token)
		if err != nil {
			return err
		}
		b := bot.New(api, bot.Deps{
			Catalog:  a.Services.Catalog,
			Calendar: a.Services.Calendar,
			Settings: a.Services.Settings,
			Player:   a.Services.Player,
			Now:      a.Zone.Now,
		}, a.Config.Telegram.ChatID, a.UserID(), a.Log)
		notifier = b
		go b.Run(ctx, api)
	}

	if a.Config.EnableScheduler && !flagNoScheduler {
		s := a.Scheduler(notifier)
		if err := s.Start(); err != nil {
			return err
		}
		defer s.Stop()
	}

	srv := a.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()
	a.Log.Info("http server listening", "addr", a.Config.HTTP.Addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Log.Warn("http shutdown failed", "error", err)
	}
	a.Log.Info("stopped")
	return nil
}
