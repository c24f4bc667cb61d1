package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jetsetgo/sidekick-setup/internal/api"
	"github.com/jetsetgo/sidekick-setup/internal/display"
	"github.com/jetsetgo/sidekick-setup/internal/settings"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the setup server",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Sidekick Setup Server")
		fmt.Println("=====================")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Create log buffer and install log capture
		logBuf := api.NewLogBuffer(cfg.Logging.BufferSize)
		api.InstallLogCapture(logBuf)

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}

		store, err := settings.Open(cfg)
		if err != nil {
			return fmt.Errorf("open settings store: %w", err)
		}
		defer store.Close()

		disp, err := display.New(cfg.Display, os.Stdout)
		if err != nil {
			return fmt.Errorf("open display: %w", err)
		}
		defer disp.Close()

		// Print configuration
		fmt.Printf("Settings store: %s (%s)\n", cfg.Store.Driver, cfg.Store.Path)
		fmt.Printf("Display: %s\n", disp.Type())

		logBuf.LogInfo("Setup server starting...")
		server := api.NewServer(cfg, store, disp, logBuf)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("\nStarting server on http://%s\n", cfg.Addr())
		fmt.Println("Press Ctrl+C to stop")

		g, gctx := errgroup.WithContext(ctx)
		g.Go(server.Start)
		g.Go(func() error {
			<-gctx.Done()
			logBuf.LogInfo("Setup server stopping...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "listen port (overrides server.port)")
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "listen host (overrides server.host)")
	rootCmd.AddCommand(serveCmd)
}
