package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"autoadopt/internal/config"
	"autoadopt/internal/handler"
	"autoadopt/internal/hub"
	"autoadopt/internal/logger"
	"autoadopt/internal/service"
	"autoadopt/internal/watcher"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and event stream",
	Long: `Serve the device inventory, discovery, adoption and settings API on
--addr, with live progress on GET /events as Server-Sent Events. The config
file is watched and adoption settings reload when it changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		log := logger.WithComponent("main")

		// Connect event bus to SSE hub
		sseHub := hub.New()
		go sseHub.Run(ctx)

		eventChan := make(chan service.Event, 100)
		a.eventBus.Subscribe(eventChan)
		defer a.eventBus.Unsubscribe(eventChan)
		go func() {
			for {
				select {
				case event := <-eventChan:
					sseHub.Broadcast(event)
				case <-ctx.Done():
					return
				}
			}
		}()

		h := handler.New(a.discovery, a.adoption)
		savePath := a.configPath
		if savePath == "" {
			savePath = config.DefaultConfigPath()
		}
		var saveMu sync.Mutex
		h.SetSettingsSaver(func(s service.Settings) error {
			saveMu.Lock()
			defer saveMu.Unlock()
			a.cfg.ApplyServiceSettings(s)
			return a.cfg.Save(savePath)
		})

		if a.configPath != "" {
			w := watcher.New(a.configPath, func() { reloadSettings(a) })
			go func() {
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn().Err(err).Msg("Config watcher stopped")
				}
			}()
		}

		mux := http.NewServeMux()
		h.Register(mux)
		mux.Handle("GET /events", sseHub)

		addr := a.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		server := &http.Server{
			Addr:         addr,
			Handler:      handler.Chain(mux, handler.Recover, handler.CORS, handler.Logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // /events stays open
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Msg("Server listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}

		log.Info().Msg("Waiting for running adoptions")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default from config)")
}

// reloadSettings rereads the config file and applies the adoption settings
func reloadSettings(a *app) {
	log := logger.WithComponent("main")
	cfg, _, err := config.LoadFromPath(a.configPath)
	if err != nil {
		log.Error().Err(err).Msg("Config reload failed, keeping current settings")
		return
	}
	a.adoption.UpdateSettings(cfg.ServiceSettings())
}
