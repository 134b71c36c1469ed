package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netlens/netlens/pkg/api"
	"github.com/netlens/netlens/pkg/config"
	"github.com/netlens/netlens/pkg/logging"
	"github.com/netlens/netlens/pkg/proxy"
	"github.com/netlens/netlens/pkg/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the capture proxy and live view API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		log := logging.New(logging.Config{
			Level:  logging.ParseLevel(cfg.Logging.Level),
			Format: logging.ParseFormat(cfg.Logging.Format),
		})

		st := store.New(store.Options{
			MaxEvents:   cfg.MaxEvents,
			DedupWindow: time.Duration(cfg.DedupWindow),
			Logger:      log,
		})

		p := proxy.New(proxy.Options{
			Store:  st,
			Filter: &cfg.Proxy.Filter,
			Logger: log,
		})
		proxyServer := &http.Server{
			Addr:    cfg.Proxy.Addr,
			Handler: p,
		}

		apiServer := api.NewServer(st, cfg.API.Addr)
		apiServer.SetLogger(log)

		errCh := make(chan error, 1)
		go func() {
			log.Info("starting capture proxy", "addr", cfg.Proxy.Addr)
			if err := proxyServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
		if err := apiServer.Start(); err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("shutting down", "signal", sig.String())
		case err := <-errCh:
			log.Error("proxy server error", "error", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = proxyServer.Shutdown(ctx)
		_ = apiServer.Stop(ctx)
		return nil
	},
}
