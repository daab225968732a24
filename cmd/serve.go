package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathduel/internal/api"
	"github.com/abhisek/mathduel/internal/card"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve battles over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		gen, err := newGenerator(ctx, st.LLMEvents())
		if err != nil {
			return err
		}
		mgr := newManager(gen, st)
		srv := api.NewServer(mgr, card.DefaultCatalog(), logger)

		go func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := mgr.Sweep(); n > 0 {
						logger.Info("evicted ended battles", "count", n)
					}
				}
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
			// Plays wait on the collaborator, so the write timeout leaves
			// room for the generation timeout.
			WriteTimeout: cfg.Generation.Timeout + 30*time.Second,
			IdleTimeout:  2 * time.Minute,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", cfg.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}
