package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rxdesk/m/internal/api"
	"rxdesk/m/internal/extraction"
	"rxdesk/m/internal/metrics"
	"rxdesk/m/internal/seed"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()
		ctx := cmd.Context()

		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.SeedFile != "" {
			if _, err := seed.LoadDrugs(ctx, db, cfg.SeedFile, log); err != nil {
				log.Warn().Err(err).Msg("seeding skipped")
			}
		}

		var extractor extraction.Extractor
		client, err := newExtractor(ctx, cfg.Vision)
		if err != nil {
			log.Warn().Err(err).Msg("prescription uploads disabled")
		} else {
			defer client.Close()
			extractor = client
		}

		m := metrics.New()
		handler := api.New(db, newPipeline(db, extractor, m, log), m, log, api.Options{
			Secret:            cfg.Secret,
			MaxUploadBytes:    cfg.MaxUploadBytes,
			PrescriptionRate:  cfg.PrescriptionRate,
			PrescriptionBurst: cfg.PrescriptionBurst,
			CORSOrigins:       cfg.CORSOrigins,
		})

		server := &http.Server{
			Addr:              ":" + cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", server.Addr).Msg("rxdesk server starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-sigChan:
		}

		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Msg("server shutdown complete")
		return nil
	},
}
