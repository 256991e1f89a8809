package root

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"cleanstreak/internal/remote"
	"cleanstreak/internal/storage"
	"cleanstreak/internal/ui"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the replica server other devices sync against",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := storage.OpenSQLite(ctx, filepath.Join(cfg.DataDir, "replicas.db"))
			if err != nil {
				return err
			}
			backend := storage.NewSQLiteBackend(db)
			defer backend.Close()

			adapter := storage.NewAdapter(ctx, backend, log)

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr:    addr,
				Handler: remote.NewServer(adapter, log).Routes(),
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconSync, "Replica server listening on "+addr))

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8787", "Listen address")
	return cmd
}
