package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shouni/vision-weaver-kit/internal/builder"
	"github.com/shouni/vision-weaver-kit/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "ウィザード用の JSON API サーバーを起動します",
	RunE:  serveCommand,
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()
	svc, err := builder.BuildWeaverService(ctx, appCtx)
	if err != nil {
		return err
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(server.NewHandler(svc)),
		ReadHeaderTimeout: cfg.HTTPTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("サーバーを起動しました", "addr", cfg.HTTPAddr, "image_backend", cfg.ImageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバーが停止しました: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("サーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTPTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗しました: %w", err)
	}
	return nil
}
