// Package cmd は vision-weaver の CLI コマンドを定義します。
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/vision-weaver-kit/internal/config"
	"github.com/shouni/vision-weaver-kit/internal/telemetry"
	"github.com/spf13/cobra"
)

const appName = "vision-weaver"

var (
	configPath string
	cfg        *config.Config
	shutdown   telemetry.ShutdownFunc = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "画像生成の意図を整理してプロンプトを合成するクリエイティブアシスタント",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
		}
		cfg = loaded

		if err := setupLogger(cfg, os.Stderr); err != nil {
			return err
		}

		shutdown, err = telemetry.InitTracer(cfg.TraceStdout, os.Stderr)
		if err != nil {
			return fmt.Errorf("トレーサーの初期化に失敗しました: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdown(context.WithoutCancel(cmd.Context()))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML 設定ファイルのパス（未指定なら "+config.ConfigPathEnv+"）")
	rootCmd.AddCommand(serveCmd, composeCmd, generateCmd, catalogCmd)
}

// setupLogger は LOG_LEVEL と LOG_FORMAT からデフォルトの slog ハンドラーを設定します。
func setupLogger(c *config.Config, w io.Writer) error {
	level, err := c.SlogLevel()
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// Execute はアプリケーションのエントリポイントです。SIGINT / SIGTERM でキャンセルされます。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗しました", "error", err)
		stop()
		os.Exit(1)
	}
}
