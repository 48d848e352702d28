package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/shouni/vision-weaver-kit/internal/builder"
	"github.com/shouni/vision-weaver-kit/pkg/adapters"
	"github.com/shouni/vision-weaver-kit/pkg/composer"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"github.com/shouni/vision-weaver-kit/pkg/export"
	"github.com/shouni/vision-weaver-kit/pkg/utils"
	"github.com/spf13/cobra"
)

const defaultOutputDir = "output"

var generateOpts struct {
	sessionFile string
	outputDir   string
	seed        int64
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "セッション JSON から画像を3枚生成して保存します",
	Long: `セッション JSON からプロンプトを合成し、設定された画像バックエンドで3枚生成します。
画像と prompt.json は --output-dir（ローカル or gs://...）に保存されます。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&generateOpts.sessionFile, "session", "s", "-", "セッション JSON（ローカル, gs://..., '-' で標準入力）")
	generateCmd.Flags().StringVarP(&generateOpts.outputDir, "output-dir", "o", defaultOutputDir, "画像の保存先ディレクトリ（ローカル or gs://...）")
	generateCmd.Flags().Int64Var(&generateOpts.seed, "seed", -1, "使うシード。負ならセッションの値か新しいシード")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := loadSession(ctx, generateOpts.sessionFile)
	if err != nil {
		return err
	}
	if generateOpts.seed >= 0 {
		session.SetSeed(&generateOpts.seed)
	}
	seed := utils.ResolveSeed(session.Seed)
	session.SetSeed(&seed)

	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	generator, err := builder.BuildImageGenerator(ctx, appCtx)
	if err != nil {
		return err
	}
	exporter, err := builder.BuildExporter(appCtx)
	if err != nil {
		return err
	}

	slog.Info("画像生成を開始します", "backend", cfg.ImageBackend, "model", cfg.ResolvedImageModel(), "seed", seed)
	return generateAndExport(ctx, cmd.OutOrStdout(), session, generator, exporter, generateOpts.outputDir)
}

// generateAndExport はセッションから3枚生成し、outputDir に保存してマニフェストを w に書きます。
func generateAndExport(
	ctx context.Context,
	w io.Writer,
	session domain.CreativeSession,
	generator adapters.ImageGenerator,
	exporter *export.ImageExporter,
	outputDir string,
) error {
	prompt := composer.Compose(session)
	req := domain.ImageGenerationRequest{
		Prompt:         prompt.Positive,
		NegativePrompt: prompt.Negative,
		AspectRatio:    "1:1",
		Seed:           session.Seed,
	}
	if session.CompositionGuideURL != nil {
		req.ReferenceURL = *session.CompositionGuideURL
	}

	images := generator.Generate(ctx, req)

	manifest, err := exporter.Export(ctx, outputDir, prompt, images)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "画像を保存しました", "output_dir", outputDir, "files", len(manifest.Files))
	return writeJSON(w, manifest)
}
