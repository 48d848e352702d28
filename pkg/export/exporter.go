// Package export は生成画像とプロンプトをローカルや GCS に書き出します。
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shouni/go-utils/urlpath"
	"github.com/shouni/vision-weaver-kit/pkg/composer"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"github.com/shouni/vision-weaver-kit/pkg/imgutil"
)

const (
	imageBaseName    = "vision_weaver"
	manifestFileName = "prompt.json"
)

// Writer は出力先への書き込みです。remoteio.OutputWriter が満たします。
type Writer interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// Fetcher はリモート画像のバイト列を取得します。httpkit.Requester が満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Manifest は書き出した画像と、それを作ったプロンプトの記録です。
type Manifest struct {
	Prompt composer.Prompt `json:"prompt"`
	Seed   int64           `json:"seed"`
	Files  []string        `json:"files"`
}

// ImageExporter は GeneratedImage を出力ディレクトリに連番で保存します。
type ImageExporter struct {
	writer  Writer
	fetcher Fetcher
}

// NewImageExporter は ImageExporter を初期化します。
func NewImageExporter(writer Writer, fetcher Fetcher) (*ImageExporter, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	return &ImageExporter{writer: writer, fetcher: fetcher}, nil
}

// Export は画像を vision_weaver_{n}.{ext} として保存し、最後に prompt.json を書きます。
// data URL はデコードし、それ以外の URL は取得してから保存します。
func (e *ImageExporter) Export(ctx context.Context, outputDir string, prompt composer.Prompt, images []domain.GeneratedImage) (*Manifest, error) {
	manifest := &Manifest{Prompt: prompt, Files: make([]string, 0, len(images))}

	for i, img := range images {
		mimeType, data, err := e.load(ctx, img.Src)
		if err != nil {
			return nil, fmt.Errorf("画像 %d の読み込みに失敗しました: %w", i+1, err)
		}

		basePath, err := urlpath.ResolvePath(outputDir, imageBaseName+extensionFor(mimeType))
		if err != nil {
			return nil, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}
		path, err := urlpath.GenerateIndexedPath(basePath, i+1)
		if err != nil {
			return nil, fmt.Errorf("画像 %d の出力パス生成に失敗しました: %w", i+1, err)
		}

		if err := e.writer.Write(ctx, path, bytes.NewReader(data), mimeType); err != nil {
			return nil, fmt.Errorf("画像 %d の保存に失敗しました (path: %s): %w", i+1, path, err)
		}
		slog.InfoContext(ctx, "生成画像を保存しました", "index", i+1, "path", path, "seed", img.Seed)
		manifest.Files = append(manifest.Files, path)
		manifest.Seed = img.Seed
	}

	if err := e.writeManifest(ctx, outputDir, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (e *ImageExporter) load(ctx context.Context, src string) (string, []byte, error) {
	if imgutil.IsDataURL(src) {
		return imgutil.DecodeDataURL(src)
	}
	data, err := e.fetcher.FetchBytes(ctx, src)
	if err != nil {
		return "", nil, err
	}
	return http.DetectContentType(data), data, nil
}

func (e *ImageExporter) writeManifest(ctx context.Context, outputDir string, m *Manifest) error {
	path, err := urlpath.ResolvePath(outputDir, manifestFileName)
	if err != nil {
		return fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("マニフェストのエンコードに失敗しました: %w", err)
	}
	if err := e.writer.Write(ctx, path, bytes.NewReader(body), "application/json"); err != nil {
		return fmt.Errorf("マニフェストの保存に失敗しました (path: %s): %w", path, err)
	}
	return nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
