package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
)

// openInput はローカルパスか gs:// の URI を開きます。"-" は標準入力です。
func openInput(ctx context.Context, path string) (io.ReadCloser, error) {
	switch {
	case path == "-":
		return io.NopCloser(os.Stdin), nil
	case strings.HasPrefix(path, "gs://"):
		factory, err := gcsfactory.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("GCSクライアントの初期化に失敗しました: %w", err)
		}
		reader, err := factory.InputReader()
		if err != nil {
			factory.Close()
			return nil, err
		}
		rc, err := reader.Open(ctx, path)
		if err != nil {
			factory.Close()
			return nil, err
		}
		return &factoryReadCloser{ReadCloser: rc, factory: factory}, nil
	default:
		return os.Open(path)
	}
}

// factoryReadCloser は読み終えたら GCS クライアントも閉じます。
type factoryReadCloser struct {
	io.ReadCloser
	factory io.Closer
}

func (r *factoryReadCloser) Close() error {
	return errors.Join(r.ReadCloser.Close(), r.factory.Close())
}

// loadSession はセッション JSON を読み込みます。書かれていない項目は初期値のままです。
func loadSession(ctx context.Context, path string) (domain.CreativeSession, error) {
	session := domain.NewCreativeSession()

	rc, err := openInput(ctx, path)
	if err != nil {
		return session, fmt.Errorf("セッションファイルを開けませんでした (%s): %w", path, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(&session); err != nil {
		return session, fmt.Errorf("セッション JSON の解析に失敗しました (%s): %w", path, err)
	}
	return session, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
