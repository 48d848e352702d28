package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/vision-weaver-kit/pkg/imgutil"
	"google.golang.org/genai"
)

const (
	referenceCompressionQuality = 75
	cacheKeyReference           = "reference:"
)

// GeminiImageCore は構図ガイド画像の取得と Gemini 応答の解析を受け持ちます。
type GeminiImageCore struct {
	httpClient HTTPClient
	reader     ReferenceReader
	cache      ImageCacher
	cacheTTL   time.Duration
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore を初期化します。
// reader と cache は nil を許容します。
func NewGeminiImageCore(httpClient HTTPClient, reader ReferenceReader, cache ImageCacher, cacheTTL time.Duration) (*GeminiImageCore, error) {
	if httpClient == nil {
		return nil, errors.New("httpClient is required")
	}
	return &GeminiImageCore{
		httpClient: httpClient,
		reader:     reader,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}, nil
}

// PrepareImagePart は参照画像を取得して genai.Part にします。
// 取得できなければ nil を返し、呼び出し側はテキストのみで続行します。
func (c *GeminiImageCore) PrepareImagePart(ctx context.Context, rawURL string) *genai.Part {
	key := cacheKeyReference + rawURL
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if data, ok := cached.([]byte); ok {
				return c.ToPart(data)
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", rawURL, "type", fmt.Sprintf("%T", cached))
		}
	}

	data, err := c.fetchImageData(ctx, rawURL)
	if err != nil {
		slog.WarnContext(ctx, "構図ガイド画像を取得できませんでした。テキストのみで続行します", "url", rawURL, "error", err)
		return nil
	}
	data = imgutil.Shrink(data, referenceCompressionQuality)

	if c.cache != nil {
		c.cache.Set(key, data, c.cacheTTL)
	}
	return c.ToPart(data)
}

func (c *GeminiImageCore) fetchImageData(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "gs://") {
		if c.reader == nil {
			return nil, fmt.Errorf("gs:// の読み込み手段がありません: %s", rawURL)
		}
		rc, err := c.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	if safe, err := isSafeURL(rawURL); err != nil || !safe {
		if err == nil {
			err = errors.New("private or loopback address")
		}
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	return c.httpClient.FetchBytes(ctx, rawURL)
}

// ToPart はバイト列を InlineData の Part に変換します。画像でなければ nil です。
func (c *GeminiImageCore) ToPart(data []byte) *genai.Part {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		slog.Warn("MIMEタイプが画像ではないためPartに変換できませんでした", "detected_mime_type", mimeType)
		return nil
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// ParseToResponse は先頭候補から最初の画像パーツを取り出します。
func (c *GeminiImageCore) ParseToResponse(resp *gemini.Response) ([]byte, string, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, "", errors.New("Geminiからの有効な応答がありませんでした")
	}
	candidate := resp.RawResponse.Candidates[0]

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, part.InlineData.MIMEType, nil
			}
		}
	}

	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, "", fmt.Errorf("画像生成が異常終了しました (FinishReason: %s)", candidate.FinishReason)
	}
	return nil, "", errors.New("画像データが見つかりませんでした")
}

// isSafeURL は SSRF 対策として URL を検証します。
// 名前解決されたすべての IP がプライベートやループバックでないことを確かめます。
func isSafeURL(rawURL string) (bool, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsed.Scheme)
	}

	host := parsed.Hostname()
	ips := []net.IP{net.ParseIP(host)}
	if ips[0] == nil {
		if ips, err = net.LookupIP(host); err != nil {
			return false, fmt.Errorf("名前解決失敗: %w", err)
		}
	}
	if len(ips) == 0 {
		return false, errors.New("IPが見つかりません")
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip)
		}
	}
	return true, nil
}
