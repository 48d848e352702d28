// Package service はセッションの状態遷移とコラボレーター呼び出しをまとめます。
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shouni/vision-weaver-kit/internal/store"
	"github.com/shouni/vision-weaver-kit/pkg/adapters"
	"github.com/shouni/vision-weaver-kit/pkg/composer"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"github.com/shouni/vision-weaver-kit/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const defaultAspectRatio = "1:1"

var tracer = otel.Tracer("github.com/shouni/vision-weaver-kit/internal/service")

// GenerationRecorder は画像生成の所要時間を記録します。telemetry.Metrics が満たします。
type GenerationRecorder interface {
	RecordGeneration(ctx context.Context, backend string, duration time.Duration)
}

type nopGenerationRecorder struct{}

func (nopGenerationRecorder) RecordGeneration(context.Context, string, time.Duration) {}

// Option は WeaverService の任意設定です。
type Option func(*WeaverService)

// WithGenerationRecorder は生成時間の記録先とバックエンド名を設定します。
func WithGenerationRecorder(r GenerationRecorder, backend string) Option {
	return func(s *WeaverService) {
		if r != nil {
			s.recorder = r
		}
		s.backend = backend
	}
}

// WeaverService は2フェーズのウィザードを進めるアプリケーションサービスです。
// 同じセッションの discover / generate は同時に1つだけ実行し、重複した呼び出しは結果を共有します。
type WeaverService struct {
	store     *store.SessionStore
	expander  adapters.TagExpander
	search    adapters.ImageSearchProvider
	generator adapters.ImageGenerator
	recorder  GenerationRecorder
	backend   string
	flight    singleflight.Group
}

// NewWeaverService は WeaverService を初期化します。
func NewWeaverService(
	st *store.SessionStore,
	expander adapters.TagExpander,
	search adapters.ImageSearchProvider,
	generator adapters.ImageGenerator,
	opts ...Option,
) (*WeaverService, error) {
	if st == nil {
		return nil, errors.New("session store is required")
	}
	if expander == nil {
		return nil, errors.New("tag expander is required")
	}
	if search == nil {
		return nil, errors.New("image search provider is required")
	}
	if generator == nil {
		return nil, errors.New("image generator is required")
	}
	s := &WeaverService{
		store:     st,
		expander:  expander,
		search:    search,
		generator: generator,
		recorder:  nopGenerationRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// --- ステートレス操作 ---

// Compose はセッションからプロンプトを合成します。
func (s *WeaverService) Compose(session domain.CreativeSession) composer.Prompt {
	return composer.Compose(session)
}

// ExpandTags はプロンプトを概念タグに展開します。
func (s *WeaverService) ExpandTags(ctx context.Context, prompt string) ([]string, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}
	return s.expander.Expand(ctx, prompt), nil
}

// SearchImages はクエリでインスピレーション画像を検索します。
func (s *WeaverService) SearchImages(ctx context.Context, query string) ([]domain.InspirationImage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query: %w", domain.ErrEmptyPrompt)
	}
	return s.search.Search(ctx, query), nil
}

// GenerateImages は合成済みのプロンプトで画像を生成します。シード未指定なら新しく払い出します。
func (s *WeaverService) GenerateImages(ctx context.Context, req domain.ImageGenerationRequest) ([]domain.GeneratedImage, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}
	// 外部から渡せる参照 URL は http(s) だけ。gs:// はサーバーの権限で読まれてしまう
	if req.ReferenceURL != "" && !isWebURL(req.ReferenceURL) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedURL, req.ReferenceURL)
	}
	seed := utils.ResolveSeed(req.Seed)
	req.Seed = &seed
	if req.AspectRatio == "" {
		req.AspectRatio = defaultAspectRatio
	}
	return s.generate(ctx, req), nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func (s *WeaverService) generate(ctx context.Context, req domain.ImageGenerationRequest) []domain.GeneratedImage {
	start := time.Now()
	images := s.generator.Generate(ctx, req)
	s.recorder.RecordGeneration(ctx, s.backend, time.Since(start))
	return images
}

// --- セッション操作 ---

// CreateSession は新しいセッションを作ります。
func (s *WeaverService) CreateSession(ctx context.Context) *store.Record {
	r := s.store.Create()
	slog.InfoContext(ctx, "セッションを作成しました", "session_id", r.ID)
	return r
}

// GetSession はセッションを返します。
func (s *WeaverService) GetSession(id string) (*store.Record, error) {
	return s.store.Get(id)
}

// DeleteSession はセッションを破棄します。
func (s *WeaverService) DeleteSession(id string) error {
	return s.store.Delete(id)
}

// ResetSession はセッションを初期状態に戻します。
func (s *WeaverService) ResetSession(id string) (*store.Record, error) {
	return s.store.Update(id, func(r *store.Record) error {
		r.Session.Reset()
		r.Phase = store.PhaseDiscovery
		r.Candidates = []domain.InspirationImage{}
		r.Generated = []domain.GeneratedImage{}
		return nil
	})
}

// SetPrompt は元のプロンプトを差し替えます。
func (s *WeaverService) SetPrompt(id, prompt string) (*store.Record, error) {
	return s.store.Update(id, func(r *store.Record) error {
		r.Session.SetPrompt(prompt)
		return nil
	})
}

// ApplyQuiz は回答のタグをプロンプトへ追記します。
func (s *WeaverService) ApplyQuiz(id string, answers []domain.QuizAnswer) (*store.Record, error) {
	tags, err := domain.AccumulateQuizTags(answers)
	if err != nil {
		return nil, err
	}
	return s.store.Update(id, func(r *store.Record) error {
		r.Session.SetPrompt(domain.AppendQuizTags(r.Session.OriginalPrompt, tags))
		return nil
	})
}

// Discover はプロンプトをタグに展開し、そのタグで参照画像を検索します。
func (s *WeaverService) Discover(ctx context.Context, id string) (*store.Record, error) {
	ctx, span := tracer.Start(ctx, "WeaverService.Discover", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	current, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	prompt := current.Session.OriginalPrompt
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}

	// 共有される処理は最初の呼び出し元のキャンセルに巻き込まない
	shareCtx := context.WithoutCancel(ctx)
	_, err, shared := s.flight.Do(id+":discover", func() (any, error) {
		tags := s.expander.Expand(shareCtx, prompt)
		query := composer.SearchQuery(tags, prompt)
		images := s.search.Search(shareCtx, query)
		slog.InfoContext(shareCtx, "参照画像を検索しました", "session_id", id, "query", query, "tags", len(tags), "images", len(images))

		return s.store.Update(id, func(r *store.Record) error {
			r.Session.ExpandedTags = tags
			r.Candidates = images
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("flight.shared", shared))
	return s.store.Get(id)
}

// SelectStyle はカタログのスタイルを選びます。空の ID で選択解除です。
func (s *WeaverService) SelectStyle(id, styleID string) (*store.Record, error) {
	var style *domain.Style
	if styleID != "" {
		found, err := domain.FindStyle(styleID)
		if err != nil {
			return nil, err
		}
		style = &found
	}
	return s.store.Update(id, func(r *store.Record) error {
		r.Session.SelectStyle(style)
		return nil
	})
}

// SelectPalette はカタログのパレットを選びます。空の名前でクリアです。
func (s *WeaverService) SelectPalette(id, name string) (*store.Record, error) {
	var colors []string
	if name != "" {
		p, err := domain.FindPalette(name)
		if err != nil {
			return nil, err
		}
		colors = p.Colors
	}
	return s.store.Update(id, func(r *store.Record) error {
		r.Session.SelectPalette(colors)
		return nil
	})
}

// ApproveImage は候補画像の承認をトグルします。
func (s *WeaverService) ApproveImage(id, imageID string) (*store.Record, error) {
	return s.store.Update(id, func(r *store.Record) error {
		img, err := findImage(r, imageID)
		if err != nil {
			return err
		}
		return r.Session.Approve(img)
	})
}

// DislikeImage は候補画像の不採用をトグルします。
func (s *WeaverService) DislikeImage(id, imageID string) (*store.Record, error) {
	return s.store.Update(id, func(r *store.Record) error {
		img, err := findImage(r, imageID)
		if err != nil {
			return err
		}
		return r.Session.Dislike(img)
	})
}

func findImage(r *store.Record, imageID string) (domain.InspirationImage, error) {
	for _, list := range [][]domain.InspirationImage{r.Candidates, r.Session.ApprovedImages, r.Session.DislikedImages} {
		for _, img := range list {
			if img.ID == imageID {
				return img, nil
			}
		}
	}
	return domain.InspirationImage{}, fmt.Errorf("%s: %w", imageID, domain.ErrImageNotFound)
}

// Advance は生成フェーズへ進みます。除外プロンプトが空なら不採用画像から下書きを入れます。
func (s *WeaverService) Advance(id string) (*store.Record, error) {
	return s.store.Update(id, func(r *store.Record) error {
		if len(r.Session.ApprovedImages) == 0 {
			return domain.ErrNoApprovedImages
		}
		if r.Session.NegativePrompt == "" {
			r.Session.SetNegativePrompt(composer.SuggestNegativePrompt(r.Session.DislikedImages))
		}
		r.Phase = store.PhaseGeneration
		return nil
	})
}

// Back は発見フェーズへ戻ります。セッションの内容はそのままです。
func (s *WeaverService) Back(id string) (*store.Record, error) {
	return s.store.Update(id, func(r *store.Record) error {
		r.Phase = store.PhaseDiscovery
		return nil
	})
}

// ToggleCompositionGuide は構図ガイドを切り替えます。空の URL で解除です。
func (s *WeaverService) ToggleCompositionGuide(id, guideURL string) (*store.Record, error) {
	return s.store.Update(id, func(r *store.Record) error {
		if guideURL == "" {
			r.Session.ClearCompositionGuide()
			return nil
		}
		return r.Session.ToggleCompositionGuide(guideURL)
	})
}

// Controls は生成フェーズのスライダーと除外プロンプトです。nil の項目は変更しません。
type Controls struct {
	GuidanceScale        *float64 `json:"guidanceScale"`
	CompositionInfluence *float64 `json:"compositionInfluence"`
	NegativePrompt       *string  `json:"negativePrompt"`
	Seed                 *int64   `json:"seed"`
}

// UpdateControls はコントロールをまとめて反映します。1つでも範囲外なら何も変えません。
func (s *WeaverService) UpdateControls(id string, c Controls) (*store.Record, error) {
	return s.store.Update(id, func(r *store.Record) error {
		if c.GuidanceScale != nil {
			if err := r.Session.SetGuidanceScale(*c.GuidanceScale); err != nil {
				return err
			}
		}
		if c.CompositionInfluence != nil {
			if err := r.Session.SetCompositionInfluence(*c.CompositionInfluence); err != nil {
				return err
			}
		}
		if c.NegativePrompt != nil {
			r.Session.SetNegativePrompt(*c.NegativePrompt)
		}
		if c.Seed != nil {
			if *c.Seed < 0 || *c.Seed > utils.MaxSeed {
				return fmt.Errorf("seed %d not in [0, %d]: %w", *c.Seed, utils.MaxSeed, domain.ErrOutOfRange)
			}
			r.Session.SetSeed(c.Seed)
		}
		return nil
	})
}

// ClearSeed は保存されたシードを消し、次の生成で新しいシードを払い出させます。
func (s *WeaverService) ClearSeed(id string) (*store.Record, error) {
	return s.store.Update(id, func(r *store.Record) error {
		r.Session.SetSeed(nil)
		return nil
	})
}

// Prompt はセッションの現在のプロンプトを合成し直します。
func (s *WeaverService) Prompt(id string) (composer.Prompt, error) {
	r, err := s.store.Get(id)
	if err != nil {
		return composer.Prompt{}, err
	}
	return composer.Compose(r.Session), nil
}

// NegativeSuggestion は不採用画像から除外プロンプトの下書きを作ります。
func (s *WeaverService) NegativeSuggestion(id string) (string, error) {
	r, err := s.store.Get(id)
	if err != nil {
		return "", err
	}
	return composer.SuggestNegativePrompt(r.Session.DislikedImages), nil
}

// Generate はセッションから画像を3枚生成します。
// シードは保存済みのものを使い、なければ新しく払い出して保存します。
func (s *WeaverService) Generate(ctx context.Context, id string) (*store.Record, error) {
	ctx, span := tracer.Start(ctx, "WeaverService.Generate", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	shareCtx := context.WithoutCancel(ctx)
	_, err, shared := s.flight.Do(id+":generate", func() (any, error) {
		seeded, err := s.store.Update(id, func(r *store.Record) error {
			seed := utils.ResolveSeed(r.Session.Seed)
			r.Session.SetSeed(&seed)
			return nil
		})
		if err != nil {
			return nil, err
		}

		session := seeded.Session
		prompt := composer.Compose(session)
		req := domain.ImageGenerationRequest{
			Prompt:         prompt.Positive,
			NegativePrompt: prompt.Negative,
			AspectRatio:    defaultAspectRatio,
			Seed:           session.Seed,
		}
		if session.CompositionGuideURL != nil {
			req.ReferenceURL = *session.CompositionGuideURL
		}
		span.SetAttributes(attribute.Int64("seed", *session.Seed))

		images := s.generate(shareCtx, req)
		slog.InfoContext(shareCtx, "画像を生成しました", "session_id", id, "seed", *session.Seed, "images", len(images))

		return s.store.Update(id, func(r *store.Record) error {
			r.Generated = images
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("flight.shared", shared))
	return s.store.Get(id)
}
