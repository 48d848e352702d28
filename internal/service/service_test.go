package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shouni/vision-weaver-kit/internal/store"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc       *WeaverService
	expander  *mockExpander
	search    *mockSearch
	generator *mockGenerator
	recorder  *mockGenerationRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewSessionStore(time.Minute)
	require.NoError(t, err)

	f := &fixture{
		expander: &mockExpander{tags: []string{"lighthouse", "storm", "ocean", "waves", "night", "drama"}},
		search: &mockSearch{images: []domain.InspirationImage{
			img("a", "a lighthouse in a storm"),
			img("b", "blurry crowded beach"),
			img("c", "calm harbor at dusk"),
		}},
		generator: &mockGenerator{},
		recorder:  &mockGenerationRecorder{},
	}
	f.svc, err = NewWeaverService(st, f.expander, f.search, f.generator, WithGenerationRecorder(f.recorder, "imagen"))
	require.NoError(t, err)
	return f
}

func TestNewWeaverService(t *testing.T) {
	st, _ := store.NewSessionStore(time.Minute)
	_, err := NewWeaverService(nil, &mockExpander{}, &mockSearch{}, &mockGenerator{})
	assert.Error(t, err)
	_, err = NewWeaverService(st, nil, &mockSearch{}, &mockGenerator{})
	assert.Error(t, err)
	_, err = NewWeaverService(st, &mockExpander{}, nil, &mockGenerator{})
	assert.Error(t, err)
	_, err = NewWeaverService(st, &mockExpander{}, &mockSearch{}, nil)
	assert.Error(t, err)
}

func TestWeaverService_Discover(t *testing.T) {
	ctx := context.Background()

	t.Run("プロンプトが空ならエラー", func(t *testing.T) {
		f := newFixture(t)
		r := f.svc.CreateSession(ctx)
		_, err := f.svc.Discover(ctx, r.ID)
		assert.ErrorIs(t, err, domain.ErrEmptyPrompt)

		_, err = f.svc.SetPrompt(r.ID, "   ")
		require.NoError(t, err)
		_, err = f.svc.Discover(ctx, r.ID)
		assert.ErrorIs(t, err, domain.ErrEmptyPrompt)
	})

	t.Run("タグの先頭5件で検索して候補を保存する", func(t *testing.T) {
		f := newFixture(t)
		r := f.svc.CreateSession(ctx)
		_, err := f.svc.SetPrompt(r.ID, "a lighthouse")
		require.NoError(t, err)

		got, err := f.svc.Discover(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, f.expander.tags, got.Session.ExpandedTags)
		assert.Len(t, got.Candidates, 3)
		assert.Equal(t, []string{"lighthouse storm ocean waves night"}, f.search.queries)
	})

	t.Run("存在しないセッション", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Discover(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrSessionNotFound)
	})

	t.Run("呼び出し元がキャンセル済みでも共有処理は続ける", func(t *testing.T) {
		f := newFixture(t)
		r := f.svc.CreateSession(ctx)
		_, _ = f.svc.SetPrompt(r.ID, "a lighthouse")

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		got, err := f.svc.Discover(canceled, r.ID)
		require.NoError(t, err)
		assert.False(t, f.expander.canceled.Load())
		assert.Equal(t, f.expander.tags, got.Session.ExpandedTags)
	})

	t.Run("同時の discover は1回にまとめる", func(t *testing.T) {
		f := newFixture(t)
		f.expander.block = make(chan struct{})
		r := f.svc.CreateSession(ctx)
		_, _ = f.svc.SetPrompt(r.ID, "a lighthouse")

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := f.svc.Discover(ctx, r.ID)
				assert.NoError(t, err)
				assert.Len(t, got.Candidates, 3)
			}()
		}
		// 全員が待ち合わせに入るのを少し待ってから解放する
		time.Sleep(50 * time.Millisecond)
		close(f.expander.block)
		wg.Wait()

		assert.GreaterOrEqual(t, f.expander.calls.Load(), int32(1))
		assert.LessOrEqual(t, f.expander.calls.Load(), int32(4))
	})
}

func TestWeaverService_Moodboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.svc.CreateSession(ctx)
	_, _ = f.svc.SetPrompt(r.ID, "a lighthouse")
	_, err := f.svc.Discover(ctx, r.ID)
	require.NoError(t, err)

	t.Run("承認前は advance できない", func(t *testing.T) {
		_, err := f.svc.Advance(r.ID)
		assert.ErrorIs(t, err, domain.ErrNoApprovedImages)
	})

	t.Run("候補にない画像はエラー", func(t *testing.T) {
		_, err := f.svc.ApproveImage(r.ID, "zzz")
		assert.ErrorIs(t, err, domain.ErrImageNotFound)
	})

	t.Run("承認と不採用は排他", func(t *testing.T) {
		_, err := f.svc.ApproveImage(r.ID, "b")
		require.NoError(t, err)
		got, err := f.svc.DislikeImage(r.ID, "b")
		require.NoError(t, err)
		assert.False(t, got.Session.IsApproved("b"))
		assert.True(t, got.Session.IsDisliked("b"))
	})

	t.Run("未承認画像は構図ガイドにできない", func(t *testing.T) {
		_, err := f.svc.ToggleCompositionGuide(r.ID, "https://img.example/a/r")
		assert.ErrorIs(t, err, domain.ErrGuideNotApproved)
	})

	t.Run("承認後に advance すると除外プロンプトの下書きが入る", func(t *testing.T) {
		_, err := f.svc.ApproveImage(r.ID, "a")
		require.NoError(t, err)
		got, err := f.svc.ToggleCompositionGuide(r.ID, "https://img.example/a/r")
		require.NoError(t, err)
		require.NotNil(t, got.Session.CompositionGuideURL)

		got, err = f.svc.Advance(r.ID)
		require.NoError(t, err)
		assert.Equal(t, store.PhaseGeneration, got.Phase)
		assert.Equal(t, "blurry, crowded, beach", got.Session.NegativePrompt)

		suggestion, err := f.svc.NegativeSuggestion(r.ID)
		require.NoError(t, err)
		assert.Equal(t, "blurry, crowded, beach", suggestion)
	})

	t.Run("back で発見フェーズに戻っても内容は残る", func(t *testing.T) {
		got, err := f.svc.Back(r.ID)
		require.NoError(t, err)
		assert.Equal(t, store.PhaseDiscovery, got.Phase)
		assert.True(t, got.Session.IsApproved("a"))
	})
}

func TestWeaverService_Catalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.svc.CreateSession(ctx)

	t.Run("スタイルを選んで解除する", func(t *testing.T) {
		style := domain.ArtStyles()[0]
		got, err := f.svc.SelectStyle(r.ID, style.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Session.SelectedStyle)
		assert.Equal(t, style.ID, got.Session.SelectedStyle.ID)

		got, err = f.svc.SelectStyle(r.ID, "")
		require.NoError(t, err)
		assert.Nil(t, got.Session.SelectedStyle)

		_, err = f.svc.SelectStyle(r.ID, "nope")
		assert.ErrorIs(t, err, domain.ErrUnknownStyle)
	})

	t.Run("パレットを選ぶ", func(t *testing.T) {
		p := domain.ColorPalettes()[0]
		got, err := f.svc.SelectPalette(r.ID, p.Name)
		require.NoError(t, err)
		assert.Equal(t, p.Colors, got.Session.ColorPalette)

		_, err = f.svc.SelectPalette(r.ID, "nope")
		assert.ErrorIs(t, err, domain.ErrUnknownPalette)
	})

	t.Run("クイズのタグをプロンプトに足す", func(t *testing.T) {
		_, _ = f.svc.SetPrompt(r.ID, "a fox")
		q := domain.QuizQuestions()[0]
		got, err := f.svc.ApplyQuiz(r.ID, []domain.QuizAnswer{{QuestionID: q.ID, ChoiceIndex: 0}})
		require.NoError(t, err)
		assert.Equal(t, domain.AppendQuizTags("a fox", q.Choices[0].Tags), got.Session.OriginalPrompt)

		_, err = f.svc.ApplyQuiz(r.ID, []domain.QuizAnswer{{QuestionID: 999}})
		assert.ErrorIs(t, err, domain.ErrUnknownQuizAnswer)
	})
}

func TestWeaverService_Controls(t *testing.T) {
	f := newFixture(t)
	r := f.svc.CreateSession(context.Background())
	ptr := func(v float64) *float64 { return &v }

	t.Run("範囲外なら何も変えない", func(t *testing.T) {
		_, err := f.svc.UpdateControls(r.ID, Controls{GuidanceScale: ptr(15), CompositionInfluence: ptr(1.5)})
		assert.ErrorIs(t, err, domain.ErrOutOfRange)

		got, _ := f.svc.GetSession(r.ID)
		assert.Equal(t, domain.DefaultGuidanceScale, got.Session.GuidanceScale)
	})

	t.Run("値を反映してプロンプトに出る", func(t *testing.T) {
		neg := "blur"
		_, err := f.svc.UpdateControls(r.ID, Controls{GuidanceScale: ptr(15), NegativePrompt: &neg})
		require.NoError(t, err)

		p, err := f.svc.Prompt(r.ID)
		require.NoError(t, err)
		assert.Contains(t, p.Positive, "high fidelity")
		assert.Equal(t, "blur", p.Negative)
	})

	t.Run("シードの範囲チェック", func(t *testing.T) {
		bad := int64(1_000_000)
		_, err := f.svc.UpdateControls(r.ID, Controls{Seed: &bad})
		assert.ErrorIs(t, err, domain.ErrOutOfRange)
	})
}

func TestWeaverService_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("シードを払い出して保存し、次回も再利用する", func(t *testing.T) {
		f := newFixture(t)
		r := f.svc.CreateSession(ctx)
		_, _ = f.svc.SetPrompt(r.ID, "a lighthouse")

		first, err := f.svc.Generate(ctx, r.ID)
		require.NoError(t, err)
		require.NotNil(t, first.Session.Seed)
		seed := *first.Session.Seed
		assert.GreaterOrEqual(t, seed, int64(0))
		assert.LessOrEqual(t, seed, int64(999999))
		require.Len(t, first.Generated, 3)
		for _, g := range first.Generated {
			assert.Equal(t, seed, g.Seed)
		}

		second, err := f.svc.Generate(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, seed, *second.Session.Seed)
		assert.Equal(t, seed, *f.generator.last().Seed)
		assert.Equal(t, int32(2), f.recorder.calls.Load())
		assert.Equal(t, "imagen", f.recorder.backend)
	})

	t.Run("キャンセル済みの呼び出し元でも生成はキャンセルされない", func(t *testing.T) {
		f := newFixture(t)
		r := f.svc.CreateSession(ctx)
		_, _ = f.svc.SetPrompt(r.ID, "a lighthouse")

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		got, err := f.svc.Generate(canceled, r.ID)
		require.NoError(t, err)
		assert.Len(t, got.Generated, 3)
		require.Len(t, f.generator.ctxErrs, 1)
		assert.NoError(t, f.generator.ctxErrs[0])
	})

	t.Run("合成したプロンプトと構図ガイドを渡す", func(t *testing.T) {
		f := newFixture(t)
		r := f.svc.CreateSession(ctx)
		_, _ = f.svc.SetPrompt(r.ID, "a lighthouse")
		_, _ = f.svc.Discover(ctx, r.ID)
		_, _ = f.svc.ApproveImage(r.ID, "a")
		_, _ = f.svc.ToggleCompositionGuide(r.ID, "https://img.example/a/r")

		_, err := f.svc.Generate(ctx, r.ID)
		require.NoError(t, err)

		p, _ := f.svc.Prompt(r.ID)
		req := f.generator.last()
		assert.Equal(t, p.Positive, req.Prompt)
		assert.Equal(t, p.Negative, req.NegativePrompt)
		assert.Equal(t, "https://img.example/a/r", req.ReferenceURL)
		assert.Equal(t, "1:1", req.AspectRatio)
	})

	t.Run("シードを消すと新しく払い出す", func(t *testing.T) {
		f := newFixture(t)
		r := f.svc.CreateSession(ctx)
		seed := int64(42)
		_, _ = f.svc.UpdateControls(r.ID, Controls{Seed: &seed})

		got, _ := f.svc.Generate(ctx, r.ID)
		assert.Equal(t, int64(42), *got.Session.Seed)

		cleared, err := f.svc.ClearSeed(r.ID)
		require.NoError(t, err)
		assert.Nil(t, cleared.Session.Seed)
	})

	t.Run("リセットで初期状態に戻る", func(t *testing.T) {
		f := newFixture(t)
		r := f.svc.CreateSession(ctx)
		_, _ = f.svc.SetPrompt(r.ID, "x")
		_, _ = f.svc.Generate(ctx, r.ID)

		got, err := f.svc.ResetSession(r.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.NewCreativeSession(), got.Session)
		assert.Empty(t, got.Generated)
		assert.Equal(t, store.PhaseDiscovery, got.Phase)
	})
}

func TestWeaverService_Stateless(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.ExpandTags(ctx, "")
	assert.ErrorIs(t, err, domain.ErrEmptyPrompt)
	tags, err := f.svc.ExpandTags(ctx, "sea")
	require.NoError(t, err)
	assert.Equal(t, f.expander.tags, tags)

	_, err = f.svc.SearchImages(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrEmptyPrompt)

	images, err := f.svc.GenerateImages(ctx, domain.ImageGenerationRequest{Prompt: "a fox"})
	require.NoError(t, err)
	require.Len(t, images, 3)
	req := f.generator.last()
	require.NotNil(t, req.Seed)
	assert.Equal(t, "1:1", req.AspectRatio)

	for _, ref := range []string{"gs://other-bucket/private.png", "/etc/passwd", "file:///etc/passwd", "ftp://host/x.png"} {
		_, err = f.svc.GenerateImages(ctx, domain.ImageGenerationRequest{Prompt: "a fox", ReferenceURL: ref})
		assert.ErrorIs(t, err, domain.ErrUnsupportedURL, ref)
	}
	assert.Len(t, f.generator.requests, 1)

	_, err = f.svc.GenerateImages(ctx, domain.ImageGenerationRequest{Prompt: "a fox", ReferenceURL: "https://images.example/fox.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/fox.jpg", f.generator.last().ReferenceURL)
}
