package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shouni/vision-weaver-kit/pkg/domain"
)

type mockExpander struct {
	tags     []string
	calls    atomic.Int32
	block    chan struct{}
	canceled atomic.Bool
}

func (m *mockExpander) Expand(ctx context.Context, prompt string) []string {
	m.calls.Add(1)
	m.canceled.Store(ctx.Err() != nil)
	if m.block != nil {
		<-m.block
	}
	return m.tags
}

type mockSearch struct {
	mu      sync.Mutex
	images  []domain.InspirationImage
	queries []string
}

func (m *mockSearch) Search(ctx context.Context, query string) []domain.InspirationImage {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	return m.images
}

type mockGenerator struct {
	mu       sync.Mutex
	requests []domain.ImageGenerationRequest
	ctxErrs  []error
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.ImageGenerationRequest) []domain.GeneratedImage {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	seed := *req.Seed
	return []domain.GeneratedImage{
		{Src: "data:image/jpeg;base64,AA==", Seed: seed},
		{Src: "data:image/jpeg;base64,AQ==", Seed: seed},
		{Src: "data:image/jpeg;base64,Ag==", Seed: seed},
	}
}

func (m *mockGenerator) last() domain.ImageGenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

type mockGenerationRecorder struct {
	calls   atomic.Int32
	backend string
}

func (m *mockGenerationRecorder) RecordGeneration(ctx context.Context, backend string, d time.Duration) {
	m.calls.Add(1)
	m.backend = backend
}

func img(id, alt string) domain.InspirationImage {
	return domain.InspirationImage{
		ID:             id,
		URLs:           domain.ImageURLs{Thumb: "https://img.example/" + id + "/t", Regular: "https://img.example/" + id + "/r"},
		AltDescription: domain.StringPtr(alt),
	}
}
