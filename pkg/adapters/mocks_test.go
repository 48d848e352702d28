package adapters

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"google.golang.org/genai"
)

// --- Mocks ---

// mockTextModel は TextModel のテスト用モックです。
type mockTextModel struct {
	generateFunc func(model, prompt string) (*gemini.Response, error)
	lastModel    string
	lastPrompt   string
}

func (m *mockTextModel) GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error) {
	m.lastModel, m.lastPrompt = model, prompt
	return m.generateFunc(model, prompt)
}

// mockImageModel は ImageModel のテスト用モックです。並列に呼ばれます。
type mockImageModel struct {
	mu           sync.Mutex
	calls        []gemini.GenerateOptions
	parts        [][]*genai.Part
	generateFunc func(call int, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
	count        atomic.Int32
}

func (m *mockImageModel) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	call := int(m.count.Add(1))
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.parts = append(m.parts, parts)
	m.mu.Unlock()
	return m.generateFunc(call, parts, opts)
}

// mockImagen は ImagenModels のテスト用モックです。
type mockImagen struct {
	resp       *genai.GenerateImagesResponse
	err        error
	lastPrompt string
	lastConfig *genai.GenerateImagesConfig
}

func (m *mockImagen) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	m.lastPrompt, m.lastConfig = prompt, config
	return m.resp, m.err
}

// mockHTTPClient は HTTPClient と RequestDoer を実装します。
type mockHTTPClient struct {
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
	doFunc    func(req *http.Request) ([]byte, error)
	fetched   []string
	lastReq   *http.Request
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.fetched = append(m.fetched, url)
	return m.fetchFunc(ctx, url)
}

func (m *mockHTTPClient) DoRequest(req *http.Request) ([]byte, error) {
	m.lastReq = req
	return m.doFunc(req)
}

// mockReader は ReferenceReader を実装します。
type mockReader struct {
	data   map[string][]byte
	opened []string
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	m.opened = append(m.opened, uri)
	data, ok := m.data[uri]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// mockCache は ImageCacher を実装します。
type mockCache struct {
	mu   sync.Mutex
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]any)
	}
	m.data[key] = value
}

// mockRecorder は FallbackRecorder を実装します。
type mockRecorder struct {
	mu      sync.Mutex
	reasons []string
}

func (m *mockRecorder) RecordFallback(ctx context.Context, collaborator, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reasons = append(m.reasons, collaborator+"/"+reason)
}

// mockSearch は ImageSearchProvider を実装します。
type mockSearch struct {
	calls  atomic.Int32
	result func(query string) []domain.InspirationImage
}

func (m *mockSearch) Search(ctx context.Context, query string) []domain.InspirationImage {
	m.calls.Add(1)
	return m.result(query)
}

// mockExpander は TagExpander を実装します。
type mockExpander struct {
	calls atomic.Int32
	tags  []string
}

func (m *mockExpander) Expand(ctx context.Context, prompt string) []string {
	m.calls.Add(1)
	return m.tags
}

// --- Helpers ---

func textResponse(text string) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
			}},
		},
	}
}

func imageResponse(mimeType string, data []byte) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
				},
			}},
		},
	}
}

// pngHeader は http.DetectContentType が image/png と判定する最小のバイト列です。
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")
