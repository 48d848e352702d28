// Package store はセッションをメモリ上に TTL 付きで保持します。
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
)

// ErrSessionNotFound はセッションが存在しないか期限切れのときに返ります。
var ErrSessionNotFound = errors.New("session not found")

// Phase はウィザードの段階です。
type Phase string

const (
	PhaseDiscovery  Phase = "discovery"
	PhaseGeneration Phase = "generation"
)

// Record は1セッション分の状態です。
type Record struct {
	ID         string                    `json:"id"`
	Phase      Phase                     `json:"phase"`
	Session    domain.CreativeSession    `json:"session"`
	Candidates []domain.InspirationImage `json:"candidates"` // 直近の検索結果
	Generated  []domain.GeneratedImage   `json:"generated"`
	UpdatedAt  time.Time                 `json:"updatedAt"`
}

func (r *Record) clone() *Record {
	c := *r
	c.Session = r.Session.Clone()
	c.Candidates = slices.Clone(r.Candidates)
	c.Generated = slices.Clone(r.Generated)
	return &c
}

// SessionStore は go-cache を使ったセッションの保存先です。
// 読み出しはコピーを返し、更新は Update の中でだけ行います。
type SessionStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionStore は最後の更新から ttl で失効するストアを作ります。
func NewSessionStore(ttl time.Duration) (*SessionStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive: %v", ttl)
	}
	return &SessionStore{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// Create は空のセッションを作って返します。
func (s *SessionStore) Create() *Record {
	r := &Record{
		ID:         uuid.NewString(),
		Phase:      PhaseDiscovery,
		Session:    domain.NewCreativeSession(),
		Candidates: []domain.InspirationImage{},
		Generated:  []domain.GeneratedImage{},
		UpdatedAt:  s.now(),
	}
	s.mu.Lock()
	s.cache.Set(r.ID, r, s.ttl)
	s.mu.Unlock()
	return r.clone()
}

// Get はセッションのコピーを返します。
func (s *SessionStore) Get(id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return r.clone(), nil
}

// Update は fn にセッションを渡して書き換えます。fn がエラーを返したら変更は捨てます。
func (s *SessionStore) Update(id string, fn func(r *Record) error) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(id)
	if err != nil {
		return nil, err
	}
	work := current.clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.ID = current.ID
	work.UpdatedAt = s.now()
	s.cache.Set(id, work, s.ttl)
	return work.clone(), nil
}

// Delete はセッションを削除します。
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.load(id); err != nil {
		return err
	}
	s.cache.Delete(id)
	return nil
}

// Count は保持中のセッション数です。期限切れでまだ掃除されていないものも含みます。
func (s *SessionStore) Count() int {
	return s.cache.ItemCount()
}

func (s *SessionStore) load(id string) (*Record, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return v.(*Record), nil
}
