package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/shortener"
)

type memoryLink struct {
	link shortener.Link
	seq  uint64
}

// MemoryStore keeps links and clicks in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	seq    uint64
	links  map[shortener.Code]memoryLink
	clicks map[shortener.Code][]analytics.ClickEvent // append order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:  make(map[shortener.Code]memoryLink),
		clicks: make(map[shortener.Code][]analytics.ClickEvent),
	}
}

func (m *MemoryStore) Create(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Code]; ok {
		return shortener.ErrCodeTaken
	}

	m.seq++
	m.links[link.Code] = memoryLink{link: *link, seq: m.seq}

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	link := stored.link

	return &link, nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, owner shortener.OwnerID) ([]shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var owned []memoryLink

	for _, stored := range m.links {
		if stored.link.OwnedBy(owner) {
			owned = append(owned, stored)
		}
	}

	slices.SortFunc(owned, func(a, b memoryLink) int {
		if c := b.link.CreatedAt.Compare(a.link.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(b.seq, a.seq)
	})

	links := make([]shortener.Link, 0, len(owned))
	for _, stored := range owned {
		links = append(links, stored.link)
	}

	return links, nil
}

func (m *MemoryStore) CodeExists(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.links[code]

	return ok, nil
}

// SaveClick appends a click. The link must exist.
func (m *MemoryStore) SaveClick(_ context.Context, click *analytics.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[click.Code]; !ok {
		return shortener.ErrNotFound
	}

	m.clicks[click.Code] = append(m.clicks[click.Code], *click)

	return nil
}

func (m *MemoryStore) RecentClicks(_ context.Context, code shortener.Code, limit int) ([]analytics.ClickEvent, error) {
	m.mu.RLock()
	stored := m.clicks[code]
	recent := make([]analytics.ClickEvent, 0, len(stored))

	for i := len(stored) - 1; i >= 0; i-- {
		recent = append(recent, stored[i])
	}
	m.mu.RUnlock()

	// Latest append wins ties on equal timestamps.
	slices.SortStableFunc(recent, func(a, b analytics.ClickEvent) int {
		return b.ClickedAt.Compare(a.ClickedAt)
	})

	if len(recent) > limit {
		recent = recent[:limit]
	}

	return recent, nil
}

func (m *MemoryStore) DailyClickCounts(
	_ context.Context, code shortener.Code, from, to time.Time, loc *time.Location,
) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)

	for _, click := range m.clicks[code] {
		if click.ClickedAt.Before(from) || !click.ClickedAt.Before(to) {
			continue
		}

		counts[click.ClickedAt.In(loc).Format(analytics.DateKeyLayout)]++
	}

	return counts, nil
}

// Compile-time checks.
var (
	_ shortener.Repository      = (*MemoryStore)(nil)
	_ analytics.ClickRepository = (*MemoryStore)(nil)
)
