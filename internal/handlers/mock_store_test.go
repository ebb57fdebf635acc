package handlers_test

import (
	"context"
	"errors"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/shortener"
	"github.com/serroba/linkstats/internal/store"
)

var errMock = errors.New("mock error")

const testURL = "https://example.com/page"

// mockStore is a memory store that can be configured to fail and counts writes.
type mockStore struct {
	*store.MemoryStore

	getErr       error
	saveClickErr error
	createCalls  int
}

func newMockStore() *mockStore {
	return &mockStore{MemoryStore: store.NewMemoryStore()}
}

func (m *mockStore) Create(ctx context.Context, link *shortener.Link) error {
	m.createCalls++

	return m.MemoryStore.Create(ctx, link)
}

func (m *mockStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}

	return m.MemoryStore.GetByCode(ctx, code)
}

func (m *mockStore) SaveClick(ctx context.Context, click *analytics.ClickEvent) error {
	if m.saveClickErr != nil {
		return m.saveClickErr
	}

	return m.MemoryStore.SaveClick(ctx, click)
}

// stubCreator returns a fixed error from Shorten.
type stubCreator struct {
	err error
}

func (s stubCreator) Shorten(context.Context, string, shortener.OwnerID) (*shortener.Link, error) {
	return nil, s.err
}
