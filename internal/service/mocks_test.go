package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockItemStore mocks the store.ItemStore interface
type MockItemStore struct {
	mock.Mock
}

func (m *MockItemStore) FindAll(ctx context.Context) ([]*domain.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Item), args.Error(1)
}

func (m *MockItemStore) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemStore) FindAllIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockItemStore) Save(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockItemStore) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// WithTx returns the mock itself so expectations apply inside transactions.
func (m *MockItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return m
}

// fakeTransactor runs the function without a real transaction.
type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	f.calls++
	return fn(ctx, nil)
}

// memoryItemStore is a concurrency-safe in-memory store.ItemStore used where
// counting calls across many goroutines matters more than expectations.
type memoryItemStore struct {
	mu        sync.Mutex
	items     map[int64]domain.Item
	ids       []int64
	findErr   map[int64]error
	saveErr   map[int64]error
	findCalls map[int64]int
	saveCalls map[int64]int

	// onFind, when set, runs at the start of every FindByID call.
	onFind func(ctx context.Context, id int64)
	// onSave, when set, runs at the start of every Save call.
	onSave func(ctx context.Context, id int64)
}

func newMemoryItemStore(items ...domain.Item) *memoryItemStore {
	s := &memoryItemStore{
		items:     make(map[int64]domain.Item),
		findErr:   make(map[int64]error),
		saveErr:   make(map[int64]error),
		findCalls: make(map[int64]int),
		saveCalls: make(map[int64]int),
	}
	for _, item := range items {
		s.items[item.ID] = item
		s.ids = append(s.ids, item.ID)
	}
	return s
}

func (s *memoryItemStore) FindAll(ctx context.Context) ([]*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Item, 0, len(s.items))
	for _, item := range s.items {
		c := item
		out = append(out, &c)
	}
	return out, nil
}

func (s *memoryItemStore) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	if s.onFind != nil {
		s.onFind(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls[id]++
	if err := s.findErr[id]; err != nil {
		return nil, err
	}
	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	return &item, nil
}

func (s *memoryItemStore) FindAllIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.ids...), nil
}

func (s *memoryItemStore) Save(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.onSave != nil {
		s.onSave(ctx, item.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls[item.ID]++
	if err := s.saveErr[item.ID]; err != nil {
		return nil, err
	}
	// Existing items are only ever updated, never recreated.
	if _, ok := s.items[item.ID]; !ok && item.ID != 0 {
		return nil, store.ErrItemNotFound
	}
	s.items[item.ID] = *item
	return item.Clone(), nil
}

func (s *memoryItemStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok, nil
}

func (s *memoryItemStore) DeleteByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *memoryItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return s
}

func (s *memoryItemStore) totalSaves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.saveCalls {
		n += c
	}
	return n
}

func (s *memoryItemStore) totalFinds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.findCalls {
		n += c
	}
	return n
}
