package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/brojonat/soltx/service/db"
)

// mockStore is an in-memory TransactionStore that records the calls it receives.
type mockStore struct {
	mu           sync.Mutex
	transactions []*db.Transaction
	err          error
	pingErr      error

	getCalls    []string
	dateCalls   []time.Time
	latestCalls []int32
}

func newMockStore(txns ...*db.Transaction) *mockStore {
	return &mockStore{transactions: txns}
}

func (m *mockStore) GetTransactionBySignature(ctx context.Context, signature string) (*db.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls = append(m.getCalls, signature)
	if m.err != nil {
		return nil, m.err
	}
	for _, t := range m.transactions {
		if t.Signature == signature {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockStore) ListTransactionsByDate(ctx context.Context, date time.Time) ([]*db.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dateCalls = append(m.dateCalls, date)
	if m.err != nil {
		return nil, m.err
	}
	y, mo, d := date.Date()
	var out []*db.Transaction
	for _, t := range m.transactions {
		ty, tmo, td := t.Timestamp.UTC().Date()
		if ty == y && tmo == mo && td == d {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *mockStore) ListLatestTransactions(ctx context.Context, limit int32) ([]*db.LatestTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestCalls = append(m.latestCalls, limit)
	if m.err != nil {
		return nil, m.err
	}
	sorted := append([]*db.Transaction(nil), m.transactions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })
	out := []*db.LatestTransaction{}
	for i, t := range sorted {
		if int32(i) >= limit {
			break
		}
		out = append(out, &db.LatestTransaction{Timestamp: t.Timestamp, Signature: t.Signature, Slot: t.Slot})
	}
	return out, nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.pingErr
}
