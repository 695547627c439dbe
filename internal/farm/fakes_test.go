package farm

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/soil"
	"github.com/sells-group/terra/internal/store"
)

// memStore is an in-memory store.Store.
type memStore struct {
	mu     sync.Mutex
	fields map[string]field.Record
	order  []string
}

func newMemStore() *memStore {
	return &memStore{fields: make(map[string]field.Record)}
}

func (m *memStore) CreateField(_ context.Context, r *field.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[r.ID] = *r
	m.order = append(m.order, r.ID)
	return nil
}

func (m *memStore) UpdateField(_ context.Context, r *field.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fields[r.ID]; !ok {
		return store.ErrNotFound
	}
	m.fields[r.ID] = *r
	return nil
}

func (m *memStore) GetField(_ context.Context, id string) (*field.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.fields[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) ListFields(_ context.Context, filter store.ListFilter) ([]field.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []field.Record
	for _, id := range m.order {
		r, ok := m.fields[id]
		if !ok {
			continue
		}
		if filter.Crop != "" && r.Crop != filter.Crop {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) DeleteField(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fields[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.fields, id)
	return nil
}

func (m *memStore) ImportFields(ctx context.Context, records []*field.Record) (int, error) {
	for _, r := range records {
		if err := m.CreateField(ctx, r); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

// fakeSoil answers from a fixed sample, failing for latitudes in failLat.
type fakeSoil struct {
	mu      sync.Mutex
	sample  soil.Sample
	failLat map[float64]error
	calls   []float64
}

func (f *fakeSoil) Query(_ context.Context, lat, _ float64) (*soil.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, lat)
	if err, ok := f.failLat[lat]; ok {
		return nil, err
	}
	s := f.sample
	return &s, nil
}

func (f *fakeSoil) sortedCalls() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]float64(nil), f.calls...)
	sort.Float64s(out)
	return out
}
