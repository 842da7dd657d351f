package service

import (
	"context"
	"sync"

	"autoadopt/internal/domain"
)

type memoryStore struct {
	mu      sync.Mutex
	devices map[string]domain.Device
	runs    []domain.AdoptionRun
}

func newMemoryStore() *memoryStore {
	return &memoryStore{devices: make(map[string]domain.Device)}
}

func (m *memoryStore) ReplaceDevices(_ context.Context, devices []domain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = make(map[string]domain.Device, len(devices))
	for _, d := range devices {
		m.devices[d.Address] = d
	}
	return nil
}

func (m *memoryStore) UpsertDevice(_ context.Context, d domain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[d.Address] = d
	return nil
}

func (m *memoryStore) ListDevices(context.Context) ([]domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	return out, nil
}

func (m *memoryStore) RecordAdoption(_ context.Context, run domain.AdoptionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryStore) ListAdoptions(_ context.Context, address string, limit int) ([]domain.AdoptionRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AdoptionRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		if address != "" && m.runs[i].Address != address {
			continue
		}
		out = append(out, m.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryStore) device(ip string) (domain.Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[ip]
	return d, ok
}

func (m *memoryStore) recorded() []domain.AdoptionRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AdoptionRun(nil), m.runs...)
}

type fakeDiscoverer struct {
	devices []domain.Device
	err     error
	block   chan struct{}
}

func (f *fakeDiscoverer) Discover(ctx context.Context, start, end string) ([]domain.Device, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return append([]domain.Device(nil), f.devices...), f.err
}
