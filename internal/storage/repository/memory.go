package repository

import (
	"context"
	"encoding/json"
	"sync"

	storageModel "github.com/festy23/prtracker/internal/storage/model"
)

// Memory is a process-local storage area.
type Memory struct {
	mu    sync.RWMutex
	items storageModel.Items
}

var _ Repository = (*Memory)(nil)

// NewMemory creates an empty in-memory area, optionally seeded with items.
func NewMemory(seed storageModel.Items) *Memory {
	items := storageModel.Items{}
	if seed != nil {
		items = seed.Clone()
	}
	return &Memory{items: items}
}

// Get returns the values stored under keys.
func (m *Memory) Get(_ context.Context, keys ...string) (storageModel.Items, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := storageModel.Items{}
	for _, k := range keys {
		if v, ok := m.items[k]; ok {
			out[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out, nil
}

// GetAll returns a snapshot of the whole namespace.
func (m *Memory) GetAll(_ context.Context) (storageModel.Items, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items.Clone(), nil
}

// Set writes every item.
func (m *Memory) Set(_ context.Context, items storageModel.Items) error {
	if err := items.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range items {
		m.items[k] = append(json.RawMessage(nil), v...)
	}
	return nil
}

// Remove deletes keys.
func (m *Memory) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}
