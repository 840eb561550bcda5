package memory

import (
	"context"
	"sync"

	"github.com/hindsight-journal/hindsight/pkg/domain/interfaces"
	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory keeps indexes in process memory. Stored and returned indexes are deep copies so
// callers can never alias the stored state.
type Memory struct {
	mu      sync.RWMutex
	indexes map[string]*model.Index
}

var _ interfaces.IndexRepository = &Memory{}

func New() *Memory {
	return &Memory{
		indexes: make(map[string]*model.Index),
	}
}

func (m *Memory) LoadIndex(ctx context.Context, vaultID string) (*model.Index, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, exists := m.indexes[vaultID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrIndexNotFound, "index not found", goerr.V("vault_id", vaultID))
	}

	return idx.DeepCopy(), nil
}

func (m *Memory) SaveIndex(ctx context.Context, vaultID string, idx *model.Index) error {
	if idx == nil {
		return goerr.New("index is required", goerr.V("vault_id", vaultID))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.indexes[vaultID] = idx.DeepCopy()
	return nil
}

func (m *Memory) DeleteIndex(ctx context.Context, vaultID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.indexes, vaultID)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
