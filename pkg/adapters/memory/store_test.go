package memory_test

import (
	"testing"

	"github.com/mergeflow/mergeflow/pkg/adapters/memory"
	"github.com/mergeflow/mergeflow/pkg/ports"
)

// Ensure Store implements ResultStore
var _ ports.ResultStore = (*memory.Store)(nil)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunResultStoreContract(t, memory.NewStore())
}
