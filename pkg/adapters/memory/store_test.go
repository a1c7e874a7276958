package memory_test

import (
	"testing"

	"github.com/aretw0/cerebro/pkg/adapters/memory"
	"github.com/aretw0/cerebro/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunProfileStoreContract(t, store)
}
