package memory_test

import (
	"testing"

	"github.com/peopledear/peopledear/store/memory"
	"github.com/peopledear/peopledear/store/storetest"
	"github.com/peopledear/peopledear/timeoff"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) timeoff.TxStore { return memory.New() })
}
