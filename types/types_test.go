package types

import (
	"sync"
	"testing"

	testingpkg "github.com/ryogrid/SamehadaCore/testing/testing_assert"
)

func TestPageIDSerialize(t *testing.T) {
	pid := NewPageID(7, 42)
	testingpkg.Equals(t, pid, NewPageIDFromBytes(pid.Serialize()))
	testingpkg.SimpleAssert(t, pid.IsValid())
	testingpkg.SimpleAssert(t, !InvalidPageID.IsValid())
}

func TestTxnIDGenerator(t *testing.T) {
	g := NewTxnIDGenerator(0)
	ids := make([]TxnID, 1000)
	wg := new(sync.WaitGroup)
	for i := 0; i < len(ids); i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			ids[idx] = g.Next()
		}(i)
	}
	wg.Wait()

	seen := make(map[TxnID]bool)
	for _, id := range ids {
		testingpkg.SimpleAssert(t, id.IsValid())
		testingpkg.SimpleAssert(t, !seen[id])
		seen[id] = true
	}
	testingpkg.Equals(t, TxnID(1000), g.Next())
}
