package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"

	pair "github.com/notEpsilon/go-pair"
	testingpkg "github.com/ryogrid/SamehadaCore/testing/testing_assert"
	"github.com/ryogrid/SamehadaCore/types"
)

var (
	pageP = types.NewPageID(1, 0)
	pageQ = types.NewPageID(1, 1)
	pageR = types.NewPageID(2, 0)
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestSharedLocksAreCompatible(t *testing.T) {
	lm := NewLockManager()

	res, _ := lm.AcquireShared(pageP, 1)
	testingpkg.Equals(t, Granted, res)
	res, _ = lm.AcquireShared(pageP, 2)
	testingpkg.Equals(t, Granted, res)

	testingpkg.SimpleAssert(t, lm.Holds(pageP, 1))
	testingpkg.SimpleAssert(t, lm.Holds(pageP, 2))
	testingpkg.SimpleAssert(t, !lm.HoldsExclusive(pageP, 1))

	// re-request is idempotent
	res, _ = lm.AcquireShared(pageP, 1)
	testingpkg.Equals(t, Granted, res)
	testingpkg.Equals(t, []types.PageID{pageP}, lm.LockedPages(1))
}

func TestExclusiveBlocksOthers(t *testing.T) {
	lm := NewLockManager()

	res, _ := lm.AcquireExclusive(pageP, 1)
	testingpkg.Equals(t, Granted, res)

	res, wakeCh := lm.AcquireExclusive(pageP, 2)
	testingpkg.Equals(t, Blocked, res)
	testingpkg.SimpleAssert(t, wakeCh != nil)
	testingpkg.SimpleAssert(t, !isClosed(wakeCh))

	res, _ = lm.AcquireShared(pageP, 3)
	testingpkg.Equals(t, Blocked, res)

	testingpkg.Equals(t, []pair.Pair[types.TxnID, types.TxnID]{
		{First: 2, Second: 1},
		{First: 3, Second: 1},
	}, lm.GetEdgeList())

	lm.ReleaseAll(1)
	testingpkg.SimpleAssert(t, isClosed(wakeCh))
	testingpkg.SimpleAssert(t, !lm.Holds(pageP, 1))
	testingpkg.Equals(t, 0, len(lm.GetEdgeList()))

	res, _ = lm.AcquireExclusive(pageP, 2)
	testingpkg.Equals(t, Granted, res)
	testingpkg.Equals(t, 0, len(lm.GetEdgeList()))

	// exclusive holder also holds shared
	res, _ = lm.AcquireShared(pageP, 2)
	testingpkg.Equals(t, Granted, res)
	testingpkg.SimpleAssert(t, lm.HoldsExclusive(pageP, 2))
}

func TestExclusiveBlockedBySharedHolders(t *testing.T) {
	lm := NewLockManager()

	lm.AcquireShared(pageP, 1)
	lm.AcquireShared(pageP, 2)

	res, wakeCh := lm.AcquireExclusive(pageP, 3)
	testingpkg.Equals(t, Blocked, res)
	testingpkg.Equals(t, []pair.Pair[types.TxnID, types.TxnID]{
		{First: 3, Second: 1},
		{First: 3, Second: 2},
	}, lm.GetEdgeList())

	lm.Release(pageP, 1)
	testingpkg.SimpleAssert(t, isClosed(wakeCh))
	// stale edge to 1 is gone
	testingpkg.Equals(t, []pair.Pair[types.TxnID, types.TxnID]{{First: 3, Second: 2}}, lm.GetEdgeList())

	res, wakeCh = lm.AcquireExclusive(pageP, 3)
	testingpkg.Equals(t, Blocked, res)
	lm.Release(pageP, 2)
	testingpkg.SimpleAssert(t, isClosed(wakeCh))

	res, _ = lm.AcquireExclusive(pageP, 3)
	testingpkg.Equals(t, Granted, res)
}

func TestUpgrade(t *testing.T) {
	lm := NewLockManager()

	lm.AcquireShared(pageP, 1)
	res, _ := lm.AcquireExclusive(pageP, 1)
	testingpkg.Equals(t, Granted, res)
	testingpkg.SimpleAssert(t, lm.HoldsExclusive(pageP, 1))

	res, _ = lm.AcquireShared(pageP, 2)
	testingpkg.Equals(t, Blocked, res)
}

func TestUpgradeDeadlock(t *testing.T) {
	lm := NewLockManager()

	lm.AcquireShared(pageP, 1)
	lm.AcquireShared(pageP, 2)

	res, _ := lm.AcquireExclusive(pageP, 1)
	testingpkg.Equals(t, Blocked, res)
	res, _ = lm.AcquireExclusive(pageP, 2)
	testingpkg.Equals(t, Aborted, res)

	// aborted request registered nothing
	testingpkg.Equals(t, []pair.Pair[types.TxnID, types.TxnID]{{First: 1, Second: 2}}, lm.GetEdgeList())
}

func TestDeadlockDetection(t *testing.T) {
	lm := NewLockManager()

	testingpkg.Equals(t, Granted, first(lm.AcquireExclusive(pageP, 1)))
	testingpkg.Equals(t, Granted, first(lm.AcquireExclusive(pageQ, 2)))

	res, wakeCh := lm.AcquireExclusive(pageQ, 1)
	testingpkg.Equals(t, Blocked, res)

	// 2 -> 1 -> 2 would be a cycle
	testingpkg.Equals(t, Aborted, first(lm.AcquireShared(pageP, 2)))

	released := lm.ReleaseAll(2)
	testingpkg.Equals(t, []types.PageID{pageQ}, released)
	testingpkg.SimpleAssert(t, isClosed(wakeCh))

	testingpkg.Equals(t, Granted, first(lm.AcquireExclusive(pageQ, 1)))
}

func TestTransitiveDeadlock(t *testing.T) {
	lm := NewLockManager()

	lm.AcquireExclusive(pageP, 1)
	lm.AcquireExclusive(pageQ, 2)
	lm.AcquireExclusive(pageR, 3)

	testingpkg.Equals(t, Blocked, first(lm.AcquireExclusive(pageQ, 1)))
	testingpkg.Equals(t, Blocked, first(lm.AcquireExclusive(pageR, 2)))
	testingpkg.Equals(t, Aborted, first(lm.AcquireExclusive(pageP, 3)))

	// 3 is not involved in any cycle when it waits for nothing
	lm.ReleaseAll(3)
	testingpkg.Equals(t, []pair.Pair[types.TxnID, types.TxnID]{{First: 1, Second: 2}}, lm.GetEdgeList())
}

func TestReleaseAllPurgesWaitForGraph(t *testing.T) {
	lm := NewLockManager()

	lm.AcquireExclusive(pageP, 1)
	lm.AcquireExclusive(pageQ, 2)
	testingpkg.Equals(t, Blocked, first(lm.AcquireExclusive(pageP, 2)))

	// waiter goes away
	lm.ReleaseAll(2)
	testingpkg.Equals(t, 0, len(lm.GetEdgeList()))
	testingpkg.Equals(t, []types.PageID{}, lm.LockedPages(2))

	// no stale edge makes this look like a cycle
	lm.AcquireExclusive(pageQ, 3)
	testingpkg.Equals(t, Blocked, first(lm.AcquireExclusive(pageQ, 1)))

	lm.ReleaseAll(1)
	lm.ReleaseAll(3)
	testingpkg.Equals(t, 0, len(lm.lockTable))
}

func TestCancelWait(t *testing.T) {
	lm := NewLockManager()

	lm.AcquireExclusive(pageP, 1)
	lm.AcquireShared(pageP, 2)
	lm.CancelWait(pageP, 2)
	testingpkg.Equals(t, 0, len(lm.GetEdgeList()))

	lm.Release(pageP, 1)
	// release of a lock not held
	lm.Release(pageP, 1)
	testingpkg.Equals(t, 0, len(lm.lockTable))
}

func TestConcurrentDeadlockLiveness(t *testing.T) {
	for i := 0; i < 50; i++ {
		lm := NewLockManager()
		lm.AcquireExclusive(pageP, 1)
		lm.AcquireExclusive(pageQ, 2)

		results := make([]LockResult, 3)
		wg := new(sync.WaitGroup)
		request := func(txnID types.TxnID, pid types.PageID) {
			defer wg.Done()
			for {
				res, wakeCh := lm.AcquireExclusive(pid, txnID)
				if res != Blocked {
					results[txnID] = res
					lm.ReleaseAll(txnID)
					return
				}
				<-wakeCh
			}
		}
		wg.Add(2)
		go request(1, pageQ)
		go request(2, pageP)
		wg.Wait()

		abortCnt := 0
		for _, res := range results[1:] {
			if res == Aborted {
				abortCnt++
			}
		}
		testingpkg.Equals(t, 1, abortCnt)
	}
}

func TestMutualExclusion(t *testing.T) {
	lm := NewLockManager()
	counter := 0
	inCritical := int32(0)

	wg := new(sync.WaitGroup)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(txnID types.TxnID) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				for {
					res, wakeCh := lm.AcquireExclusive(pageP, txnID)
					if res == Granted {
						break
					}
					if res != Blocked {
						t.Errorf("txn %v: unexpected %v", txnID, res)
						return
					}
					<-wakeCh
				}
				if atomic.AddInt32(&inCritical, 1) != 1 {
					t.Errorf("txn %v entered while another txn held the lock", txnID)
				}
				counter++
				atomic.AddInt32(&inCritical, -1)
				lm.ReleaseAll(txnID)
			}
		}(types.TxnID(i))
	}
	wg.Wait()
	testingpkg.Equals(t, 800, counter)
}

func first(res LockResult, _ <-chan struct{}) LockResult {
	return res
}
