package concurrency

//===----------------------------------------------------------------------===//
//
//                         BusTub
//
// lock_manager.cpp
//
// Identification: src/concurrency/lock_manager.cpp
//
// Copyright (c) 2015-2019, Carnegie Mellon University Database Group
//
//===----------------------------------------------------------------------===//

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang-collections/collections/queue"
	pair "github.com/notEpsilon/go-pair"
	"github.com/ryogrid/SamehadaCore/common"
	"github.com/ryogrid/SamehadaCore/errors"
	"github.com/ryogrid/SamehadaCore/types"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

const ErrTransactionAborted = errors.Error("transaction aborted because of deadlock")

// LockResult is the outcome of a single lock request
type LockResult int32

const (
	Granted LockResult = iota
	Blocked
	Aborted
)

func (r LockResult) String() string {
	switch r {
	case Granted:
		return "GRANTED"
	case Blocked:
		return "BLOCKED"
	case Aborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// lockEntry is the lock state of one page. exclusiveHolder is valid only when
// no shared holder exists.
type lockEntry struct {
	sharedHolders   mapset.Set[types.TxnID]
	exclusiveHolder types.TxnID
	waiters         mapset.Set[types.TxnID]
	// closed and replaced whenever a holder goes away
	wakeCh chan struct{}
}

func newLockEntry() *lockEntry {
	return &lockEntry{
		sharedHolders:   mapset.NewThreadUnsafeSet[types.TxnID](),
		exclusiveHolder: types.InvalidTxnID,
		waiters:         mapset.NewThreadUnsafeSet[types.TxnID](),
		wakeCh:          make(chan struct{}),
	}
}

func (e *lockEntry) isUnused() bool {
	return e.sharedHolders.Cardinality() == 0 && !e.exclusiveHolder.IsValid() && e.waiters.Cardinality() == 0
}

func (e *lockEntry) holds(txnID types.TxnID) bool {
	return e.exclusiveHolder == txnID || e.sharedHolders.Contains(txnID)
}

func (e *lockEntry) wakeUp() {
	close(e.wakeCh)
	e.wakeCh = make(chan struct{})
}

/**
 * LockManager handles transactions asking for locks on pages.
 * Strict two-phase locking is assumed: locks are kept until ReleaseAll is called at
 * transaction end. Deadlocks are detected when a request would have to wait: if the
 * requester is reachable from one of the transactions it would wait for, the request
 * is refused with Aborted and nothing is registered.
 */
type LockManager struct {
	mutex     *deadlock.Mutex
	lockTable map[types.PageID]*lockEntry
	// waiter -> transactions holding the page the waiter asked for
	waitsFor map[types.TxnID]mapset.Set[types.TxnID]
	// page each blocked transaction waits on
	waitingOn map[types.TxnID]types.PageID
	heldPages map[types.TxnID]mapset.Set[types.PageID]
}

func NewLockManager() *LockManager {
	ret := new(LockManager)
	ret.mutex = new(deadlock.Mutex)
	ret.lockTable = make(map[types.PageID]*lockEntry)
	ret.waitsFor = make(map[types.TxnID]mapset.Set[types.TxnID])
	ret.waitingOn = make(map[types.TxnID]types.PageID)
	ret.heldPages = make(map[types.TxnID]mapset.Set[types.PageID])
	return ret
}

/*
* [LOCK_NOTE]: For both acquire functions:
* 1. Granted means txn holds the lock on return.
* 2. Blocked means txn is registered as a waiter. The returned channel is closed when
*    some holder of the page goes away and the caller should retry the request then.
* 3. Aborted means waiting would close a cycle in the wait-for graph. The caller must
*    unwind the transaction (ReleaseAll).
* Requesting a lock txn already holds is allowed and is Granted.
 */

/**
* Acquire a lock on the page in shared mode. See [LOCK_NOTE].
 */
func (lock_manager *LockManager) AcquireShared(pid types.PageID, txnID types.TxnID) (LockResult, <-chan struct{}) {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()

	entry := lock_manager.getEntry(pid)
	if entry.holds(txnID) {
		return Granted, nil
	}

	blockers := mapset.NewThreadUnsafeSet[types.TxnID]()
	if entry.exclusiveHolder.IsValid() {
		blockers.Add(entry.exclusiveHolder)
	}
	if blockers.Cardinality() == 0 {
		entry.sharedHolders.Add(txnID)
		lock_manager.granted(pid, txnID)
		return Granted, nil
	}
	return lock_manager.wait(pid, entry, txnID, blockers, types.Shared)
}

/**
* Acquire a lock on the page in exclusive mode. See [LOCK_NOTE].
* A sole shared holder is upgraded in place.
 */
func (lock_manager *LockManager) AcquireExclusive(pid types.PageID, txnID types.TxnID) (LockResult, <-chan struct{}) {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()

	entry := lock_manager.getEntry(pid)
	if entry.exclusiveHolder == txnID {
		return Granted, nil
	}

	blockers := mapset.NewThreadUnsafeSet[types.TxnID]()
	if entry.exclusiveHolder.IsValid() {
		blockers.Add(entry.exclusiveHolder)
	}
	for _, holder := range entry.sharedHolders.ToSlice() {
		if holder != txnID {
			blockers.Add(holder)
		}
	}
	if blockers.Cardinality() == 0 {
		entry.sharedHolders.Remove(txnID)
		entry.exclusiveHolder = txnID
		lock_manager.granted(pid, txnID)
		return Granted, nil
	}
	return lock_manager.wait(pid, entry, txnID, blockers, types.Exclusive)
}

// caller must hold mutex
func (lock_manager *LockManager) getEntry(pid types.PageID) *lockEntry {
	entry, ok := lock_manager.lockTable[pid]
	if !ok {
		entry = newLockEntry()
		lock_manager.lockTable[pid] = entry
	}
	return entry
}

// caller must hold mutex
func (lock_manager *LockManager) granted(pid types.PageID, txnID types.TxnID) {
	lock_manager.stopWaiting(txnID)
	held, ok := lock_manager.heldPages[txnID]
	if !ok {
		held = mapset.NewThreadUnsafeSet[types.PageID]()
		lock_manager.heldPages[txnID] = held
	}
	held.Add(pid)
}

// caller must hold mutex
func (lock_manager *LockManager) wait(pid types.PageID, entry *lockEntry, txnID types.TxnID, blockers mapset.Set[types.TxnID], perm types.Permission) (LockResult, <-chan struct{}) {
	// edges of a previous attempt are stale now
	lock_manager.stopWaiting(txnID)

	for _, blocker := range blockers.ToSlice() {
		if lock_manager.isReachable(blocker, txnID) {
			lock_manager.cleanupEntry(pid, entry)
			common.ShLogWithFields(common.WARN, logrus.Fields{"txn": txnID, "page": pid, "perm": perm, "blocker": blocker},
				"LockManager: deadlock detected. request is refused\n")
			if common.IsLogKindActive(common.DEADLOCK_INFO) {
				common.RuntimeStack()
			}
			return Aborted, nil
		}
	}

	lock_manager.waitsFor[txnID] = blockers
	lock_manager.waitingOn[txnID] = pid
	entry.waiters.Add(txnID)
	common.ShLogWithFields(common.DEBUG_INFO, logrus.Fields{"txn": txnID, "page": pid, "perm": perm},
		"LockManager: request blocked by %v\n", blockers)
	return Blocked, entry.wakeCh
}

// isReachable reports whether to can be reached from from by following wait-for edges.
// caller must hold mutex
func (lock_manager *LockManager) isReachable(from types.TxnID, to types.TxnID) bool {
	visited := mapset.NewThreadUnsafeSet[types.TxnID](from)
	q := queue.New()
	q.Enqueue(from)
	for q.Len() > 0 {
		cur := q.Dequeue().(types.TxnID)
		if cur == to {
			return true
		}
		edges, ok := lock_manager.waitsFor[cur]
		if !ok {
			continue
		}
		for _, next := range edges.ToSlice() {
			if !visited.Contains(next) {
				visited.Add(next)
				q.Enqueue(next)
			}
		}
	}
	return false
}

// stopWaiting drops the waiter registration and the outgoing edges of txnID.
// caller must hold mutex
func (lock_manager *LockManager) stopWaiting(txnID types.TxnID) {
	if pid, ok := lock_manager.waitingOn[txnID]; ok {
		delete(lock_manager.waitingOn, txnID)
		if entry, ok := lock_manager.lockTable[pid]; ok {
			entry.waiters.Remove(txnID)
			lock_manager.cleanupEntry(pid, entry)
		}
	}
	delete(lock_manager.waitsFor, txnID)
}

// caller must hold mutex
func (lock_manager *LockManager) cleanupEntry(pid types.PageID, entry *lockEntry) {
	if entry.isUnused() {
		delete(lock_manager.lockTable, pid)
	}
}

// caller must hold mutex
func (lock_manager *LockManager) releaseInternal(pid types.PageID, txnID types.TxnID) {
	if held, ok := lock_manager.heldPages[txnID]; ok {
		held.Remove(pid)
		if held.Cardinality() == 0 {
			delete(lock_manager.heldPages, txnID)
		}
	}

	entry, ok := lock_manager.lockTable[pid]
	if !ok || !entry.holds(txnID) {
		return
	}
	entry.sharedHolders.Remove(txnID)
	if entry.exclusiveHolder == txnID {
		entry.exclusiveHolder = types.InvalidTxnID
	}

	// waiters of this page no longer wait for txnID
	for _, waiter := range entry.waiters.ToSlice() {
		if edges, ok := lock_manager.waitsFor[waiter]; ok {
			edges.Remove(txnID)
		}
	}
	entry.wakeUp()
	lock_manager.cleanupEntry(pid, entry)
}

/**
* Release the lock held by the transaction on the page. Releasing a lock which
* is not held does nothing.
 */
func (lock_manager *LockManager) Release(pid types.PageID, txnID types.TxnID) {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()

	lock_manager.releaseInternal(pid, txnID)
}

/**
* Release every lock of the transaction and forget it in the wait-for graph.
* @return pages which were held by the transaction
 */
func (lock_manager *LockManager) ReleaseAll(txnID types.TxnID) []types.PageID {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()

	lock_manager.stopWaiting(txnID)

	var pages []types.PageID
	if held, ok := lock_manager.heldPages[txnID]; ok {
		pages = held.ToSlice()
	}
	for _, pid := range pages {
		lock_manager.releaseInternal(pid, txnID)
	}

	for _, edges := range lock_manager.waitsFor {
		edges.Remove(txnID)
	}

	sortPageIDs(pages)
	common.ShLogWithFields(common.DEBUG_INFO, logrus.Fields{"txn": txnID}, "LockManager: released %d locks\n", len(pages))
	return pages
}

// CancelWait withdraws a blocked request of txnID on pid
func (lock_manager *LockManager) CancelWait(pid types.PageID, txnID types.TxnID) {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()

	if waitPid, ok := lock_manager.waitingOn[txnID]; ok && waitPid == pid {
		lock_manager.stopWaiting(txnID)
	}
}

// Holds reports whether txnID holds a shared or exclusive lock on pid
func (lock_manager *LockManager) Holds(pid types.PageID, txnID types.TxnID) bool {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()

	entry, ok := lock_manager.lockTable[pid]
	return ok && entry.holds(txnID)
}

func (lock_manager *LockManager) HoldsExclusive(pid types.PageID, txnID types.TxnID) bool {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()

	entry, ok := lock_manager.lockTable[pid]
	return ok && entry.exclusiveHolder == txnID
}

// LockedPages returns the pages txnID holds locks on, in page id order
func (lock_manager *LockManager) LockedPages(txnID types.TxnID) []types.PageID {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()

	held, ok := lock_manager.heldPages[txnID]
	if !ok {
		return []types.PageID{}
	}
	ret := held.ToSlice()
	sortPageIDs(ret)
	return ret
}

/*** Graph API ***/

/** @return the set of all edges (waiter, holder) in the graph, used for testing only! */
func (lock_manager *LockManager) GetEdgeList() []pair.Pair[types.TxnID, types.TxnID] {
	lock_manager.mutex.Lock()
	defer lock_manager.mutex.Unlock()

	ret := make([]pair.Pair[types.TxnID, types.TxnID], 0)
	for waiter, holders := range lock_manager.waitsFor {
		for _, holder := range holders.ToSlice() {
			ret = append(ret, pair.Pair[types.TxnID, types.TxnID]{First: waiter, Second: holder})
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].First != ret[j].First {
			return ret[i].First < ret[j].First
		}
		return ret[i].Second < ret[j].Second
	})
	return ret
}

func sortPageIDs(pids []types.PageID) {
	sort.Slice(pids, func(i, j int) bool {
		if pids[i].GetTableId() != pids[j].GetTableId() {
			return pids[i].GetTableId() < pids[j].GetTableId()
		}
		return pids[i].GetPageNo() < pids[j].GetPageNo()
	})
}
