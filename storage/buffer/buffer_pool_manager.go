// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"sort"

	"github.com/ryogrid/SamehadaCore/common"
	"github.com/ryogrid/SamehadaCore/concurrency"
	"github.com/ryogrid/SamehadaCore/storage/page"
	"github.com/ryogrid/SamehadaCore/storage/tuple"
	"github.com/ryogrid/SamehadaCore/types"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// BufferPoolManager represents the buffer pool manager.
// Every page access goes through GetPage which takes the page lock first.
// Pages are never written back on eviction. Only clean pages are evicted and
// dirty pages reach their PageStore at commit or by an explicit flush.
type BufferPoolManager struct {
	poolSize    uint32
	pageTable   map[types.PageID]*page.Page
	replacer    *LRUReplacer
	lockManager *concurrency.LockManager
	catalog     Catalog
	mutex       *deadlock.Mutex
}

// GetPage returns the page after acquiring the lock of perm for txnID. It blocks while
// the lock is held by other transactions. On a miss the page is read from its
// PageStore and the least recently used clean page is evicted if the pool is full.
func (b *BufferPoolManager) GetPage(txnID types.TxnID, pageID types.PageID, perm types.Permission) (*page.Page, error) {
	if err := b.acquireLock(txnID, pageID, perm); err != nil {
		return nil, err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	// if it is on buffer pool return it
	if pg, ok := b.pageTable[pageID]; ok {
		b.replacer.Access(pageID)
		return pg, nil
	}

	store, err := b.lookupStore(pageID.GetTableId())
	if err != nil {
		return nil, err
	}

	if err = b.makeRoom(); err != nil {
		common.ShLogWithFields(common.WARN, logrus.Fields{"txn": txnID, "page": pageID}, "BufferPoolManager: no evictable page\n")
		return nil, err
	}

	pg, err := store.ReadPage(pageID)
	if err != nil {
		common.ShLogWithFields(common.ERROR, logrus.Fields{"txn": txnID, "page": pageID}, "BufferPoolManager: read failed: %v\n", err)
		return nil, err
	}
	b.pageTable[pageID] = pg
	b.replacer.Access(pageID)

	if common.IsLogKindActive(common.BUFFER_INTERNAL_STATE) {
		common.ShPrintf(common.BUFFER_INTERNAL_STATE, "GetPage: %v admitted. %s\n", pageID, b.replacer)
	}
	return pg, nil
}

// acquireLock retries until the lock is granted or the request is refused.
// A refused request is reported as concurrency.ErrTransactionAborted.
func (b *BufferPoolManager) acquireLock(txnID types.TxnID, pageID types.PageID, perm types.Permission) error {
	for {
		var res concurrency.LockResult
		var wakeCh <-chan struct{}
		if perm == types.Exclusive {
			res, wakeCh = b.lockManager.AcquireExclusive(pageID, txnID)
		} else {
			res, wakeCh = b.lockManager.AcquireShared(pageID, txnID)
		}

		switch res {
		case concurrency.Granted:
			return nil
		case concurrency.Aborted:
			return concurrency.ErrTransactionAborted
		}
		<-wakeCh
	}
}

// caller must hold mutex
func (b *BufferPoolManager) lookupStore(tableID uint32) (PageStore, error) {
	if b.catalog == nil {
		return nil, ErrTableNotFound
	}
	return b.catalog.GetPageStore(tableID)
}

// makeRoom evicts one page when the pool is full.
// caller must hold mutex
func (b *BufferPoolManager) makeRoom() error {
	if uint32(len(b.pageTable)) < b.poolSize {
		return nil
	}

	victim, ok := b.replacer.Victim(func(pid types.PageID) bool {
		return !b.pageTable[pid].IsDirty()
	})
	if !ok {
		return ErrCapacityExhausted
	}
	delete(b.pageTable, victim)
	common.ShPrintf(common.DEBUG_INFO, "BufferPoolManager: %v is evicted\n", victim)
	return nil
}

// ReleasePage releases the lock of txnID on the page. It is dangerous: the caller must
// be sure that nothing depends on the lock any more. Nothing is flushed or checked.
func (b *BufferPoolManager) ReleasePage(txnID types.TxnID, pageID types.PageID) {
	b.lockManager.Release(pageID, txnID)
}

// HoldsLock reports whether txnID holds a lock on the page
func (b *BufferPoolManager) HoldsLock(txnID types.TxnID, pageID types.PageID) bool {
	return b.lockManager.Holds(pageID, txnID)
}

// TransactionComplete commits txnID
func (b *BufferPoolManager) TransactionComplete(txnID types.TxnID) error {
	return b.TransactionCompleteWithStatus(txnID, true)
}

// TransactionCompleteWithStatus ends txnID. On commit every page it dirtied is flushed,
// on abort those pages are discarded so that the next access reloads them. When the
// flush fails the pages not written yet are discarded as on abort, and the error is
// returned. Locks are released last in every case.
func (b *BufferPoolManager) TransactionCompleteWithStatus(txnID types.TxnID, commit bool) error {
	var err error
	if commit {
		if err = b.FlushPages(txnID); err != nil {
			common.ShLogWithFields(common.WARN, logrus.Fields{"txn": txnID, "err": err}, "BufferPoolManager: commit flush failed. unwritten pages are discarded\n")
			b.discardPages(txnID)
		}
	} else {
		b.discardPages(txnID)
	}
	b.lockManager.ReleaseAll(txnID)

	common.ShLogWithFields(common.DEBUG_INFO, logrus.Fields{"txn": txnID, "commit": commit}, "BufferPoolManager: transaction completed\n")
	return err
}

// InsertTuple adds tpl to the table through its PageStore. The pages it modified are
// marked dirty by txnID and take the place of any resident copy.
func (b *BufferPoolManager) InsertTuple(txnID types.TxnID, tableID uint32, tpl *tuple.Tuple) error {
	b.mutex.Lock()
	store, err := b.lookupStore(tableID)
	b.mutex.Unlock()
	if err != nil {
		return err
	}

	pages, err := store.InsertTuple(txnID, tpl)
	if err != nil {
		return err
	}
	return b.admitDirtied(txnID, pages)
}

// DeleteTuple removes tpl from the table of its RID. See InsertTuple.
func (b *BufferPoolManager) DeleteTuple(txnID types.TxnID, tpl *tuple.Tuple) error {
	if tpl.GetRID() == nil {
		return ErrTupleHasNoRID
	}

	b.mutex.Lock()
	store, err := b.lookupStore(tpl.GetRID().GetPageId().GetTableId())
	b.mutex.Unlock()
	if err != nil {
		return err
	}

	pages, err := store.DeleteTuple(txnID, tpl)
	if err != nil {
		return err
	}
	return b.admitDirtied(txnID, pages)
}

func (b *BufferPoolManager) admitDirtied(txnID types.TxnID, pages []*page.Page) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, pg := range pages {
		pg.MarkDirty(true, txnID)
		pid := pg.GetPageId()
		if _, ok := b.pageTable[pid]; !ok {
			if err := b.makeRoom(); err != nil {
				common.ShLogWithFields(common.WARN, logrus.Fields{"txn": txnID, "page": pid}, "BufferPoolManager: modified page can't be kept\n")
				return err
			}
		}
		b.pageTable[pid] = pg
		b.replacer.Access(pid)
	}
	return nil
}

// caller must hold mutex
func (b *BufferPoolManager) flushPage(pg *page.Page) error {
	if !pg.IsDirty() {
		return nil
	}
	store, err := b.lookupStore(pg.GetPageId().GetTableId())
	if err != nil {
		return err
	}
	if err = store.WritePage(pg); err != nil {
		common.ShLogWithFields(common.ERROR, logrus.Fields{"page": pg.GetPageId()}, "BufferPoolManager: flush failed: %v\n", err)
		return err
	}
	pg.MarkDirty(false, types.InvalidTxnID)
	return nil
}

// caller must hold mutex
func (b *BufferPoolManager) residentPages(filter func(*page.Page) bool) []*page.Page {
	ret := make([]*page.Page, 0)
	for _, pg := range b.pageTable {
		if filter(pg) {
			ret = append(ret, pg)
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		l, r := ret[i].GetPageId(), ret[j].GetPageId()
		if l.GetTableId() != r.GetTableId() {
			return l.GetTableId() < r.GetTableId()
		}
		return l.GetPageNo() < r.GetPageNo()
	})
	return ret
}

// FlushPage writes the page to its PageStore if it is dirty
func (b *BufferPoolManager) FlushPage(pageID types.PageID) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	pg, ok := b.pageTable[pageID]
	if !ok {
		return ErrPageNotResident
	}
	return b.flushPage(pg)
}

// FlushPages writes every page dirtied by txnID
func (b *BufferPoolManager) FlushPages(txnID types.TxnID) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, pg := range b.residentPages(func(pg *page.Page) bool { return pg.GetDirtier() == txnID }) {
		if err := b.flushPage(pg); err != nil {
			return err
		}
	}
	return nil
}

// FlushAllPages writes every dirty page. Pages of running transactions are written
// too, so use this only at shutdown. The first error is returned after all pages are tried.
func (b *BufferPoolManager) FlushAllPages() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	var ret error
	for _, pg := range b.residentPages(func(pg *page.Page) bool { return pg.IsDirty() }) {
		if err := b.flushPage(pg); err != nil && ret == nil {
			ret = err
		}
	}
	return ret
}

// DiscardPage drops the page without writing it back
func (b *BufferPoolManager) DiscardPage(pageID types.PageID) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	delete(b.pageTable, pageID)
	b.replacer.Remove(pageID)
}

func (b *BufferPoolManager) discardPages(txnID types.TxnID) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, pg := range b.residentPages(func(pg *page.Page) bool { return pg.GetDirtier() == txnID }) {
		delete(b.pageTable, pg.GetPageId())
		b.replacer.Remove(pg.GetPageId())
		common.ShPrintf(common.DEBUG_INFO, "BufferPoolManager: %v is discarded\n", pg.GetPageId())
	}
}

// IsResident reports whether the page is in the buffer pool
func (b *BufferPoolManager) IsResident(pageID types.PageID) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	_, ok := b.pageTable[pageID]
	return ok
}

// GetPoolSize returns the capacity of the buffer pool
func (b *BufferPoolManager) GetPoolSize() uint32 {
	return b.poolSize
}

// GetNumResidentPages returns how many pages are in the buffer pool now
func (b *BufferPoolManager) GetNumResidentPages() uint32 {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return uint32(len(b.pageTable))
}

func (b *BufferPoolManager) GetLockManager() *concurrency.LockManager {
	return b.lockManager
}

// SetCatalog sets where PageStores are looked up. It must be called before the first access.
func (b *BufferPoolManager) SetCatalog(catalog Catalog) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.catalog = catalog
}

// NewBufferPoolManager returns a empty buffer pool manager
func NewBufferPoolManager(poolSize uint32, lockManager *concurrency.LockManager) *BufferPoolManager {
	common.SH_Assert(poolSize > 0, "pool size must be positive")
	return &BufferPoolManager{
		poolSize:    poolSize,
		pageTable:   make(map[types.PageID]*page.Page),
		replacer:    NewLRUReplacer(poolSize),
		lockManager: lockManager,
		mutex:       new(deadlock.Mutex),
	}
}
